package analytics

import (
	"fmt"
	"time"
)

const (
	dashboardTopN      = 10
	dashboardMonths    = 12
	dashboardRecent    = 10
	percent            = 100
	isoMillisecondTime = "2006-01-02T15:04:05.000Z07:00"
)

// DashboardSummary holds the headline figures.
type DashboardSummary struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalOrders     int     `json:"total_orders"`
	TotalCustomers  int     `json:"total_customers"`
	TotalProducts   int     `json:"total_products"`
	AvgOrderValue   float64 `json:"avg_order_value"`
	TotalProfit     float64 `json:"total_profit"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
	TotalDiscount   float64 `json:"total_discount"`
}

// TopCustomer is a customer ranked by revenue.
type TopCustomer struct {
	CustomerID    string  `json:"customer_id"`
	CustomerName  string  `json:"customer_name"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// TopProduct is a product ranked by revenue.
type TopProduct struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Category      string  `json:"category"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalQuantity int     `json:"total_quantity"`
}

// CategorySales is revenue and volume per product category.
type CategorySales struct {
	Category      string  `json:"category"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalQuantity int     `json:"total_quantity"`
	TotalOrders   int     `json:"total_orders"`
}

// TerritorySales is revenue and margin per territory.
type TerritorySales struct {
	TerritoryID   string  `json:"territory_id"`
	TerritoryName string  `json:"territory_name"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalProfit   float64 `json:"total_profit"`
	TotalOrders   int     `json:"total_orders"`
	ProfitMargin  float64 `json:"profit_margin"`
}

// MonthSales is one calendar month of the revenue trend.
type MonthSales struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	MonthName    string  `json:"month_name"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalProfit  float64 `json:"total_profit"`
	TotalOrders  int     `json:"total_orders"`
	ProfitMargin float64 `json:"profit_margin"`
}

// RecentOrder is one of the newest orders.
type RecentOrder struct {
	OrderNumber   string  `json:"order_number"`
	OrderDate     string  `json:"order_date"`
	CustomerName  string  `json:"customer_name"`
	TerritoryName string  `json:"territory_name"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalProfit   float64 `json:"total_profit"`
	TotalItems    int     `json:"total_items"`
	ProfitMargin  float64 `json:"profit_margin"`

	date time.Time
}

// DashboardReport is the landing page overview.
type DashboardReport struct {
	Summary          DashboardSummary `json:"summary"`
	TopCustomers     []TopCustomer    `json:"topCustomers"`
	TopProducts      []TopProduct     `json:"topProducts"`
	SalesByCategory  []CategorySales  `json:"salesByCategory"`
	SalesByTerritory []TerritorySales `json:"salesByTerritory"`
	MonthlyTrend     []MonthSales     `json:"monthlyTrend"`
	RecentOrders     []RecentOrder    `json:"recentOrders"`
}

type monthKey struct {
	year  int
	month time.Month
}

// Dashboard builds the overview report. Orders without a date are treated as
// placed at now when ranking recent orders.
func Dashboard(facts []SalesFact, now time.Time) DashboardReport {
	orders := GroupOrders(facts)

	return DashboardReport{
		Summary:          dashboardSummary(facts, len(orders)),
		TopCustomers:     topCustomers(facts),
		TopProducts:      topProducts(facts),
		SalesByCategory:  salesByCategory(facts),
		SalesByTerritory: salesByTerritory(facts),
		MonthlyTrend:     monthlyTrend(facts),
		RecentOrders:     recentOrders(orders, now),
	}
}

func dashboardSummary(facts []SalesFact, orderCount int) DashboardSummary {
	var revenue, profit, discount float64
	customers, products := set{}, set{}
	for _, f := range facts {
		revenue += f.SalesAmount
		profit += f.ProfitAmount
		discount += f.DiscountAmount
		if f.Has(RelCustomer) {
			customers.add(f.CustomerID)
		}
		if f.Has(RelProduct) {
			products.add(f.ProductID)
		}
	}
	return DashboardSummary{
		TotalRevenue:    Round2(revenue),
		TotalOrders:     orderCount,
		TotalCustomers:  len(customers),
		TotalProducts:   len(products),
		AvgOrderValue:   Round2(SafeDiv(revenue, float64(orderCount))),
		TotalProfit:     Round2(profit),
		AvgProfitMargin: Round2(SafeDiv(profit, revenue) * percent),
		TotalDiscount:   Round2(discount),
	}
}

func topCustomers(facts []SalesFact) []TopCustomer {
	byCustomer := NewGroupLedger[string]()
	names := map[string]string{}
	for _, f := range Filter(facts, RelCustomer) {
		byCustomer.Touch(f.CustomerID).Add(f)
		if _, ok := names[f.CustomerID]; !ok {
			names[f.CustomerID] = f.CustomerName
		}
	}

	out := make([]TopCustomer, 0, byCustomer.Len())
	byCustomer.Each(func(id string, g *GroupAggregate) {
		out = append(out, TopCustomer{
			CustomerID:    id,
			CustomerName:  names[id],
			TotalRevenue:  Round2(g.TotalSales),
			TotalOrders:   g.OrderCount(),
			AvgOrderValue: Round2(g.AvgOrderValue()),
		})
	})
	SortDesc(out, func(c TopCustomer) float64 { return c.TotalRevenue })
	return TopN(out, dashboardTopN)
}

func topProducts(facts []SalesFact) []TopProduct {
	byProduct := NewGroupLedger[string]()
	heads := map[string]SalesFact{}
	for _, f := range Filter(facts, RelProduct) {
		byProduct.Touch(f.ProductID).Add(f)
		if _, ok := heads[f.ProductID]; !ok {
			heads[f.ProductID] = f
		}
	}

	out := make([]TopProduct, 0, byProduct.Len())
	byProduct.Each(func(id string, g *GroupAggregate) {
		head := heads[id]
		out = append(out, TopProduct{
			ProductID:     id,
			ProductName:   head.ProductName,
			Category:      head.ProductCategory,
			TotalRevenue:  Round2(g.TotalSales),
			TotalQuantity: g.UnitsSold,
		})
	})
	SortDesc(out, func(p TopProduct) float64 { return p.TotalRevenue })
	return TopN(out, dashboardTopN)
}

func salesByCategory(facts []SalesFact) []CategorySales {
	byCategory := NewGroupLedger[string]()
	for _, f := range facts {
		byCategory.Touch(f.ProductCategory).Add(f)
	}

	out := make([]CategorySales, 0, byCategory.Len())
	byCategory.Each(func(category string, g *GroupAggregate) {
		out = append(out, CategorySales{
			Category:      category,
			TotalRevenue:  Round2(g.TotalSales),
			TotalQuantity: g.UnitsSold,
			TotalOrders:   g.OrderCount(),
		})
	})
	SortDesc(out, func(c CategorySales) float64 { return c.TotalRevenue })
	return out
}

func salesByTerritory(facts []SalesFact) []TerritorySales {
	byTerritory := NewGroupLedger[string]()
	names := map[string]string{}
	for _, f := range Filter(facts, RelTerritory) {
		byTerritory.Touch(f.TerritoryID).Add(f)
		if _, ok := names[f.TerritoryID]; !ok {
			names[f.TerritoryID] = f.TerritoryName
		}
	}

	out := make([]TerritorySales, 0, byTerritory.Len())
	byTerritory.Each(func(id string, g *GroupAggregate) {
		out = append(out, TerritorySales{
			TerritoryID:   id,
			TerritoryName: names[id],
			TotalRevenue:  Round2(g.TotalSales),
			TotalProfit:   Round2(g.TotalProfit),
			TotalOrders:   g.OrderCount(),
			ProfitMargin:  Round2(g.ProfitMargin() * percent),
		})
	})
	SortDesc(out, func(t TerritorySales) float64 { return t.TotalRevenue })
	return TopN(out, dashboardTopN)
}

func monthlyTrend(facts []SalesFact) []MonthSales {
	byMonth := NewGroupLedger[monthKey]()
	for _, f := range Filter(facts, RelDate) {
		byMonth.Touch(monthKey{f.OrderDate.Year(), f.OrderDate.Month()}).Add(f)
	}

	out := make([]MonthSales, 0, byMonth.Len())
	byMonth.Each(func(key monthKey, g *GroupAggregate) {
		out = append(out, MonthSales{
			Year:         key.year,
			Month:        int(key.month),
			MonthName:    fmt.Sprintf("%s %d", key.month.String()[:3], key.year),
			TotalRevenue: Round2(g.TotalSales),
			TotalProfit:  Round2(g.TotalProfit),
			TotalOrders:  g.OrderCount(),
			ProfitMargin: Round2(g.ProfitMargin() * percent),
		})
	})
	SortAsc(out, func(m MonthSales) int { return m.Year*100 + m.Month })
	return LastN(out, dashboardMonths)
}

func recentOrders(orders []OrderGroup, now time.Time) []RecentOrder {
	out := make([]RecentOrder, 0, len(orders))
	for _, order := range orders {
		date, ok := order.Date()
		if !ok {
			date = now
		}
		head := order.Head()
		revenue, profit := order.Revenue(), order.Profit()
		out = append(out, RecentOrder{
			OrderNumber:   order.OrderNumber,
			OrderDate:     date.UTC().Format(isoMillisecondTime),
			CustomerName:  head.CustomerName,
			TerritoryName: head.TerritoryName,
			TotalRevenue:  Round2(revenue),
			TotalProfit:   Round2(profit),
			TotalItems:    order.BasketSize(),
			ProfitMargin:  Round2(SafeDiv(profit, revenue) * percent),
			date:          date,
		})
	}
	SortDesc(out, func(o RecentOrder) int64 { return o.date.UnixMilli() })
	return TopN(out, dashboardRecent)
}

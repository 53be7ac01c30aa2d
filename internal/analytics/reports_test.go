package analytics_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/analytics"
)

func TestDashboardEmptyInput(t *testing.T) {
	report := analytics.Dashboard(nil, day(0))

	encoded, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"summary": {
			"total_revenue": 0, "total_orders": 0, "total_customers": 0, "total_products": 0,
			"avg_order_value": 0, "total_profit": 0, "avg_profit_margin": 0, "total_discount": 0
		},
		"topCustomers": [], "topProducts": [], "salesByCategory": [],
		"salesByTerritory": [], "monthlyTrend": [], "recentOrders": []
	}`, string(encoded))
}

func TestDashboardSummary(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "C1", product: "P1", category: "Bikes", territory: "1", amount: 100, profit: 20, qty: 1, date: day(0)},
		line{order: "O1", customer: "C1", product: "P2", category: "Helmets", territory: "1", amount: 50, profit: 5, qty: 2, date: day(0)},
		line{order: "O2", customer: "C2", product: "P1", category: "Bikes", territory: "2", amount: 50, profit: 25, qty: 1, date: day(40)},
	)
	rows[0].DiscountAmount = 7.5

	report := analytics.Dashboard(rows, day(50))

	s := report.Summary
	assert.Equal(t, 200.0, s.TotalRevenue)
	assert.Equal(t, 2, s.TotalOrders)
	assert.Equal(t, 2, s.TotalCustomers)
	assert.Equal(t, 2, s.TotalProducts)
	assert.Equal(t, 100.0, s.AvgOrderValue)
	assert.Equal(t, 50.0, s.TotalProfit)
	assert.Equal(t, 25.0, s.AvgProfitMargin)
	assert.Equal(t, 7.5, s.TotalDiscount)

	require.Len(t, report.TopCustomers, 2)
	assert.Equal(t, "C1", report.TopCustomers[0].CustomerID)
	assert.Equal(t, 1, report.TopCustomers[0].TotalOrders)
	assert.Equal(t, 150.0, report.TopCustomers[0].AvgOrderValue)

	require.Len(t, report.TopProducts, 2)
	assert.Equal(t, "P1", report.TopProducts[0].ProductID)
	assert.Equal(t, 150.0, report.TopProducts[0].TotalRevenue)
	assert.Equal(t, 2, report.TopProducts[0].TotalQuantity)

	require.Len(t, report.SalesByCategory, 2)
	assert.Equal(t, "Bikes", report.SalesByCategory[0].Category)
	assert.Equal(t, 2, report.SalesByCategory[0].TotalOrders)

	require.Len(t, report.SalesByTerritory, 2)
	assert.Equal(t, "1", report.SalesByTerritory[0].TerritoryID)
	assert.Equal(t, 16.67, report.SalesByTerritory[0].ProfitMargin)

	require.Len(t, report.MonthlyTrend, 2)
	assert.Equal(t, "Jan 2003", report.MonthlyTrend[0].MonthName)
	assert.Equal(t, "Feb 2003", report.MonthlyTrend[1].MonthName)

	require.Len(t, report.RecentOrders, 2)
	assert.Equal(t, "O2", report.RecentOrders[0].OrderNumber)
	assert.Equal(t, "2003-02-10T00:00:00.000Z", report.RecentOrders[0].OrderDate)
	assert.Equal(t, 2, report.RecentOrders[1].TotalItems)
	assert.Equal(t, "Customer C1", report.RecentOrders[1].CustomerName)
}

func TestDashboardMonthlyTrendKeepsLastTwelveMonths(t *testing.T) {
	var lines []line
	for m := 0; m < 15; m++ {
		lines = append(lines, line{
			order:  fmt.Sprintf("SO%d", m),
			amount: 10,
			date:   epoch.AddDate(0, m, 0),
		})
	}

	trend := analytics.Dashboard(facts(lines...), epoch).MonthlyTrend

	require.Len(t, trend, 12)
	assert.Equal(t, 2003, trend[0].Year)
	assert.Equal(t, int(time.April), trend[0].Month)
	assert.Equal(t, 2004, trend[11].Year)
	assert.Equal(t, int(time.March), trend[11].Month)
}

func TestDiscountByTerritory(t *testing.T) {
	rows := facts(
		line{order: "O1", territory: "1", amount: 100, profit: 10, rate: 0.1, date: day(0)},
		line{order: "O2", territory: "1", amount: 200, profit: 30, rate: 0.2, date: day(40)},
		line{order: "O3", territory: "2", amount: 500, profit: 100, rate: 0.02, date: day(0)},
		line{order: "O4", amount: 999, rate: 0.5, date: day(0)},
	)

	report := analytics.DiscountByTerritory(rows, nil)

	require.Len(t, report.TerritoryAnalysis, 2)
	top := report.TerritoryAnalysis[0]
	assert.Equal(t, "1", top.TerritoryID)
	assert.Equal(t, 0.1667, top.AvgDiscountRate)
	assert.Equal(t, 50.0, top.TotalDiscount)
	assert.Equal(t, 0.1333, top.AvgProfitMargin)
	assert.Equal(t, 2, top.TotalOrders)
	assert.Equal(t, 150.0, top.AvgOrderValue)
	assert.Equal(t, "US", top.Country)
	assert.Equal(t, analytics.UnknownLabel, top.Region)

	require.NotNil(t, report.HighestDiscount)
	assert.Equal(t, top, *report.HighestDiscount)

	assert.Len(t, report.MonthlyTrend, 3)
	assert.Equal(t, []int{2003}, report.Years)

	require.Len(t, report.DiscountDistribution, len(analytics.DiscountBuckets))
	counts := map[string]int{}
	for _, band := range report.DiscountDistribution {
		counts[band.DiscountRange] = band.Count
	}
	assert.Equal(t, map[string]int{"0-5%": 1, "5-10%": 0, "10-15%": 1, "15-20%": 0, "20%+": 2}, counts)
}

func TestDiscountByTerritoryEmptyInput(t *testing.T) {
	report := analytics.DiscountByTerritory(nil, []int{2003, 2004})

	assert.Empty(t, report.TerritoryAnalysis)
	assert.Nil(t, report.HighestDiscount)
	assert.Equal(t, []int{2003, 2004}, report.Years)
	assert.Len(t, report.DiscountDistribution, 5)
}

func TestInventoryTurnover(t *testing.T) {
	rows := facts(
		line{order: "O1", product: "1", category: "Bikes", qty: 10},
		line{order: "O2", product: "1", category: "Bikes", qty: 10},
		line{order: "O3", product: "2", category: "Helmets", qty: 5},
		line{order: "O4", qty: 99},
	)
	inventory := analytics.NormalizeInventoryAll([]analytics.RawInventory{
		{ProductID: "1", AvgQty: ptr(40.0), Product: &analytics.ProductAttrs{Name: "Road-150", Category: ptr("Bikes")}},
		{ProductID: "3", AvgQty: ptr(10.0), Product: &analytics.ProductAttrs{Name: "Jersey", Category: ptr("Clothing")}},
	})

	report := analytics.InventoryTurnover(rows, inventory)

	require.Len(t, report.Categories, 3)
	bikes := report.Categories[0]
	assert.Equal(t, "Bikes", bikes.Category)
	require.NotNil(t, bikes.TurnoverRatio)
	assert.Equal(t, 0.5, *bikes.TurnoverRatio)
	require.NotNil(t, bikes.DaysToSell)
	assert.Equal(t, 730.0, *bikes.DaysToSell)
	assert.Equal(t, 1, bikes.TotalProducts)

	clothing := report.Categories[1]
	assert.Equal(t, "Clothing", clothing.Category)
	assert.Equal(t, 0.0, *clothing.TurnoverRatio)
	assert.Nil(t, clothing.DaysToSell)

	helmets := report.Categories[2]
	assert.Equal(t, "Helmets", helmets.Category)
	assert.Nil(t, helmets.TurnoverRatio, "no inventory means no ratio")

	require.Len(t, report.Products, 3)
	assert.Equal(t, "1", report.Products[0].ProductID)
	assert.Equal(t, "Jersey", report.Products[1].ProductName)
	assert.Equal(t, "2", report.Products[2].ProductID)

	require.NotNil(t, report.Summary)
	assert.Equal(t, 2, report.Summary.TotalCategories)
	assert.Equal(t, 0.25, report.Summary.OverallTurnover)
}

func TestInventoryTurnoverEmptyInput(t *testing.T) {
	report := analytics.InventoryTurnover(nil, nil)

	assert.Nil(t, report.Summary)
	assert.NotNil(t, report.Categories)
	assert.NotNil(t, report.Products)
}

func TestPurchaseFrequency(t *testing.T) {
	rows := facts(
		// Retail: one customer, three orders in 2003, small tickets.
		line{order: "O1", customer: "C1", segment: "Retail", amount: 10, date: day(0)},
		line{order: "O2", customer: "C1", segment: "Retail", amount: 10, date: day(30)},
		line{order: "O3", customer: "C1", segment: "Retail", amount: 10, date: day(60)},
		// Wholesale: one customer in two years, one large order each.
		line{order: "O4", customer: "C2", segment: "Wholesale", amount: 500, date: day(0)},
		line{order: "O5", customer: "C2", segment: "Wholesale", amount: 500, date: day(400)},
		line{order: "O6", segment: "Wholesale", amount: 1000, date: day(0)},
	)

	report := analytics.PurchaseFrequency(rows)

	require.NotNil(t, report.Overall)
	assert.Equal(t, 1.67, report.Overall.AvgFrequencyPerCustomerPerYear)
	assert.Equal(t, 206.0, report.Overall.AvgTicketSize)

	require.Len(t, report.Segments, 2)
	retail := report.Segments[0]
	assert.Equal(t, "Retail", retail.Segment)
	assert.Equal(t, 1, retail.CustomerYears)
	assert.Equal(t, 3, retail.TotalOrders)
	assert.Equal(t, 3.0, retail.AvgFrequencyPerCustomerPerYear)
	assert.Equal(t, 10.0, retail.AvgTicketSize)
	assert.True(t, retail.IsHighFreqLowTicket)

	wholesale := report.Segments[1]
	assert.Equal(t, 2, wholesale.CustomerYears)
	assert.Equal(t, 1.0, wholesale.AvgFrequencyPerCustomerPerYear)
	assert.False(t, wholesale.IsHighFreqLowTicket)
}

func TestPurchaseFrequencyEmptyInput(t *testing.T) {
	report := analytics.PurchaseFrequency(facts(line{order: "O1", amount: 5}))

	assert.Nil(t, report.Overall)
	assert.NotNil(t, report.Segments)
}

func TestSalespersonRetention(t *testing.T) {
	rows := facts(
		line{order: "O1", salesperson: "S1", customer: "C1", amount: 10},
		line{order: "O2", salesperson: "S1", customer: "C1", amount: 10},
		line{order: "O3", salesperson: "S1", customer: "C2", amount: 10},
		line{order: "O3", salesperson: "S1", customer: "C2", amount: 10},
		line{order: "O4", salesperson: "S2", customer: "C3", amount: 100},
		line{order: "O5", salesperson: "S2", customer: "C3", amount: 100},
		line{order: "O6", customer: "C4", amount: 100},
	)

	report := analytics.SalespersonRetentionReport(rows)

	require.Len(t, report.Salespersons, 2)
	assert.Equal(t, "S2", report.Salespersons[0].SalespersonID)
	assert.Equal(t, 1.0, report.Salespersons[0].RetentionRate)
	s1 := report.Salespersons[1]
	assert.Equal(t, "Rep S1", s1.SalespersonName)
	assert.Equal(t, 2, s1.TotalCustomers)
	assert.Equal(t, 1, s1.RepeatCustomers, "two lines of one order are not a repeat")
	assert.Equal(t, 0.5, s1.RetentionRate)
	assert.Equal(t, 40.0, s1.TotalSales)

	require.NotNil(t, report.Summary)
	assert.Equal(t, 2, report.Summary.TotalSalespersons)
	assert.Equal(t, 0.6667, report.Summary.OverallRetention)
	assert.Equal(t, 0.75, report.Summary.AvgRetentionRate)
	require.NotNil(t, report.Summary.BestRetention)
	assert.Equal(t, "S2", report.Summary.BestRetention.SalespersonID)
}

func TestSalespersonRetentionEmptyInput(t *testing.T) {
	report := analytics.SalespersonRetentionReport(nil)

	assert.Nil(t, report.Summary)
	assert.NotNil(t, report.Salespersons)
}

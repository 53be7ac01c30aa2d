package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// GroupAggregate accumulates sales, profit and discount figures for one
// grouping key (territory, category, product, month).
type GroupAggregate struct {
	TotalSales  float64
	TotalProfit float64
	// TotalDiscount is sales × rate computed per row, not the stored amount.
	TotalDiscount float64
	UnitsSold     int
	InventoryQty  float64

	discountWeightedSum float64
	discountWeight      float64
	orders              set
	products            set
}

// NewGroupAggregate returns an empty accumulator.
func NewGroupAggregate() *GroupAggregate {
	return &GroupAggregate{orders: set{}, products: set{}}
}

// NewGroupLedger returns a ledger that creates GroupAggregate values on first touch.
func NewGroupLedger[K comparable]() *Ledger[K, GroupAggregate] {
	return NewLedger(func(K) *GroupAggregate { return NewGroupAggregate() })
}

// Add folds one sales fact into the aggregate.
func (g *GroupAggregate) Add(f SalesFact) {
	g.TotalSales += f.SalesAmount
	g.TotalProfit += f.ProfitAmount
	g.TotalDiscount += f.SalesAmount * f.DiscountRate
	g.UnitsSold += f.OrderQuantity
	g.discountWeightedSum += f.DiscountRate * f.SalesAmount
	g.discountWeight += f.SalesAmount
	g.orders.add(f.OrderNumber)
	if f.Has(RelProduct) {
		g.products.add(f.ProductID)
	}
}

// AddInventory folds an inventory snapshot quantity into the aggregate.
func (g *GroupAggregate) AddInventory(qty float64) {
	g.InventoryQty += qty
}

// AvgDiscountRate is the sales-weighted mean discount rate, 0 without sales.
func (g *GroupAggregate) AvgDiscountRate() float64 {
	return SafeDiv(g.discountWeightedSum, g.discountWeight)
}

// ProfitMargin is profit over sales as a fraction, 0 without sales.
func (g *GroupAggregate) ProfitMargin() float64 {
	return SafeDiv(g.TotalProfit, g.TotalSales)
}

// OrderCount is the number of distinct orders folded in.
func (g *GroupAggregate) OrderCount() int {
	return len(g.orders)
}

// ProductCount is the number of distinct products folded in.
func (g *GroupAggregate) ProductCount() int {
	return len(g.products)
}

// AvgOrderValue is sales per distinct order.
func (g *GroupAggregate) AvgOrderValue() float64 {
	return SafeDiv(g.TotalSales, float64(g.OrderCount()))
}

// Turnover is units sold over inventory quantity. It is nil when there is no
// inventory, never infinite.
func (g *GroupAggregate) Turnover() *float64 {
	if g.InventoryQty == 0 {
		return nil
	}
	v := float64(g.UnitsSold) / g.InventoryQty
	return &v
}

// DiscountBucket is one fixed discount-rate band.
type DiscountBucket struct {
	Label string
	// Lower bound in percent, inclusive.
	Min int64
}

// DiscountBuckets are the fixed bands [0,5) [5,10) [10,15) [15,20) [20,∞).
var DiscountBuckets = []DiscountBucket{
	{Label: "0-5%", Min: 0},
	{Label: "5-10%", Min: 5},
	{Label: "10-15%", Min: 10},
	{Label: "15-20%", Min: 15},
	{Label: "20%+", Min: 20},
}

// DiscountBucketFor returns the index into DiscountBuckets for a discount rate
// expressed as a fraction. Negative rates fall into the first band.
func DiscountBucketFor(rate float64) int {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	pct := decimal.NewFromFloat(rate).Shift(2)
	for i := len(DiscountBuckets) - 1; i > 0; i-- {
		if pct.GreaterThanOrEqual(decimal.NewFromInt(DiscountBuckets[i].Min)) {
			return i
		}
	}
	return 0
}

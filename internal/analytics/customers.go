package analytics

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"time"
)

const (
	// clvHorizonYears is the projection window for customer lifetime value.
	clvHorizonYears = 3
	// minLifespanYears clamps short-lived customers to a one year lifespan.
	minLifespanYears = 1.0

	hoursPerDay = 24
	daysPerYear = 365
)

// CustomerMetrics are the per-customer totals and the values derived from them.
type CustomerMetrics struct {
	CustomerID      string
	CustomerName    string
	CustomerSegment string

	TotalRevenue   float64
	TotalProfit    float64
	OrderCount     int
	FirstOrderDate time.Time
	LastOrderDate  time.Time

	AvgOrderValue        float64
	DaysActive           int
	AvgDaysBetweenOrders float64
	DaysSinceLastOrder   int
	CLV                  float64

	RFMRecency   int
	RFMFrequency int
	RFMMonetary  int
	RFMScore     string
	RFMSegment   string

	orders set
}

// OrderNumbers returns the distinct orders folded into the customer.
func (c *CustomerMetrics) OrderNumbers() []string {
	out := make([]string, 0, len(c.orders))
	for o := range c.orders {
		out = append(out, o)
	}
	return out
}

// FoldCustomers accumulates running totals per customer. Rows without a
// customer relation are skipped. Rows without a date still count towards the
// totals but never move the first/last order dates. The result is ordered by
// CompareCustomerKeys.
func FoldCustomers(facts []SalesFact) []*CustomerMetrics {
	ledger := NewLedger(func(id string) *CustomerMetrics {
		return &CustomerMetrics{CustomerID: id, orders: set{}}
	})

	for _, f := range facts {
		if !f.Has(RelCustomer) {
			continue
		}
		c := ledger.Touch(f.CustomerID)
		if c.CustomerName == "" {
			c.CustomerName = f.CustomerName
			c.CustomerSegment = f.CustomerSegment
		}
		c.TotalRevenue += f.SalesAmount
		c.TotalProfit += f.ProfitAmount
		c.orders.add(f.OrderNumber)

		if !f.Has(RelDate) {
			continue
		}
		if c.FirstOrderDate.IsZero() || f.OrderDate.Before(c.FirstOrderDate) {
			c.FirstOrderDate = f.OrderDate
		}
		if c.LastOrderDate.IsZero() || f.OrderDate.After(c.LastOrderDate) {
			c.LastOrderDate = f.OrderDate
		}
	}

	customers := make([]*CustomerMetrics, 0, ledger.Len())
	ledger.Each(func(_ string, c *CustomerMetrics) {
		c.OrderCount = len(c.orders)
		customers = append(customers, c)
	})
	slices.SortStableFunc(customers, func(a, b *CustomerMetrics) int {
		return CompareCustomerKeys(a.CustomerID, b.CustomerID)
	})
	return customers
}

// CompareCustomerKeys is the enumeration order of the customer table that
// RFM ranks and CLV ties fall back to: canonical non-negative integer ids
// come first in ascending order, every other id compares equal and keeps
// its first-seen position under a stable sort.
func CompareCustomerKeys(a, b string) int {
	ai, aok := indexKey(a)
	bi, bok := indexKey(b)
	switch {
	case aok && bok:
		return cmp.Compare(ai, bi)
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}

// indexKey reports whether id is a canonical array index ("0", "17" but not
// "017" or "-1") and returns its value.
func indexKey(id string) (uint64, bool) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == math.MaxUint32 || strconv.FormatUint(n, 10) != id {
		return 0, false
	}
	return n, true
}

// AggregateCustomers folds facts per customer and derives order value,
// cadence, recency and lifetime value relative to now. Only rows carrying
// both a customer and a date take part.
func AggregateCustomers(facts []SalesFact, now time.Time) []*CustomerMetrics {
	customers := FoldCustomers(Filter(facts, RelCustomer|RelDate))
	for _, c := range customers {
		deriveLifetimeValue(c, now)
	}
	return customers
}

func deriveLifetimeValue(c *CustomerMetrics, now time.Time) {
	orderCount := float64(c.OrderCount)
	avgOrderValue := SafeDiv(c.TotalRevenue, orderCount)

	c.DaysActive = wholeDays(c.LastOrderDate.Sub(c.FirstOrderDate))
	avgDaysBetween := 0.0
	if c.OrderCount > 1 {
		avgDaysBetween = float64(c.DaysActive) / (orderCount - 1)
	}
	c.DaysSinceLastOrder = wholeDays(now.Sub(c.LastOrderDate))

	lifespanYears := max(float64(c.DaysActive)/daysPerYear, minLifespanYears)
	purchaseFrequencyPerYear := orderCount / lifespanYears

	c.AvgOrderValue = Round2(avgOrderValue)
	c.AvgDaysBetweenOrders = Round1(avgDaysBetween)
	c.CLV = Round2(avgOrderValue * purchaseFrequencyPerYear * clvHorizonYears)
}

// wholeDays floors a duration to whole days.
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / hoursPerDay))
}

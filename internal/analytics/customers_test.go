package analytics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/analytics"
)

func TestAggregateCustomersTwoOrders(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "C1", product: "P1", amount: 100, date: day(0)},
		line{order: "O1", customer: "C1", product: "P2", amount: 50, date: day(0)},
		line{order: "O2", customer: "C1", product: "P1", amount: 80, date: day(10)},
	)

	customers := analytics.AggregateCustomers(rows, day(20))

	require.Len(t, customers, 1)
	c := customers[0]
	assert.Equal(t, "C1", c.CustomerID)
	assert.Equal(t, 2, c.OrderCount)
	assert.Equal(t, 230.0, c.TotalRevenue)
	assert.Equal(t, 115.0, c.AvgOrderValue)
	assert.Equal(t, 10, c.DaysActive)
	assert.Equal(t, 10.0, c.AvgDaysBetweenOrders)
	assert.Equal(t, 10, c.DaysSinceLastOrder)
	// lifespan clamps to one year: 115 * 2 * 3
	assert.Equal(t, 690.0, c.CLV)
}

func TestAggregateCustomersSingleOrderClampsLifespan(t *testing.T) {
	rows := facts(line{order: "O1", customer: "C1", amount: 120, date: day(0)})

	customers := analytics.AggregateCustomers(rows, day(400))

	require.Len(t, customers, 1)
	c := customers[0]
	assert.Equal(t, 400, c.DaysSinceLastOrder)
	assert.Equal(t, 0.0, c.AvgDaysBetweenOrders)
	assert.Equal(t, 1, c.OrderCount)
	assert.Equal(t, 120.0*1*3, c.CLV)
}

func TestAggregateCustomersLongLifespan(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "C1", amount: 100, date: day(0)},
		line{order: "O2", customer: "C1", amount: 100, date: day(730)},
	)

	c := analytics.AggregateCustomers(rows, day(730))[0]

	// two years active: 100 * (2/2) * 3
	assert.Equal(t, 300.0, c.CLV)
	assert.Equal(t, 730.0, c.AvgDaysBetweenOrders)
	assert.Equal(t, 0, c.DaysSinceLastOrder)
}

func TestAggregateCustomersSkipsRowsWithoutCustomerOrDate(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "C1", amount: 10, date: day(0)},
		line{order: "O2", amount: 99, date: day(0)},
		line{order: "O3", customer: "C2", amount: 99},
	)

	customers := analytics.AggregateCustomers(rows, day(1))

	require.Len(t, customers, 1)
	assert.Equal(t, "C1", customers[0].CustomerID)
	assert.Equal(t, 10.0, customers[0].TotalRevenue)
}

func TestAggregateCustomersOrderRevenueMatchesTotal(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "C1", amount: 10.25, date: day(0)},
		line{order: "O1", customer: "C1", amount: 4.75, date: day(0)},
		line{order: "O2", customer: "C2", amount: 7, date: day(1)},
		line{order: "O3", customer: "C1", amount: 3.5, date: day(5)},
		line{order: "O4", customer: "C2", amount: 1.5, date: day(9)},
	)

	orders := analytics.GroupOrders(rows)
	revenueByOrder := map[string]float64{}
	for _, o := range orders {
		revenueByOrder[o.OrderNumber] = o.Revenue()
	}

	for _, c := range analytics.AggregateCustomers(rows, day(10)) {
		var sum float64
		for _, orderNumber := range c.OrderNumbers() {
			sum += revenueByOrder[orderNumber]
		}
		assert.InDelta(t, c.TotalRevenue, sum, 1e-9, "customer %s", c.CustomerID)
	}
}

func TestAggregateCustomersIsIdempotent(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "C1", amount: 100, date: day(0)},
		line{order: "O2", customer: "C2", amount: 50, date: day(3)},
		line{order: "O3", customer: "C1", amount: 70, date: day(30)},
	)

	first, err := json.Marshal(analytics.CustomerValue(rows, day(60)))
	require.NoError(t, err)
	second, err := json.Marshal(analytics.CustomerValue(rows, day(60)))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestCustomerValueEmptyInput(t *testing.T) {
	report := analytics.CustomerValue(nil, day(0))

	assert.Nil(t, report.Summary)
	assert.Empty(t, report.Segments)
	assert.Empty(t, report.Customers)

	encoded, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":null,"segments":[],"customers":[]}`, string(encoded))
}

func TestCustomerValueSummaryAndSegments(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "C1", amount: 300, profit: 30, date: day(0)},
		line{order: "O2", customer: "C1", amount: 300, profit: 30, date: day(50)},
		line{order: "O3", customer: "C2", amount: 100, profit: 10, date: day(10)},
	)

	report := analytics.CustomerValue(rows, day(100))

	require.NotNil(t, report.Summary)
	assert.Equal(t, 2, report.Summary.TotalCustomers)
	assert.Equal(t, 700.0, report.Summary.TotalRevenue)
	assert.Equal(t, 70.0, report.Summary.TotalProfit)
	assert.Equal(t, 1.5, report.Summary.AvgPurchaseFrequency)
	assert.Equal(t, 70.0, report.Summary.AvgDaysSinceLastOrder)

	var total float64
	for _, s := range report.Segments {
		total += s.Percentage
	}
	assert.InDelta(t, 100.0, total, 0.2)

	require.Len(t, report.Customers, 2)
	assert.Equal(t, "C1", report.Customers[0].CustomerID)
	assert.GreaterOrEqual(t, report.Customers[0].CLV, report.Customers[1].CLV)
}

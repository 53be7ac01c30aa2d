package analytics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/analytics"
)

func TestGroupAggregateWeightedDiscount(t *testing.T) {
	g := analytics.NewGroupAggregate()
	for _, f := range facts(
		line{order: "O1", territory: "1", amount: 100, profit: 10, rate: 0.1, qty: 1},
		line{order: "O2", territory: "1", amount: 200, profit: 50, rate: 0.2, qty: 3},
	) {
		g.Add(f)
	}

	assert.Equal(t, 0.1667, analytics.Round4(g.AvgDiscountRate()))
	assert.InDelta(t, 50.0, g.TotalDiscount, 1e-9)
	assert.InDelta(t, 60.0/300.0, g.ProfitMargin(), 1e-12)
	assert.Equal(t, 2, g.OrderCount())
	assert.Equal(t, 4, g.UnitsSold)
	assert.Equal(t, 150.0, g.AvgOrderValue())
}

func TestGroupAggregateWeightedDiscountIsBounded(t *testing.T) {
	testCases := []struct {
		name  string
		lines []line
	}{
		{
			name: "mixed rates",
			lines: []line{
				{order: "O1", amount: 10, rate: 0.02},
				{order: "O2", amount: 9000, rate: 0.15},
				{order: "O3", amount: 1, rate: 0.4},
			},
		},
		{
			name: "single rate",
			lines: []line{
				{order: "O1", amount: 10, rate: 0.05},
				{order: "O2", amount: 20, rate: 0.05},
			},
		},
		{
			name: "zero sales",
			lines: []line{
				{order: "O1", amount: 0, rate: 0.3},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := analytics.NewGroupAggregate()
			maxRate := 0.0
			for _, f := range facts(tc.lines...) {
				g.Add(f)
				maxRate = math.Max(maxRate, f.DiscountRate)
			}
			avg := g.AvgDiscountRate()
			assert.GreaterOrEqual(t, avg, 0.0)
			assert.LessOrEqual(t, avg, maxRate+1e-12)
		})
	}
}

func TestGroupAggregateDivideByZero(t *testing.T) {
	g := analytics.NewGroupAggregate()

	assert.Zero(t, g.AvgDiscountRate())
	assert.Zero(t, g.ProfitMargin())
	assert.Zero(t, g.AvgOrderValue())
	assert.Nil(t, g.Turnover())

	g.Add(facts(line{order: "O1", qty: 4})[0])
	assert.Nil(t, g.Turnover(), "no inventory yields no ratio")

	g.AddInventory(8)
	require.NotNil(t, g.Turnover())
	assert.Equal(t, 0.5, *g.Turnover())
}

func TestDiscountBucketFor(t *testing.T) {
	testCases := []struct {
		rate     float64
		expected string
	}{
		{0, "0-5%"},
		{-0.01, "0-5%"},
		{0.0499, "0-5%"},
		{0.05, "5-10%"},
		{0.0999, "5-10%"},
		{0.1, "10-15%"},
		{0.15, "15-20%"},
		{0.2, "20%+"},
		{0.75, "20%+"},
		{math.NaN(), "0-5%"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			i := analytics.DiscountBucketFor(tc.rate)
			assert.Equal(t, tc.expected, analytics.DiscountBuckets[i].Label)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.01, analytics.Round2(1.005))
	assert.Equal(t, -1.01, analytics.Round2(-1.005))
	assert.Equal(t, 0.1667, analytics.Round4(1.0/6.0))
	assert.Equal(t, 12.3, analytics.Round1(12.25))
	assert.Zero(t, analytics.Round2(math.Inf(1)))
	assert.Zero(t, analytics.Round2(math.NaN()))
}

func TestTopNAndLastN(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, analytics.TopN(items, 2))
	assert.Equal(t, []int{4, 5}, analytics.LastN(items, 2))
	assert.Equal(t, items, analytics.TopN(items, 10))
	assert.Equal(t, items, analytics.LastN(items, 0))
}

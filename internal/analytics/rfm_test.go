package analytics_test

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/analytics"
)

func TestQuintile(t *testing.T) {
	testCases := []struct {
		rank, n, expected int
	}{
		{0, 1, 5},
		{0, 5, 1},
		{4, 5, 5},
		{0, 10, 1},
		{1, 10, 1},
		{2, 10, 2},
		{9, 10, 5},
		{0, 3, 2},
		{1, 3, 4},
		{2, 3, 5},
		{0, 0, 1},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("rank %d of %d", tc.rank, tc.n), func(t *testing.T) {
			assert.Equal(t, tc.expected, analytics.Quintile(tc.rank, tc.n))
		})
	}
}

func TestSegmentFor(t *testing.T) {
	testCases := []struct {
		r, f, m  int
		expected string
	}{
		{5, 5, 5, analytics.SegmentChampions},
		{4, 4, 4, analytics.SegmentChampions},
		{3, 3, 3, analytics.SegmentLoyalCustomers},
		{5, 3, 4, analytics.SegmentLoyalCustomers},
		{5, 1, 1, analytics.SegmentNewCustomers},
		{3, 2, 5, analytics.SegmentPromising},
		{2, 5, 5, analytics.SegmentAtRisk},
		// At Risk matches before Cannot Lose Them can.
		{1, 5, 5, analytics.SegmentAtRisk},
		{2, 3, 3, analytics.SegmentNeedAttention},
		{1, 1, 1, analytics.SegmentLost},
		{3, 4, 1, analytics.SegmentPotentialLoyalist},
		{3, 1, 1, analytics.SegmentOthers},
		{1, 2, 5, analytics.SegmentOthers},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d%d%d", tc.r, tc.f, tc.m), func(t *testing.T) {
			assert.Equal(t, tc.expected, analytics.SegmentFor(tc.r, tc.f, tc.m))
		})
	}
}

func TestScoreRFMBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var lines []line
	for i := 0; i < 300; i++ {
		lines = append(lines, line{
			order:    fmt.Sprintf("SO%d", i),
			customer: fmt.Sprintf("C%d", rng.Intn(60)),
			amount:   float64(rng.Intn(5000)) / 3,
			date:     day(rng.Intn(900)),
		})
	}

	customers := analytics.AggregateCustomers(facts(lines...), day(1000))
	analytics.ScoreRFM(customers)

	require.NotEmpty(t, customers)
	for _, c := range customers {
		for _, score := range []int{c.RFMRecency, c.RFMFrequency, c.RFMMonetary} {
			assert.GreaterOrEqual(t, score, 1)
			assert.LessOrEqual(t, score, 5)
		}
		assert.Len(t, c.RFMScore, 3)
		assert.Equal(t, fmt.Sprintf("%d%d%d", c.RFMRecency, c.RFMFrequency, c.RFMMonetary), c.RFMScore)
		assert.NotEmpty(t, c.RFMSegment)
	}
}

func TestScoreRFMTiesKeepInputOrder(t *testing.T) {
	var lines []line
	for i := 0; i < 5; i++ {
		lines = append(lines, line{
			order:    fmt.Sprintf("SO%d", i),
			customer: fmt.Sprintf("C%d", i),
			amount:   100,
			date:     day(0),
		})
	}

	customers := analytics.AggregateCustomers(facts(lines...), day(10))
	analytics.ScoreRFM(customers)

	for i, c := range customers {
		assert.Equal(t, fmt.Sprintf("C%d", i), c.CustomerID)
		assert.Equal(t, i+1, c.RFMRecency, c.CustomerID)
		assert.Equal(t, i+1, c.RFMFrequency, c.CustomerID)
		assert.Equal(t, i+1, c.RFMMonetary, c.CustomerID)
	}
}

func TestScoreRFMTiesFollowNumericCustomerIDs(t *testing.T) {
	rows := facts(
		line{order: "SO1", customer: "10", amount: 100, date: day(0)},
		line{order: "SO2", customer: "2", amount: 100, date: day(0)},
	)

	customers := analytics.AggregateCustomers(rows, day(10))
	analytics.ScoreRFM(customers)

	require.Len(t, customers, 2)
	assert.Equal(t, "2", customers[0].CustomerID)
	assert.Equal(t, "333", customers[0].RFMScore)
	assert.Equal(t, "10", customers[1].CustomerID)
	assert.Equal(t, "555", customers[1].RFMScore)
}

func TestCompareCustomerKeys(t *testing.T) {
	ids := []string{"C9", "10", "017", "2", "A1", "-1", "0"}
	slices.SortStableFunc(ids, analytics.CompareCustomerKeys)

	assert.Equal(t, []string{"0", "2", "10", "C9", "017", "A1", "-1"}, ids)
}

func TestScoreRFMRanksByValue(t *testing.T) {
	rows := facts(
		line{order: "O1", customer: "stale", amount: 10, date: day(0)},
		line{order: "O2", customer: "fresh", amount: 10, date: day(90)},
		line{order: "O3", customer: "fresh", amount: 10, date: day(95)},
		line{order: "O4", customer: "big", amount: 1000, date: day(50)},
	)

	customers := analytics.AggregateCustomers(rows, day(100))
	analytics.ScoreRFM(customers)

	byID := map[string]*analytics.CustomerMetrics{}
	for _, c := range customers {
		byID[c.CustomerID] = c
	}
	assert.Equal(t, 2, byID["fresh"].RFMRecency)
	assert.Equal(t, 5, byID["stale"].RFMRecency)
	assert.Equal(t, 2, byID["fresh"].RFMFrequency)
	assert.Equal(t, 2, byID["big"].RFMMonetary)
}

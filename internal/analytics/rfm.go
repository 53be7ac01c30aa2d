package analytics

import (
	"fmt"
	"slices"
	"time"
)

// RFM segment labels.
const (
	SegmentChampions         = "Champions"
	SegmentLoyalCustomers    = "Loyal Customers"
	SegmentNewCustomers      = "New Customers"
	SegmentPromising         = "Promising"
	SegmentAtRisk            = "At Risk"
	SegmentNeedAttention     = "Need Attention"
	SegmentCannotLoseThem    = "Cannot Lose Them"
	SegmentLost              = "Lost"
	SegmentPotentialLoyalist = "Potential Loyalist"
	SegmentOthers            = "Others"
)

const (
	quintiles = 5

	topCustomersByCLV = 100
)

type scoreBound struct {
	min, max int
}

var (
	atLeast = func(n int) scoreBound { return scoreBound{min: n, max: quintiles} }
	atMost  = func(n int) scoreBound { return scoreBound{min: 1, max: n} }
)

func (b scoreBound) contains(v int) bool {
	return v >= b.min && v <= b.max
}

// segmentRules is evaluated top to bottom; the first matching rule wins.
var segmentRules = []struct {
	label   string
	r, f, m scoreBound
}{
	{SegmentChampions, atLeast(4), atLeast(4), atLeast(4)},
	{SegmentLoyalCustomers, atLeast(3), atLeast(3), atLeast(3)},
	{SegmentNewCustomers, atLeast(4), atMost(2), atMost(2)},
	{SegmentPromising, atLeast(3), atMost(2), atLeast(3)},
	{SegmentAtRisk, atMost(2), atLeast(4), atLeast(4)},
	{SegmentNeedAttention, atMost(2), atLeast(3), atLeast(3)},
	{SegmentCannotLoseThem, atMost(1), atLeast(4), atLeast(4)},
	{SegmentLost, atMost(2), atMost(2), atMost(2)},
	{SegmentPotentialLoyalist, atLeast(3), atLeast(3), atMost(2)},
}

// SegmentFor maps three component scores to a segment label.
func SegmentFor(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.r.contains(r) && rule.f.contains(f) && rule.m.contains(m) {
			return rule.label
		}
	}
	return SegmentOthers
}

// Quintile converts a zero-based rank among n customers into a 1..5 score.
// Populations are split into five equal-size rank buckets regardless of how
// the underlying values cluster.
func Quintile(rank, n int) int {
	if n <= 0 {
		return 1
	}
	// ceil((rank+1)/n * 5) in integer arithmetic
	q := ((rank+1)*quintiles + n - 1) / n
	return min(max(q, 1), quintiles)
}

// ScoreRFM assigns recency, frequency and monetary quintiles plus the
// composite score and segment to every customer. Rankings are stable: equal
// values keep the order of the input slice, which FoldCustomers leaves in
// CompareCustomerKeys order.
func ScoreRFM(customers []*CustomerMetrics) {
	n := len(customers)
	if n == 0 {
		return
	}

	recency := rankOf(customers, func(a, b *CustomerMetrics) bool {
		return a.DaysSinceLastOrder < b.DaysSinceLastOrder
	})
	frequency := rankOf(customers, func(a, b *CustomerMetrics) bool {
		return a.OrderCount > b.OrderCount
	})
	monetary := rankOf(customers, func(a, b *CustomerMetrics) bool {
		return a.TotalRevenue > b.TotalRevenue
	})

	for i, c := range customers {
		c.RFMRecency = Quintile(recency[i], n)
		c.RFMFrequency = Quintile(frequency[i], n)
		c.RFMMonetary = Quintile(monetary[i], n)
		c.RFMScore = fmt.Sprintf("%d%d%d", c.RFMRecency, c.RFMFrequency, c.RFMMonetary)
		c.RFMSegment = SegmentFor(c.RFMRecency, c.RFMFrequency, c.RFMMonetary)
	}
}

// rankOf returns, for each position in customers, its zero-based position
// after a stable sort by less.
func rankOf(customers []*CustomerMetrics, less func(a, b *CustomerMetrics) bool) []int {
	order := make([]int, len(customers))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case less(customers[a], customers[b]):
			return -1
		case less(customers[b], customers[a]):
			return 1
		}
		return 0
	})

	ranks := make([]int, len(customers))
	for rank, idx := range order {
		ranks[idx] = rank
	}
	return ranks
}

// CustomerValueSummary aggregates the whole customer population.
type CustomerValueSummary struct {
	TotalCustomers        int     `json:"total_customers"`
	TotalRevenue          float64 `json:"total_revenue"`
	TotalProfit           float64 `json:"total_profit"`
	AvgCLV                float64 `json:"avg_clv"`
	AvgOrderValue         float64 `json:"avg_order_value"`
	AvgPurchaseFrequency  float64 `json:"avg_purchase_frequency"`
	AvgDaysSinceLastOrder float64 `json:"avg_days_since_last_order"`
}

// SegmentSummary describes one RFM segment.
type SegmentSummary struct {
	Segment       string  `json:"segment"`
	CustomerCount int     `json:"customer_count"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgCLV        float64 `json:"avg_clv"`
	Percentage    float64 `json:"percentage"`
}

// CustomerValueRow is one customer in the lifetime value ranking.
type CustomerValueRow struct {
	CustomerID         string  `json:"customer_id"`
	CustomerName       string  `json:"customer_name"`
	CustomerSegment    string  `json:"customer_segment"`
	TotalRevenue       float64 `json:"total_revenue"`
	TotalProfit        float64 `json:"total_profit"`
	OrderCount         int     `json:"order_count"`
	AvgOrderValue      float64 `json:"avg_order_value"`
	DaysSinceLastOrder int     `json:"days_since_last_order"`
	CLV                float64 `json:"clv"`
	RFMScore           string  `json:"rfm_score"`
	RFMSegment         string  `json:"rfm_segment"`
}

// CustomerValueReport is the CLV/RFM report. Summary is nil for empty input.
type CustomerValueReport struct {
	Summary   *CustomerValueSummary `json:"summary"`
	Segments  []SegmentSummary      `json:"segments"`
	Customers []CustomerValueRow    `json:"customers"`
}

// CustomerValue builds the lifetime value and RFM segmentation report.
func CustomerValue(facts []SalesFact, now time.Time) CustomerValueReport {
	customers := AggregateCustomers(facts, now)
	if len(customers) == 0 {
		return CustomerValueReport{Segments: []SegmentSummary{}, Customers: []CustomerValueRow{}}
	}
	ScoreRFM(customers)

	n := float64(len(customers))
	var revenue, profit, clv, aov, orders, recency float64
	for _, c := range customers {
		revenue += c.TotalRevenue
		profit += c.TotalProfit
		clv += c.CLV
		aov += c.AvgOrderValue
		orders += float64(c.OrderCount)
		recency += float64(c.DaysSinceLastOrder)
	}

	summary := &CustomerValueSummary{
		TotalCustomers:        len(customers),
		TotalRevenue:          Round2(revenue),
		TotalProfit:           Round2(profit),
		AvgCLV:                Round2(clv / n),
		AvgOrderValue:         Round2(aov / n),
		AvgPurchaseFrequency:  Round2(orders / n),
		AvgDaysSinceLastOrder: Round1(recency / n),
	}

	type segmentAcc struct {
		count          int
		revenue, value float64
	}
	bySegment := NewLedger[string, segmentAcc](nil)
	for _, c := range customers {
		acc := bySegment.Touch(c.RFMSegment)
		acc.count++
		acc.revenue += c.TotalRevenue
		acc.value += c.CLV
	}
	segments := make([]SegmentSummary, 0, bySegment.Len())
	bySegment.Each(func(label string, acc *segmentAcc) {
		segments = append(segments, SegmentSummary{
			Segment:       label,
			CustomerCount: acc.count,
			TotalRevenue:  Round2(acc.revenue),
			AvgCLV:        Round2(acc.value / float64(acc.count)),
			Percentage:    Round1(float64(acc.count) / n * 100),
		})
	})
	SortDesc(segments, func(s SegmentSummary) int { return s.CustomerCount })

	ranked := make([]*CustomerMetrics, len(customers))
	copy(ranked, customers)
	SortDesc(ranked, func(c *CustomerMetrics) float64 { return c.CLV })
	ranked = TopN(ranked, topCustomersByCLV)

	rows := make([]CustomerValueRow, len(ranked))
	for i, c := range ranked {
		rows[i] = CustomerValueRow{
			CustomerID:         c.CustomerID,
			CustomerName:       c.CustomerName,
			CustomerSegment:    c.CustomerSegment,
			TotalRevenue:       Round2(c.TotalRevenue),
			TotalProfit:        Round2(c.TotalProfit),
			OrderCount:         c.OrderCount,
			AvgOrderValue:      c.AvgOrderValue,
			DaysSinceLastOrder: c.DaysSinceLastOrder,
			CLV:                c.CLV,
			RFMScore:           c.RFMScore,
			RFMSegment:         c.RFMSegment,
		}
	}

	return CustomerValueReport{
		Summary:   summary,
		Segments:  segments,
		Customers: rows,
	}
}

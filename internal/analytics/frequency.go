package analytics

// FrequencyOverall holds the population-wide averages the segments are
// compared against.
type FrequencyOverall struct {
	AvgFrequencyPerCustomerPerYear float64 `json:"overall_avg_frequency_per_customer_per_year"`
	AvgTicketSize                  float64 `json:"overall_avg_ticket_size"`
}

// SegmentFrequency is the buying cadence of one customer segment.
type SegmentFrequency struct {
	Segment                        string  `json:"segment"`
	CustomerYears                  int     `json:"customer_years"`
	TotalOrders                    int     `json:"total_orders"`
	TotalSales                     float64 `json:"total_sales"`
	AvgFrequencyPerCustomerPerYear float64 `json:"avg_frequency_per_customer_per_year"`
	AvgTicketSize                  float64 `json:"avg_ticket_size"`
	IsHighFreqLowTicket            bool    `json:"is_high_freq_low_ticket"`
}

// FrequencyReport is the purchase frequency report. Overall is nil for empty
// input.
type FrequencyReport struct {
	Overall  *FrequencyOverall  `json:"overall"`
	Segments []SegmentFrequency `json:"segments"`
}

type customerYear struct {
	customerID string
	year       int
}

// PurchaseFrequency measures, per customer segment, how many orders a customer
// places per calendar year and how large those orders are. Segments that buy
// more often than average with a smaller than average ticket are flagged.
func PurchaseFrequency(facts []SalesFact) FrequencyReport {
	rows := Filter(facts, RelCustomer|RelDate)
	if len(rows) == 0 {
		return FrequencyReport{Segments: []SegmentFrequency{}}
	}

	byCustomerYear := NewGroupLedger[customerYear]()
	segmentOf := map[customerYear]string{}
	for _, f := range rows {
		key := customerYear{customerID: f.CustomerID, year: f.OrderDate.Year()}
		byCustomerYear.Touch(key).Add(f)
		if _, ok := segmentOf[key]; !ok {
			segmentOf[key] = f.CustomerSegment
		}
	}

	type segmentAcc struct {
		customerYears, orders int
		sales                 float64
	}
	bySegment := NewLedger[string, segmentAcc](nil)
	byCustomerYear.Each(func(key customerYear, g *GroupAggregate) {
		acc := bySegment.Touch(segmentOf[key])
		acc.customerYears++
		acc.orders += g.OrderCount()
		acc.sales += g.TotalSales
	})

	segments := make([]SegmentFrequency, 0, bySegment.Len())
	var overallOrders, overallYears int
	var overallSales float64
	bySegment.Each(func(segment string, acc *segmentAcc) {
		s := SegmentFrequency{
			Segment:                        segment,
			CustomerYears:                  acc.customerYears,
			TotalOrders:                    acc.orders,
			TotalSales:                     Round2(acc.sales),
			AvgFrequencyPerCustomerPerYear: Round2(SafeDiv(float64(acc.orders), float64(acc.customerYears))),
			AvgTicketSize:                  Round2(SafeDiv(acc.sales, float64(acc.orders))),
		}
		overallOrders += s.TotalOrders
		overallYears += s.CustomerYears
		overallSales += s.TotalSales
		segments = append(segments, s)
	})

	avgFrequency := SafeDiv(float64(overallOrders), float64(overallYears))
	avgTicket := SafeDiv(overallSales, float64(overallOrders))
	for i := range segments {
		s := &segments[i]
		s.IsHighFreqLowTicket = s.AvgFrequencyPerCustomerPerYear > avgFrequency && s.AvgTicketSize < avgTicket
	}
	SortDesc(segments, func(s SegmentFrequency) float64 { return s.AvgFrequencyPerCustomerPerYear })

	return FrequencyReport{
		Overall: &FrequencyOverall{
			AvgFrequencyPerCustomerPerYear: Round2(avgFrequency),
			AvgTicketSize:                  Round2(avgTicket),
		},
		Segments: segments,
	}
}

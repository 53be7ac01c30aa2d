package analytics

// repeatOrderThreshold is the number of distinct orders that makes a customer
// a repeat customer of a salesperson.
const repeatOrderThreshold = 2

// SalespersonRetention is the repeat-customer profile of one salesperson.
type SalespersonRetention struct {
	SalespersonID   string  `json:"salesperson_id"`
	SalespersonName string  `json:"salesperson_name"`
	JobTitle        string  `json:"job_title"`
	TotalCustomers  int     `json:"total_customers"`
	RepeatCustomers int     `json:"repeat_customers"`
	RetentionRate   float64 `json:"retention_rate"`
	TotalSales      float64 `json:"total_sales"`
}

// RetentionSummary aggregates every salesperson.
type RetentionSummary struct {
	TotalSalespersons int                   `json:"total_salespersons"`
	TotalCustomers    int                   `json:"total_customers"`
	RepeatCustomers   int                   `json:"repeat_customers"`
	OverallRetention  float64               `json:"overall_retention_rate"`
	AvgRetentionRate  float64               `json:"avg_retention_rate"`
	BestRetention     *SalespersonRetention `json:"best_retention"`
}

// RetentionReport is the salesperson retention report. Summary is nil when no
// row carries both a salesperson and a customer.
type RetentionReport struct {
	Summary      *RetentionSummary      `json:"summary"`
	Salespersons []SalespersonRetention `json:"salespersons"`
}

// SalespersonRetentionReport ranks salespeople by the share of their customers
// who ordered from them at least twice.
func SalespersonRetentionReport(facts []SalesFact) RetentionReport {
	rows := Filter(facts, RelSalesperson|RelCustomer)
	if len(rows) == 0 {
		return RetentionReport{Salespersons: []SalespersonRetention{}}
	}

	type salespersonAcc struct {
		head      SalesFact
		sales     float64
		customers *Ledger[string, set]
	}
	newOrderSet := func(string) *set {
		orders := set{}
		return &orders
	}
	bySalesperson := NewLedger[string, salespersonAcc](nil)
	for _, f := range rows {
		acc := bySalesperson.Touch(f.SalespersonID)
		if acc.customers == nil {
			acc.head = f
			acc.customers = NewLedger(newOrderSet)
		}
		acc.sales += f.SalesAmount
		acc.customers.Touch(f.CustomerID).add(f.OrderNumber)
	}

	out := make([]SalespersonRetention, 0, bySalesperson.Len())
	summary := &RetentionSummary{}
	var rateSum float64
	bySalesperson.Each(func(id string, acc *salespersonAcc) {
		repeat := 0
		acc.customers.Each(func(_ string, orders *set) {
			if len(*orders) >= repeatOrderThreshold {
				repeat++
			}
		})
		total := acc.customers.Len()
		rate := Round4(SafeDiv(float64(repeat), float64(total)))
		out = append(out, SalespersonRetention{
			SalespersonID:   id,
			SalespersonName: acc.head.SalespersonName,
			JobTitle:        acc.head.SalespersonTitle,
			TotalCustomers:  total,
			RepeatCustomers: repeat,
			RetentionRate:   rate,
			TotalSales:      Round2(acc.sales),
		})
		summary.TotalCustomers += total
		summary.RepeatCustomers += repeat
		rateSum += rate
	})
	SortDesc(out, func(s SalespersonRetention) float64 { return s.RetentionRate })

	summary.TotalSalespersons = len(out)
	summary.OverallRetention = Round4(SafeDiv(float64(summary.RepeatCustomers), float64(summary.TotalCustomers)))
	summary.AvgRetentionRate = Round4(SafeDiv(rateSum, float64(len(out))))
	best := out[0]
	summary.BestRetention = &best

	return RetentionReport{
		Summary:      summary,
		Salespersons: out,
	}
}

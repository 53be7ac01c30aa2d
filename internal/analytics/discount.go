package analytics

import (
	"slices"
)

// TerritoryDiscount is the discount and margin profile of one territory.
// Rates and margins are fractions.
type TerritoryDiscount struct {
	TerritoryID     string  `json:"territory_id"`
	TerritoryName   string  `json:"territory_name"`
	Country         string  `json:"country"`
	Region          string  `json:"region"`
	GroupName       string  `json:"group_name"`
	TotalSales      float64 `json:"total_sales"`
	TotalDiscount   float64 `json:"total_discount"`
	AvgDiscountRate float64 `json:"avg_discount_rate"`
	TotalProfit     float64 `json:"total_profit"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
	TotalOrders     int     `json:"total_orders"`
	AvgOrderValue   float64 `json:"avg_order_value"`
}

// TerritoryMonth is one territory in one calendar month.
type TerritoryMonth struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	TerritoryID     string  `json:"territory_id"`
	TerritoryName   string  `json:"territory_name"`
	TotalSales      float64 `json:"total_sales"`
	AvgDiscountRate float64 `json:"avg_discount_rate"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
}

// DiscountBand summarizes the rows whose discount rate falls in one band.
type DiscountBand struct {
	DiscountRange   string  `json:"discount_range"`
	Count           int     `json:"count"`
	TotalSales      float64 `json:"total_sales"`
	AvgProfitMargin float64 `json:"avg_profit_margin"`
}

// DiscountReport is the discount-by-territory report.
type DiscountReport struct {
	TerritoryAnalysis    []TerritoryDiscount `json:"territoryAnalysis"`
	MonthlyTrend         []TerritoryMonth    `json:"monthlyTrend"`
	DiscountDistribution []DiscountBand      `json:"discountDistribution"`
	Years                []int               `json:"years"`
	HighestDiscount      *TerritoryDiscount  `json:"highestDiscount"`
}

type territoryMonthKey struct {
	month       monthKey
	territoryID string
}

// DiscountByTerritory builds the discount report. years lists the selectable
// years; when nil they are taken from the dated facts.
func DiscountByTerritory(facts []SalesFact, years []int) DiscountReport {
	territories := Filter(facts, RelTerritory)
	if years == nil {
		years = factYears(facts)
	}

	analysis := territoryAnalysis(territories)
	report := DiscountReport{
		TerritoryAnalysis:    analysis,
		MonthlyTrend:         territoryMonthlyTrend(Filter(territories, RelDate)),
		DiscountDistribution: discountDistribution(facts),
		Years:                nonNil(years),
	}
	if len(analysis) > 0 {
		best := analysis[0]
		report.HighestDiscount = &best
	}
	return report
}

func territoryAnalysis(facts []SalesFact) []TerritoryDiscount {
	byTerritory := NewGroupLedger[string]()
	heads := map[string]SalesFact{}
	for _, f := range facts {
		byTerritory.Touch(f.TerritoryID).Add(f)
		if _, ok := heads[f.TerritoryID]; !ok {
			heads[f.TerritoryID] = f
		}
	}

	out := make([]TerritoryDiscount, 0, byTerritory.Len())
	byTerritory.Each(func(id string, g *GroupAggregate) {
		head := heads[id]
		out = append(out, TerritoryDiscount{
			TerritoryID:     id,
			TerritoryName:   head.TerritoryName,
			Country:         head.TerritoryCountry,
			Region:          head.TerritoryRegion,
			GroupName:       head.TerritoryGroup,
			TotalSales:      Round2(g.TotalSales),
			TotalDiscount:   Round2(g.TotalDiscount),
			AvgDiscountRate: Round4(g.AvgDiscountRate()),
			TotalProfit:     Round2(g.TotalProfit),
			AvgProfitMargin: Round4(g.ProfitMargin()),
			TotalOrders:     g.OrderCount(),
			AvgOrderValue:   Round2(g.AvgOrderValue()),
		})
	})
	SortDesc(out, func(t TerritoryDiscount) float64 { return t.AvgDiscountRate })
	return out
}

func territoryMonthlyTrend(facts []SalesFact) []TerritoryMonth {
	byMonth := NewGroupLedger[territoryMonthKey]()
	names := map[string]string{}
	for _, f := range facts {
		key := territoryMonthKey{
			month:       monthKey{f.OrderDate.Year(), f.OrderDate.Month()},
			territoryID: f.TerritoryID,
		}
		byMonth.Touch(key).Add(f)
		if _, ok := names[f.TerritoryID]; !ok {
			names[f.TerritoryID] = f.TerritoryName
		}
	}

	out := make([]TerritoryMonth, 0, byMonth.Len())
	byMonth.Each(func(key territoryMonthKey, g *GroupAggregate) {
		out = append(out, TerritoryMonth{
			Year:            key.month.year,
			Month:           int(key.month.month),
			TerritoryID:     key.territoryID,
			TerritoryName:   names[key.territoryID],
			TotalSales:      Round2(g.TotalSales),
			AvgDiscountRate: Round4(g.AvgDiscountRate()),
			AvgProfitMargin: Round4(g.ProfitMargin()),
		})
	})
	SortAsc(out, func(m TerritoryMonth) int { return m.Year*100 + m.Month })
	return out
}

// discountDistribution always reports every band, empty ones with zeros.
func discountDistribution(facts []SalesFact) []DiscountBand {
	bands := make([]struct {
		count int
		agg   *GroupAggregate
	}, len(DiscountBuckets))
	for i := range bands {
		bands[i].agg = NewGroupAggregate()
	}
	for _, f := range facts {
		i := DiscountBucketFor(f.DiscountRate)
		bands[i].count++
		bands[i].agg.Add(f)
	}

	out := make([]DiscountBand, len(DiscountBuckets))
	for i, bucket := range DiscountBuckets {
		out[i] = DiscountBand{
			DiscountRange:   bucket.Label,
			Count:           bands[i].count,
			TotalSales:      Round2(bands[i].agg.TotalSales),
			AvgProfitMargin: Round4(bands[i].agg.ProfitMargin()),
		}
	}
	return out
}

func factYears(facts []SalesFact) []int {
	years := []int{}
	for _, f := range Filter(facts, RelDate) {
		if y := f.OrderDate.Year(); !slices.Contains(years, y) {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years
}

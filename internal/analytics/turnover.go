package analytics

import (
	"cmp"
	"slices"
)

const daysToSellHorizon = 365

// TurnoverSummary averages the category turnover ratios.
type TurnoverSummary struct {
	TotalCategories int     `json:"total_categories"`
	OverallTurnover float64 `json:"overall_turnover"`
}

// CategoryTurnover is the stock rotation of one product category.
// TurnoverRatio and DaysToSell are null when there is no inventory.
type CategoryTurnover struct {
	Category      string   `json:"category"`
	TotalSold     int      `json:"total_sold"`
	AvgInventory  float64  `json:"avg_inventory"`
	TurnoverRatio *float64 `json:"turnover_ratio"`
	DaysToSell    *float64 `json:"days_to_sell"`
	TotalProducts int      `json:"total_products"`
}

// ProductTurnover is the stock rotation of one product.
type ProductTurnover struct {
	ProductID     string   `json:"product_id"`
	ProductName   string   `json:"product_name"`
	Category      string   `json:"category"`
	TotalSold     int      `json:"total_sold"`
	AvgInventory  float64  `json:"avg_inventory"`
	TurnoverRatio *float64 `json:"turnover_ratio"`
	DaysToSell    *float64 `json:"days_to_sell"`
}

// TurnoverReport is the inventory turnover report. Summary is nil when both
// inputs are empty.
type TurnoverReport struct {
	Summary    *TurnoverSummary   `json:"summary"`
	Categories []CategoryTurnover `json:"categories"`
	Products   []ProductTurnover  `json:"products"`
}

type productLabel struct {
	name, category string
}

// InventoryTurnover joins units sold with average inventory per category and
// per product. Keys found on either side appear once; the missing side counts
// as 0. Entries without inventory keep a null ratio and sort last.
func InventoryTurnover(facts []SalesFact, inventory []InventoryFact) TurnoverReport {
	sold := Filter(facts, RelProduct)
	if len(sold) == 0 && len(inventory) == 0 {
		return TurnoverReport{Categories: []CategoryTurnover{}, Products: []ProductTurnover{}}
	}

	byCategory := NewGroupLedger[string]()
	byProduct := NewGroupLedger[string]()
	labels := map[string]productLabel{}
	remember := func(id, name, category string) {
		if _, ok := labels[id]; !ok {
			labels[id] = productLabel{name: name, category: category}
		}
	}

	for _, f := range sold {
		byCategory.Touch(f.ProductCategory).Add(f)
		byProduct.Touch(f.ProductID).Add(f)
		remember(f.ProductID, f.ProductName, f.ProductCategory)
	}
	for _, inv := range inventory {
		byCategory.Touch(inv.ProductCategory).AddInventory(inv.AvgQty)
		byProduct.Touch(inv.ProductID).AddInventory(inv.AvgQty)
		remember(inv.ProductID, inv.ProductName, inv.ProductCategory)
	}

	categories := make([]CategoryTurnover, 0, byCategory.Len())
	byCategory.Each(func(category string, g *GroupAggregate) {
		ratio, days := turnoverFigures(g)
		categories = append(categories, CategoryTurnover{
			Category:      category,
			TotalSold:     g.UnitsSold,
			AvgInventory:  Round2(g.InventoryQty),
			TurnoverRatio: ratio,
			DaysToSell:    days,
			TotalProducts: g.ProductCount(),
		})
	})
	sortByRatio(categories, func(c CategoryTurnover) *float64 { return c.TurnoverRatio })

	products := make([]ProductTurnover, 0, byProduct.Len())
	byProduct.Each(func(id string, g *GroupAggregate) {
		ratio, days := turnoverFigures(g)
		label := labels[id]
		products = append(products, ProductTurnover{
			ProductID:     id,
			ProductName:   label.name,
			Category:      label.category,
			TotalSold:     g.UnitsSold,
			AvgInventory:  Round2(g.InventoryQty),
			TurnoverRatio: ratio,
			DaysToSell:    days,
		})
	})
	sortByRatio(products, func(p ProductTurnover) *float64 { return p.TurnoverRatio })

	summary := &TurnoverSummary{}
	var ratioSum float64
	for _, c := range categories {
		if c.TurnoverRatio == nil {
			continue
		}
		summary.TotalCategories++
		ratioSum += *c.TurnoverRatio
	}
	summary.OverallTurnover = Round4(SafeDiv(ratioSum, float64(summary.TotalCategories)))

	return TurnoverReport{
		Summary:    summary,
		Categories: categories,
		Products:   products,
	}
}

func turnoverFigures(g *GroupAggregate) (ratio, daysToSell *float64) {
	t := g.Turnover()
	if t == nil {
		return nil, nil
	}
	r := Round4(*t)
	ratio = &r
	if *t > 0 {
		d := Round1(daysToSellHorizon / *t)
		daysToSell = &d
	}
	return ratio, daysToSell
}

// sortByRatio orders by descending ratio with null ratios last.
func sortByRatio[T any](items []T, ratio func(T) *float64) {
	slices.SortStableFunc(items, func(a, b T) int {
		ra, rb := ratio(a), ratio(b)
		switch {
		case ra == nil && rb == nil:
			return 0
		case ra == nil:
			return 1
		case rb == nil:
			return -1
		}
		return cmp.Compare(*rb, *ra)
	})
}

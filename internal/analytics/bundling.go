package analytics

import (
	"cmp"
	"slices"
	"strconv"
)

const (
	// MinPairSupport is the co-occurrence count a product pair needs before
	// the bundling report lists it.
	MinPairSupport = 5

	topProductPairs = 100
)

// ProductPair is a pair of products bought in the same order.
type ProductPair struct {
	Product1ID       string  `json:"product1_id"`
	Product1Name     string  `json:"product1_name"`
	Product1Category string  `json:"product1_category"`
	Product2ID       string  `json:"product2_id"`
	Product2Name     string  `json:"product2_name"`
	Product2Category string  `json:"product2_category"`
	CoOccurrence     int     `json:"co_occurrence"`
	TotalOrders      int     `json:"total_orders"`
	Support          float64 `json:"support"`
}

// CategoryPair is a pair of categories present in the same order.
type CategoryPair struct {
	Category1    string  `json:"category1"`
	Category2    string  `json:"category2"`
	CoOccurrence int     `json:"co_occurrence"`
	Support      float64 `json:"support"`
}

// CategoryBasket describes the baskets a category appears in.
type CategoryBasket struct {
	Category      string  `json:"category"`
	TotalOrders   int     `json:"total_orders"`
	AvgBasketSize float64 `json:"avg_basket_size"`
}

// BundlingReport is the market basket report.
type BundlingReport struct {
	ProductPairs  []ProductPair    `json:"productPairs"`
	CategoryPairs []CategoryPair   `json:"categoryPairs"`
	TopCategories []CategoryBasket `json:"topCategories"`
}

type pairKey struct {
	first, second string
}

type productPairAcc struct {
	first, second SalesFact
	count         int
}

// CompareProductIDs orders product identifiers numerically when both parse as
// integers and lexicographically otherwise.
func CompareProductIDs(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}

// CountProductPairs tallies every position pair (i<j) of line items within
// each order. Pairs where either line has no product are skipped. Identical
// products on two lines still form a pair. Pairs seen fewer than minSupport
// times are dropped; the rest are sorted by descending co-occurrence.
func CountProductPairs(orders []OrderGroup, minSupport int) []ProductPair {
	pairs := NewLedger[pairKey, productPairAcc](nil)
	for _, order := range orders {
		items := order.Items
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				a, b := items[i], items[j]
				if !a.Has(RelProduct) || !b.Has(RelProduct) {
					continue
				}
				if CompareProductIDs(b.ProductID, a.ProductID) < 0 {
					a, b = b, a
				}
				acc := pairs.Touch(pairKey{a.ProductID, b.ProductID})
				if acc.count == 0 {
					acc.first, acc.second = a, b
				}
				acc.count++
			}
		}
	}

	totalOrders := len(orders)
	out := make([]ProductPair, 0)
	pairs.Each(func(_ pairKey, acc *productPairAcc) {
		if acc.count < minSupport {
			return
		}
		out = append(out, ProductPair{
			Product1ID:       acc.first.ProductID,
			Product1Name:     acc.first.ProductName,
			Product1Category: acc.first.ProductCategory,
			Product2ID:       acc.second.ProductID,
			Product2Name:     acc.second.ProductName,
			Product2Category: acc.second.ProductCategory,
			CoOccurrence:     acc.count,
			TotalOrders:      totalOrders,
			Support:          supportPercent(acc.count, totalOrders),
		})
	})
	SortDesc(out, func(p ProductPair) int { return p.CoOccurrence })
	return out
}

// CountCategoryPairs tallies unordered pairs over the distinct, alphabetically
// sorted categories of each order.
func CountCategoryPairs(orders []OrderGroup) []CategoryPair {
	pairs := NewLedger[pairKey, int](nil)
	for _, order := range orders {
		categories := orderCategories(order)
		for i := 0; i < len(categories); i++ {
			for j := i + 1; j < len(categories); j++ {
				*pairs.Touch(pairKey{categories[i], categories[j]})++
			}
		}
	}

	totalOrders := len(orders)
	out := make([]CategoryPair, 0, pairs.Len())
	pairs.Each(func(key pairKey, count *int) {
		out = append(out, CategoryPair{
			Category1:    key.first,
			Category2:    key.second,
			CoOccurrence: *count,
			Support:      supportPercent(*count, totalOrders),
		})
	})
	SortDesc(out, func(p CategoryPair) int { return p.CoOccurrence })
	return out
}

// CategoryBaskets computes, per category, the number of distinct orders it
// appears in and the average size of those baskets. An order's basket size
// is added once for every line item of the category.
func CategoryBaskets(orders []OrderGroup) []CategoryBasket {
	type basketAcc struct {
		orders      set
		basketTotal int
	}
	stats := NewLedger(func(string) *basketAcc { return &basketAcc{orders: set{}} })
	for _, order := range orders {
		size := order.BasketSize()
		for _, item := range order.Items {
			if !item.Has(RelProduct) {
				continue
			}
			acc := stats.Touch(item.ProductCategory)
			acc.orders.add(order.OrderNumber)
			acc.basketTotal += size
		}
	}

	out := make([]CategoryBasket, 0, stats.Len())
	stats.Each(func(category string, acc *basketAcc) {
		n := len(acc.orders)
		out = append(out, CategoryBasket{
			Category:      category,
			TotalOrders:   n,
			AvgBasketSize: Round2(SafeDiv(float64(acc.basketTotal), float64(n))),
		})
	})
	SortDesc(out, func(c CategoryBasket) int { return c.TotalOrders })
	return out
}

// Bundling builds the product and category co-occurrence report.
func Bundling(facts []SalesFact) BundlingReport {
	orders := GroupOrders(facts)
	return BundlingReport{
		ProductPairs:  TopN(CountProductPairs(orders, MinPairSupport), topProductPairs),
		CategoryPairs: CountCategoryPairs(orders),
		TopCategories: CategoryBaskets(orders),
	}
}

func orderCategories(order OrderGroup) []string {
	seen := set{}
	for _, item := range order.Items {
		if item.Has(RelProduct) {
			seen.add(item.ProductCategory)
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	slices.Sort(categories)
	return categories
}

func supportPercent(count, totalOrders int) float64 {
	return Round2(SafeDiv(float64(count), float64(totalOrders)) * 100)
}

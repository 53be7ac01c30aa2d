package analytics

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// Fixed precision applied to report values before they leave the package.
const (
	CurrencyPlaces = 2
	RatioPlaces    = 4
)

// Round rounds v to the given number of decimal places, half away from zero.
// Non-finite values collapse to 0 so they can never reach the output.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Round2 rounds a currency amount.
func Round2(v float64) float64 { return Round(v, CurrencyPlaces) }

// Round4 rounds a ratio or rate.
func Round4(v float64) float64 { return Round(v, RatioPlaces) }

// Round1 rounds day counts and percentages shown with one decimal.
func Round1(v float64) float64 { return Round(v, 1) }

// SafeDiv returns num/den, or 0 when den is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// TopN returns at most n leading items. A non-positive n keeps everything.
func TopN[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

// LastN returns at most n trailing items.
func LastN[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

// SortDesc stably sorts items by a descending key. Ties keep input order.
func SortDesc[T any, K cmp.Ordered](items []T, key func(T) K) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	})
}

// SortAsc stably sorts items by an ascending key. Ties keep input order.
func SortAsc[T any, K cmp.Ordered](items []T, key func(T) K) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}

// nonNil turns a nil slice into an empty one so JSON renders [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package reports

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter narrows the warehouse rows a report is computed over. Zero values
// mean unfiltered.
type Filter struct {
	Year     int    `json:"year,omitempty"`
	Category string `json:"category,omitempty"`
}

// ParseFilter reads the raw year and category query values. Year must be a
// positive integer when present; category is trimmed.
func ParseFilter(year, category string) (Filter, error) {
	var f Filter

	if year = strings.TrimSpace(year); year != "" && year != "all" {
		n, err := strconv.Atoi(year)
		if err != nil || n <= 0 {
			return Filter{}, fmt.Errorf("%w: year %q", ErrInvalidFilter, year)
		}
		f.Year = n
	}

	if category = strings.TrimSpace(category); category != "all" {
		f.Category = category
	}

	return f, nil
}

// Key identifies the filter inside a cache key.
func (f Filter) Key() string {
	return strconv.Itoa(f.Year) + "|" + f.Category
}

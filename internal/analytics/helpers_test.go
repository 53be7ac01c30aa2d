package analytics_test

import (
	"time"

	"salesboard/internal/analytics"
)

var epoch = time.Date(2003, time.January, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func day(n int) time.Time {
	return epoch.AddDate(0, 0, n)
}

// line builds a normalized fact with customer, product, territory,
// salesperson and date relations present.
type line struct {
	order       string
	customer    string
	product     string
	category    string
	territory   string
	salesperson string
	segment     string
	amount      float64
	profit      float64
	rate        float64
	qty         int
	date        time.Time
}

func (l line) raw() analytics.RawSale {
	raw := analytics.RawSale{
		OrderNumber:   l.order,
		CustomerID:    l.customer,
		ProductID:     l.product,
		TerritoryID:   l.territory,
		SalespersonID: l.salesperson,
		SalesAmount:   ptr(l.amount),
		ProfitAmount:  ptr(l.profit),
		DiscountRate:  ptr(l.rate),
		OrderQuantity: ptr(l.qty),
	}
	if !l.date.IsZero() {
		raw.OrderDate = ptr(l.date)
	}
	if l.customer != "" {
		raw.Customer = &analytics.CustomerAttrs{FullName: "Customer " + l.customer}
		if l.segment != "" {
			raw.Customer.Segment = ptr(l.segment)
		}
	}
	if l.product != "" {
		raw.Product = &analytics.ProductAttrs{Name: "Product " + l.product}
		if l.category != "" {
			raw.Product.Category = ptr(l.category)
		}
	}
	if l.territory != "" {
		raw.Territory = &analytics.TerritoryAttrs{
			Name:    "Territory " + l.territory,
			Country: ptr("US"),
		}
	}
	if l.salesperson != "" {
		raw.Salesperson = &analytics.SalespersonAttrs{FullName: "Rep " + l.salesperson}
	}
	return raw
}

func facts(lines ...line) []analytics.SalesFact {
	raws := make([]analytics.RawSale, len(lines))
	for i, l := range lines {
		raws[i] = l.raw()
	}
	return analytics.NormalizeAll(raws)
}

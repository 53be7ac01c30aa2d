package analytics

import (
	"time"
)

// OrderGroup holds every line item that shares an order number, in the order
// the lines were read.
type OrderGroup struct {
	OrderNumber string
	Items       []SalesFact
}

// GroupOrders partitions facts by order number. Groups are returned in the
// order their first line item appears.
func GroupOrders(facts []SalesFact) []OrderGroup {
	ledger := NewLedger(func(orderNumber string) *OrderGroup {
		return &OrderGroup{OrderNumber: orderNumber}
	})
	for _, f := range facts {
		g := ledger.Touch(f.OrderNumber)
		g.Items = append(g.Items, f)
	}

	groups := make([]OrderGroup, 0, ledger.Len())
	ledger.Each(func(_ string, g *OrderGroup) {
		groups = append(groups, *g)
	})
	return groups
}

// BasketSize is the number of line items in the order.
func (g OrderGroup) BasketSize() int {
	return len(g.Items)
}

// Revenue sums the sales amount of every line.
func (g OrderGroup) Revenue() float64 {
	var total float64
	for _, item := range g.Items {
		total += item.SalesAmount
	}
	return total
}

// Profit sums the profit amount of every line.
func (g OrderGroup) Profit() float64 {
	var total float64
	for _, item := range g.Items {
		total += item.ProfitAmount
	}
	return total
}

// Date is the order date of the first dated line item.
func (g OrderGroup) Date() (time.Time, bool) {
	for _, item := range g.Items {
		if item.Has(RelDate) {
			return item.OrderDate, true
		}
	}
	return time.Time{}, false
}

// Head is the first line item; it carries the order-level dimensions.
func (g OrderGroup) Head() SalesFact {
	if len(g.Items) == 0 {
		return SalesFact{}
	}
	return g.Items[0]
}

// Package analytics turns flat collections of sales facts into the derived
// report tables served by the dashboard.
//
// The package is organized into focused modules:
//   - analytics.go: Input row and fact definitions
//   - normalize.go: Defaulting of nullable fields and relation checks
//   - ledger.go: Ordered create-on-first-touch accumulator map
//   - orders.go: Grouping of line items into orders
//   - customers.go: Per-customer totals and lifetime value
//   - rfm.go: Recency/frequency/monetary scoring and segmentation
//   - bundling.go: Product and category co-occurrence
//   - ratios.go: Weighted discount, margin and turnover accumulators
//   - dashboard.go, discount.go, turnover.go, frequency.go, retention.go: Report builders
//   - format.go: Rounding, sorting and truncation of report output
//
// Nothing in this package performs I/O. Callers hand in rows that were already
// fetched and filtered; every map built here lives for a single call.
package analytics

import (
	"time"
)

// UnknownLabel is the value given to categorical fields that are missing.
const UnknownLabel = "Unknown"

// CustomerAttrs are the customer dimension attributes joined onto a sale.
type CustomerAttrs struct {
	FullName string
	Segment  *string
}

// ProductAttrs are the product dimension attributes joined onto a sale.
type ProductAttrs struct {
	Name     string
	Category *string
}

// TerritoryAttrs are the territory dimension attributes joined onto a sale.
type TerritoryAttrs struct {
	Name      string
	Country   *string
	Region    *string
	GroupName *string
}

// SalespersonAttrs are the salesperson dimension attributes joined onto a sale.
type SalespersonAttrs struct {
	FullName string
	JobTitle *string
}

// RawSale is one order line as delivered by the data-access layer. Numeric
// fields and relations may be absent.
type RawSale struct {
	OrderNumber   string
	CustomerID    string
	ProductID     string
	TerritoryID   string
	SalespersonID string

	SalesAmount    *float64
	ProfitAmount   *float64
	DiscountAmount *float64
	DiscountRate   *float64
	OrderQuantity  *int
	OrderDate      *time.Time

	Customer    *CustomerAttrs
	Product     *ProductAttrs
	Territory   *TerritoryAttrs
	Salesperson *SalespersonAttrs
}

// RawInventory is one monthly inventory snapshot row.
type RawInventory struct {
	ProductID string
	AvgQty    *float64
	Product   *ProductAttrs
}

// Relation is a bitmask of the dimension joins present on a fact.
type Relation uint8

const (
	RelCustomer Relation = 1 << iota
	RelProduct
	RelTerritory
	RelSalesperson
	RelDate
)

// SalesFact is a normalized order line. Every numeric field is defined and
// every categorical field is non-empty; Relations records which joins were
// actually present on the source row.
type SalesFact struct {
	OrderNumber   string
	CustomerID    string
	ProductID     string
	TerritoryID   string
	SalespersonID string

	SalesAmount    float64
	ProfitAmount   float64
	DiscountAmount float64
	DiscountRate   float64
	OrderQuantity  int
	OrderDate      time.Time

	CustomerName     string
	CustomerSegment  string
	ProductName      string
	ProductCategory  string
	TerritoryName    string
	TerritoryCountry string
	TerritoryRegion  string
	TerritoryGroup   string
	SalespersonName  string
	SalespersonTitle string

	Relations Relation
}

// Has reports whether every relation in rel was present on the source row.
func (f SalesFact) Has(rel Relation) bool {
	return f.Relations&rel == rel
}

// InventoryFact is a normalized inventory snapshot row.
type InventoryFact struct {
	ProductID       string
	ProductName     string
	ProductCategory string
	AvgQty          float64
	HasProduct      bool
}

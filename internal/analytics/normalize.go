package analytics

import (
	"strings"
)

// Normalize fills every nullable field of a raw sale with its default: 0 for
// numbers and UnknownLabel for categorical attributes. Missing relations are
// recorded on the returned fact so aggregations can decide to skip it.
func Normalize(raw RawSale) SalesFact {
	f := SalesFact{
		OrderNumber:    raw.OrderNumber,
		CustomerID:     raw.CustomerID,
		ProductID:      raw.ProductID,
		TerritoryID:    raw.TerritoryID,
		SalespersonID:  raw.SalespersonID,
		SalesAmount:    floatOrZero(raw.SalesAmount),
		ProfitAmount:   floatOrZero(raw.ProfitAmount),
		DiscountAmount: floatOrZero(raw.DiscountAmount),
		DiscountRate:   floatOrZero(raw.DiscountRate),

		CustomerName:     UnknownLabel,
		CustomerSegment:  UnknownLabel,
		ProductName:      UnknownLabel,
		ProductCategory:  UnknownLabel,
		TerritoryName:    UnknownLabel,
		TerritoryCountry: UnknownLabel,
		TerritoryRegion:  UnknownLabel,
		TerritoryGroup:   UnknownLabel,
		SalespersonName:  UnknownLabel,
		SalespersonTitle: UnknownLabel,
	}
	if raw.OrderQuantity != nil {
		f.OrderQuantity = *raw.OrderQuantity
	}
	if raw.OrderDate != nil {
		f.OrderDate = *raw.OrderDate
		f.Relations |= RelDate
	}

	if raw.Customer != nil && raw.CustomerID != "" {
		f.Relations |= RelCustomer
		f.CustomerName = labelOrUnknown(raw.Customer.FullName)
		f.CustomerSegment = stringOrUnknown(raw.Customer.Segment)
	}
	if raw.Product != nil && raw.ProductID != "" {
		f.Relations |= RelProduct
		f.ProductName = labelOrUnknown(raw.Product.Name)
		f.ProductCategory = stringOrUnknown(raw.Product.Category)
	}
	if raw.Territory != nil && raw.TerritoryID != "" {
		f.Relations |= RelTerritory
		f.TerritoryName = labelOrUnknown(raw.Territory.Name)
		f.TerritoryCountry = stringOrUnknown(raw.Territory.Country)
		f.TerritoryRegion = stringOrUnknown(raw.Territory.Region)
		f.TerritoryGroup = stringOrUnknown(raw.Territory.GroupName)
	}
	if raw.Salesperson != nil && raw.SalespersonID != "" {
		f.Relations |= RelSalesperson
		f.SalespersonName = labelOrUnknown(raw.Salesperson.FullName)
		f.SalespersonTitle = stringOrUnknown(raw.Salesperson.JobTitle)
	}

	return f
}

// NormalizeAll normalizes a batch of raw sales, preserving order.
func NormalizeAll(rows []RawSale) []SalesFact {
	facts := make([]SalesFact, len(rows))
	for i, row := range rows {
		facts[i] = Normalize(row)
	}
	return facts
}

// NormalizeInventory applies the same defaulting rules to an inventory row.
func NormalizeInventory(raw RawInventory) InventoryFact {
	inv := InventoryFact{
		ProductID:       raw.ProductID,
		ProductName:     UnknownLabel,
		ProductCategory: UnknownLabel,
		AvgQty:          floatOrZero(raw.AvgQty),
	}
	if raw.Product != nil {
		inv.HasProduct = true
		inv.ProductName = labelOrUnknown(raw.Product.Name)
		inv.ProductCategory = stringOrUnknown(raw.Product.Category)
	}
	return inv
}

// NormalizeInventoryAll normalizes a batch of inventory rows, preserving order.
func NormalizeInventoryAll(rows []RawInventory) []InventoryFact {
	facts := make([]InventoryFact, len(rows))
	for i, row := range rows {
		facts[i] = NormalizeInventory(row)
	}
	return facts
}

// Filter returns the facts that carry every relation in rel.
func Filter(facts []SalesFact, rel Relation) []SalesFact {
	kept := make([]SalesFact, 0, len(facts))
	for _, f := range facts {
		if f.Has(rel) {
			kept = append(kept, f)
		}
	}
	return kept
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func stringOrUnknown(v *string) string {
	if v == nil {
		return UnknownLabel
	}
	return labelOrUnknown(*v)
}

func labelOrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return UnknownLabel
	}
	return v
}

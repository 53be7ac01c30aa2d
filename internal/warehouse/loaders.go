package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"salesboard/internal/analytics"
)

// ErrUpstream marks a failure to read from the warehouse. Loaders never retry
// and never return partial rows alongside it.
var ErrUpstream = errors.New("warehouse unavailable")

// SalesFilter narrows the sales facts a loader returns. Zero values mean no
// filter; Limit caps the number of rows.
type SalesFilter struct {
	Year     int
	Category string
	Limit    int
}

// InventoryFilter narrows the inventory snapshots a loader returns.
type InventoryFilter struct {
	Year     int
	Category string
}

// LoadSales reads sales facts with every dimension joined, ordered by fact id.
func LoadSales(ctx context.Context, db *gorm.DB, filter SalesFilter) ([]analytics.RawSale, error) {
	query := db.WithContext(ctx).
		Model(&FactSales{}).
		Preload("Customer").
		Preload("Product").
		Preload("Territory").
		Preload("Salesperson").
		Preload("Date")

	if filter.Year > 0 {
		query = query.Where("date_key IN (?)", yearDateKeys(db, filter.Year))
	}
	if filter.Category != "" {
		query = query.Where("product_id IN (?)", categoryProductIDs(db, filter.Category))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var facts []FactSales
	if err := query.Order("id").Find(&facts).Error; err != nil {
		return nil, upstream("load sales", err)
	}

	rows := make([]analytics.RawSale, len(facts))
	for i := range facts {
		rows[i] = facts[i].Raw()
	}
	return rows, nil
}

// LoadInventory reads monthly inventory snapshots with the product joined.
func LoadInventory(ctx context.Context, db *gorm.DB, filter InventoryFilter) ([]analytics.RawInventory, error) {
	query := db.WithContext(ctx).
		Model(&FactInventoryMonthly{}).
		Preload("Product")

	if filter.Year > 0 {
		query = query.Where("date_key IN (?)", yearDateKeys(db, filter.Year))
	}
	if filter.Category != "" {
		query = query.Where("product_id IN (?)", categoryProductIDs(db, filter.Category))
	}

	var snapshots []FactInventoryMonthly
	if err := query.Order("id").Find(&snapshots).Error; err != nil {
		return nil, upstream("load inventory", err)
	}

	rows := make([]analytics.RawInventory, len(snapshots))
	for i := range snapshots {
		rows[i] = snapshots[i].Raw()
	}
	return rows, nil
}

// ListYears returns the distinct calendar years that have sales, ascending.
func ListYears(ctx context.Context, db *gorm.DB) ([]int, error) {
	years := []int{}
	err := db.WithContext(ctx).
		Model(&DimDate{}).
		Where("date_key IN (?)", db.Model(&FactSales{}).Select("date_key")).
		Distinct().
		Order("year").
		Pluck("year", &years).Error
	if err != nil {
		return nil, upstream("list years", err)
	}
	return years, nil
}

// ListCategories returns the distinct product categories, alphabetically.
func ListCategories(ctx context.Context, db *gorm.DB) ([]string, error) {
	categories := []string{}
	err := db.WithContext(ctx).
		Model(&DimProduct{}).
		Where("product_category_name IS NOT NULL AND product_category_name <> ''").
		Distinct().
		Order("product_category_name").
		Pluck("product_category_name", &categories).Error
	if err != nil {
		return nil, upstream("list categories", err)
	}
	return categories, nil
}

// TableCount is the number of rows stored in one warehouse table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Counts returns the row count of every warehouse table in migration order.
func Counts(ctx context.Context, db *gorm.DB) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(Models()))
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		var n int64
		if err := db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, upstream("count "+stmt.Schema.Table, err)
		}
		counts = append(counts, TableCount{Table: stmt.Schema.Table, Rows: n})
	}
	return counts, nil
}

// Raw converts the fact and its loaded relations to the analytics input row.
func (f FactSales) Raw() analytics.RawSale {
	raw := analytics.RawSale{
		OrderNumber:    f.OrderNumber,
		CustomerID:     idString(f.CustomerID),
		ProductID:      idString(f.ProductID),
		TerritoryID:    idString(f.TerritoryID),
		SalespersonID:  idString(f.SalespersonID),
		SalesAmount:    f.SalesAmount,
		ProfitAmount:   f.ProfitAmount,
		DiscountAmount: f.DiscountAmount,
		DiscountRate:   f.DiscountRate,
		OrderQuantity:  f.OrderQuantity,
	}
	if f.Customer != nil {
		raw.Customer = &analytics.CustomerAttrs{
			FullName: f.Customer.FullName,
			Segment:  f.Customer.CustomerSegment,
		}
	}
	if f.Product != nil {
		raw.Product = f.Product.attrs()
	}
	if f.Territory != nil {
		raw.Territory = &analytics.TerritoryAttrs{
			Name:      f.Territory.TerritoryName,
			Country:   f.Territory.Country,
			Region:    f.Territory.Region,
			GroupName: f.Territory.GroupName,
		}
	}
	if f.Salesperson != nil {
		raw.Salesperson = &analytics.SalespersonAttrs{
			FullName: f.Salesperson.FullName,
			JobTitle: f.Salesperson.JobTitle,
		}
	}
	if f.Date != nil {
		date := f.Date.FullDate
		raw.OrderDate = &date
	}
	return raw
}

// Raw converts the snapshot and its product to the analytics input row.
func (i FactInventoryMonthly) Raw() analytics.RawInventory {
	raw := analytics.RawInventory{
		ProductID: strconv.FormatUint(uint64(i.ProductID), 10),
		AvgQty:    i.AvgQty,
	}
	if i.Product != nil {
		raw.Product = i.Product.attrs()
	}
	return raw
}

func (p *DimProduct) attrs() *analytics.ProductAttrs {
	return &analytics.ProductAttrs{
		Name:     p.ProductName,
		Category: p.ProductCategoryName,
	}
}

func yearDateKeys(db *gorm.DB, year int) *gorm.DB {
	return db.Model(&DimDate{}).Select("date_key").Where("year = ?", year)
}

func categoryProductIDs(db *gorm.DB, category string) *gorm.DB {
	return db.Model(&DimProduct{}).Select("product_id").Where("product_category_name = ?", category)
}

func idString(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// Package warehouse holds the star-schema sales warehouse: gorm models for the
// dimension and fact tables and the read-only loaders that hand materialized
// rows to the analytics core.
package warehouse

import (
	"time"
)

// DimCustomer is the customer dimension.
type DimCustomer struct {
	CustomerID      uint    `gorm:"primaryKey;autoIncrement:false" json:"customer_id"`
	FullName        string  `gorm:"not null" json:"full_name"`
	CustomerSegment *string `json:"customer_segment"`
}

// DimProduct is the product dimension.
type DimProduct struct {
	ProductID           uint    `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	ProductName         string  `gorm:"not null" json:"product_name"`
	ProductCategoryName *string `gorm:"index" json:"product_category_name"`
}

// DimTerritory is the sales territory dimension. Country holds an ISO code
// or a country name.
type DimTerritory struct {
	TerritoryID   uint    `gorm:"primaryKey;autoIncrement:false" json:"territory_id"`
	TerritoryName string  `gorm:"not null" json:"territory_name"`
	Country       *string `json:"country"`
	Region        *string `json:"region"`
	GroupName     *string `json:"group_name"`
}

// DimSalesperson is the salesperson dimension.
type DimSalesperson struct {
	SalespersonID uint    `gorm:"primaryKey;autoIncrement:false" json:"salesperson_id"`
	FullName      string  `gorm:"not null" json:"full_name"`
	JobTitle      *string `json:"job_title"`
	TerritoryID   *uint   `json:"territory_id"`
}

// DimDate is the calendar dimension keyed by YYYYMMDD.
type DimDate struct {
	DateKey   int       `gorm:"primaryKey;autoIncrement:false" json:"date_key"`
	FullDate  time.Time `gorm:"not null" json:"full_date"`
	Day       int       `json:"day"`
	Month     int       `json:"month"`
	MonthName string    `json:"month_name"`
	Quarter   int       `json:"quarter"`
	Year      int       `gorm:"index" json:"year"`
	IsWeekend bool      `json:"is_weekend"`
}

// FactSales is one order line.
type FactSales struct {
	ID              uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string `gorm:"index;not null" json:"order_number"`
	OrderLineNumber int    `json:"order_line_number"`

	CustomerID    *uint `gorm:"index" json:"customer_id"`
	ProductID     *uint `gorm:"index" json:"product_id"`
	TerritoryID   *uint `gorm:"index" json:"territory_id"`
	SalespersonID *uint `gorm:"index" json:"salesperson_id"`
	DateKey       *int  `gorm:"index" json:"date_key"`

	SalesAmount    *float64 `json:"sales_amount"`
	ProfitAmount   *float64 `json:"profit_amount"`
	DiscountAmount *float64 `json:"discount_amount"`
	DiscountRate   *float64 `json:"discount_rate"`
	OrderQuantity  *int     `json:"order_quantity"`

	Customer    *DimCustomer    `gorm:"foreignKey:CustomerID;references:CustomerID" json:"customer,omitempty"`
	Product     *DimProduct     `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty"`
	Territory   *DimTerritory   `gorm:"foreignKey:TerritoryID;references:TerritoryID" json:"territory,omitempty"`
	Salesperson *DimSalesperson `gorm:"foreignKey:SalespersonID;references:SalespersonID" json:"salesperson,omitempty"`
	Date        *DimDate        `gorm:"foreignKey:DateKey;references:DateKey" json:"date,omitempty"`
}

// TableName keeps the fact table name singular.
func (FactSales) TableName() string {
	return "fact_sales"
}

// FactInventoryMonthly is the average stock held for a product in a month.
type FactInventoryMonthly struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint     `gorm:"index;not null" json:"product_id"`
	DateKey   int      `gorm:"index;not null" json:"date_key"`
	AvgQty    *float64 `json:"avg_qty"`

	Product *DimProduct `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty"`
}

// TableName keeps the fact table name singular.
func (FactInventoryMonthly) TableName() string {
	return "fact_inventory_monthly"
}

// Models lists every warehouse model in migration order.
func Models() []any {
	return []any{
		&DimCustomer{},
		&DimProduct{},
		&DimTerritory{},
		&DimSalesperson{},
		&DimDate{},
		&FactSales{},
		&FactInventoryMonthly{},
	}
}

// DimDateFor builds the calendar row for the day containing t.
func DimDateFor(t time.Time) DimDate {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	month := int(t.Month())
	return DimDate{
		DateKey:   DateKeyFor(t),
		FullDate:  t,
		Day:       t.Day(),
		Month:     month,
		MonthName: t.Month().String(),
		Quarter:   (month-1)/3 + 1,
		Year:      t.Year(),
		IsWeekend: t.Weekday() == time.Saturday || t.Weekday() == time.Sunday,
	}
}

// DateKeyFor returns the YYYYMMDD key of t.
func DateKeyFor(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

package seeder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salesboard/internal/warehouse"
)

// ErrInvalidFixture is returned when a fixture cannot be decoded or holds a
// malformed value.
var ErrInvalidFixture = errors.New("invalid fixture")

const fixtureDate = "2006-01-02"

// Fixture is a YAML description of warehouse rows. Dimension rows are
// upserted by id; fact rows are appended.
type Fixture struct {
	Customers    []FixtureCustomer    `yaml:"customers"`
	Products     []FixtureProduct     `yaml:"products"`
	Territories  []FixtureTerritory   `yaml:"territories"`
	Salespersons []FixtureSalesperson `yaml:"salespersons"`
	Sales        []FixtureSale        `yaml:"sales"`
	Inventory    []FixtureInventory   `yaml:"inventory"`
}

// FixtureCustomer is a customer dimension row. A missing segment is stored as NULL.
type FixtureCustomer struct {
	ID      uint    `yaml:"id"`
	Name    string  `yaml:"name"`
	Segment *string `yaml:"segment"`
}

// FixtureProduct is a product dimension row.
type FixtureProduct struct {
	ID       uint    `yaml:"id"`
	Name     string  `yaml:"name"`
	Category *string `yaml:"category"`
}

// FixtureTerritory is a territory dimension row. Country may be an ISO code
// or a full name.
type FixtureTerritory struct {
	ID      uint    `yaml:"id"`
	Name    string  `yaml:"name"`
	Country *string `yaml:"country"`
	Region  *string `yaml:"region"`
	Group   *string `yaml:"group"`
}

// FixtureSalesperson is a salesperson, optionally tied to a territory id.
type FixtureSalesperson struct {
	ID          uint    `yaml:"id"`
	Name        string  `yaml:"name"`
	JobTitle    *string `yaml:"job_title"`
	TerritoryID *uint   `yaml:"territory"`
}

// FixtureSale is one order line. Omitted numbers are stored as NULL; when
// the discount amount is omitted but sales and rate are present it is
// derived from them.
type FixtureSale struct {
	Order        string   `yaml:"order"`
	Line         int      `yaml:"line"`
	Customer     *uint    `yaml:"customer"`
	Product      *uint    `yaml:"product"`
	Territory    *uint    `yaml:"territory"`
	Salesperson  *uint    `yaml:"salesperson"`
	Date         string   `yaml:"date"`
	Sales        *float64 `yaml:"sales"`
	Profit       *float64 `yaml:"profit"`
	Discount     *float64 `yaml:"discount"`
	DiscountRate *float64 `yaml:"discount_rate"`
	Quantity     *int     `yaml:"quantity"`
}

// FixtureInventory is one monthly inventory snapshot for a product, dated
// by Month in YYYY-MM-DD form.
type FixtureInventory struct {
	Product uint     `yaml:"product"`
	Month   string   `yaml:"month"`
	AvgQty  *float64 `yaml:"avg_qty"`
}

// ImportStats counts the rows an import wrote.
type ImportStats struct {
	Customers    int
	Products     int
	Territories  int
	Salespersons int
	Dates        int
	Sales        int
	Inventory    int
}

// DecodeFixture parses a YAML fixture.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return &f, nil
}

// ImportFile reads and imports the fixture at path.
func ImportFile(ctx context.Context, logger *slog.Logger, db *gorm.DB, path string) (ImportStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	fixture, err := DecodeFixture(file)
	if err != nil {
		return ImportStats{}, err
	}
	return Import(ctx, logger, db, fixture)
}

// Import writes the fixture in a single transaction.
func Import(ctx context.Context, logger *slog.Logger, db *gorm.DB, f *Fixture) (ImportStats, error) {
	rows, err := f.rows()
	if err != nil {
		return ImportStats{}, err
	}

	err = sqlite.PerformWrite(logger, db.WithContext(ctx), func(tx *gorm.DB) error {
		for _, batch := range []struct {
			n    int
			rows any
		}{
			{len(rows.customers), &rows.customers},
			{len(rows.products), &rows.products},
			{len(rows.territories), &rows.territories},
			{len(rows.salespersons), &rows.salespersons},
			{len(rows.dates), &rows.dates},
		} {
			if batch.n == 0 {
				continue
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(batch.rows, batchSize).Error; err != nil {
				return err
			}
		}
		if len(rows.sales) > 0 {
			if err := tx.CreateInBatches(&rows.sales, batchSize).Error; err != nil {
				return err
			}
		}
		if len(rows.inventory) > 0 {
			return tx.CreateInBatches(&rows.inventory, batchSize).Error
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("import fixture: %w", err)
	}

	stats := ImportStats{
		Customers:    len(rows.customers),
		Products:     len(rows.products),
		Territories:  len(rows.territories),
		Salespersons: len(rows.salespersons),
		Dates:        len(rows.dates),
		Sales:        len(rows.sales),
		Inventory:    len(rows.inventory),
	}
	logger.Info("Fixture imported",
		slog.Int("sales", stats.Sales),
		slog.Int("inventory", stats.Inventory),
		slog.Int("dates", stats.Dates))
	return stats, nil
}

type fixtureRows struct {
	customers    []warehouse.DimCustomer
	products     []warehouse.DimProduct
	territories  []warehouse.DimTerritory
	salespersons []warehouse.DimSalesperson
	dates        []warehouse.DimDate
	sales        []warehouse.FactSales
	inventory    []warehouse.FactInventoryMonthly
}

func (f *Fixture) rows() (*fixtureRows, error) {
	out := &fixtureRows{}
	dateSeen := map[int]bool{}
	addDate := func(raw string) (int, error) {
		at, err := time.Parse(fixtureDate, raw)
		if err != nil {
			return 0, fmt.Errorf("%w: date %q: want YYYY-MM-DD", ErrInvalidFixture, raw)
		}
		d := warehouse.DimDateFor(at)
		if !dateSeen[d.DateKey] {
			dateSeen[d.DateKey] = true
			out.dates = append(out.dates, d)
		}
		return d.DateKey, nil
	}

	for _, c := range f.Customers {
		out.customers = append(out.customers, warehouse.DimCustomer{CustomerID: c.ID, FullName: c.Name, CustomerSegment: c.Segment})
	}
	for _, p := range f.Products {
		out.products = append(out.products, warehouse.DimProduct{ProductID: p.ID, ProductName: p.Name, ProductCategoryName: p.Category})
	}
	for _, t := range f.Territories {
		out.territories = append(out.territories, warehouse.DimTerritory{
			TerritoryID:   t.ID,
			TerritoryName: t.Name,
			Country:       t.Country,
			Region:        t.Region,
			GroupName:     t.Group,
		})
	}
	for _, sp := range f.Salespersons {
		out.salespersons = append(out.salespersons, warehouse.DimSalesperson{
			SalespersonID: sp.ID,
			FullName:      sp.Name,
			JobTitle:      sp.JobTitle,
			TerritoryID:   sp.TerritoryID,
		})
	}

	for i, s := range f.Sales {
		if s.Order == "" {
			return nil, fmt.Errorf("%w: sale %d has no order number", ErrInvalidFixture, i+1)
		}
		fact := warehouse.FactSales{
			OrderNumber:     s.Order,
			OrderLineNumber: s.Line,
			CustomerID:      s.Customer,
			ProductID:       s.Product,
			TerritoryID:     s.Territory,
			SalespersonID:   s.Salesperson,
			SalesAmount:     s.Sales,
			ProfitAmount:    s.Profit,
			DiscountAmount:  s.Discount,
			DiscountRate:    s.DiscountRate,
			OrderQuantity:   s.Quantity,
		}
		if fact.DiscountAmount == nil && s.Sales != nil && s.DiscountRate != nil {
			discount := *s.Sales * *s.DiscountRate
			fact.DiscountAmount = &discount
		}
		if s.Date != "" {
			key, err := addDate(s.Date)
			if err != nil {
				return nil, err
			}
			fact.DateKey = &key
		}
		out.sales = append(out.sales, fact)
	}

	for _, inv := range f.Inventory {
		key, err := addDate(inv.Month)
		if err != nil {
			return nil, err
		}
		out.inventory = append(out.inventory, warehouse.FactInventoryMonthly{
			ProductID: inv.Product,
			DateKey:   key,
			AvgQty:    inv.AvgQty,
		})
	}

	return out, nil
}

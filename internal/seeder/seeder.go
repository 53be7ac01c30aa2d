// Package seeder fills the warehouse with demo data, either generated or
// imported from a YAML fixture.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salesboard/internal/warehouse"
)

const batchSize = 500

type catalogProduct struct {
	id       uint
	name     string
	category string
	price    float64
	margin   float64
}

var catalog = []catalogProduct{
	{1, "Mountain-200 Black", "Bikes", 2295.0, 0.18},
	{2, "Road-250 Red", "Bikes", 2443.35, 0.16},
	{3, "Touring-1000 Blue", "Bikes", 2384.07, 0.17},
	{4, "Road-750 Black", "Bikes", 539.99, 0.22},
	{5, "HL Mountain Frame", "Components", 1364.5, 0.25},
	{6, "ML Road Frame", "Components", 594.83, 0.27},
	{7, "HL Crankset", "Components", 404.99, 0.30},
	{8, "Front Derailleur", "Components", 91.49, 0.33},
	{9, "Long-Sleeve Logo Jersey", "Clothing", 49.99, 0.45},
	{10, "Classic Vest", "Clothing", 63.5, 0.42},
	{11, "Half-Finger Gloves", "Clothing", 24.49, 0.48},
	{12, "Sport-100 Helmet", "Accessories", 34.99, 0.55},
	{13, "Water Bottle", "Accessories", 4.99, 0.6},
	{14, "Patch Kit", "Accessories", 2.29, 0.62},
	{15, "Hydration Pack", "Accessories", 54.99, 0.5},
	{16, "Bike Wash", "Accessories", 7.95, 0.58},
}

var territories = []warehouse.DimTerritory{
	{TerritoryID: 1, TerritoryName: "Northwest", Country: ptr("US"), Region: ptr("North America"), GroupName: ptr("North America")},
	{TerritoryID: 2, TerritoryName: "Southwest", Country: ptr("US"), Region: ptr("North America"), GroupName: ptr("North America")},
	{TerritoryID: 3, TerritoryName: "Canada", Country: ptr("CA"), Region: ptr("North America"), GroupName: ptr("North America")},
	{TerritoryID: 4, TerritoryName: "France", Country: ptr("FR"), Region: ptr("Europe"), GroupName: ptr("Europe")},
	{TerritoryID: 5, TerritoryName: "Germany", Country: ptr("DE"), Region: ptr("Europe"), GroupName: ptr("Europe")},
	{TerritoryID: 6, TerritoryName: "Australia", Country: ptr("AU"), Region: ptr("Pacific"), GroupName: ptr("Pacific")},
	{TerritoryID: 7, TerritoryName: "United Kingdom", Country: ptr("GB"), Region: ptr("Europe"), GroupName: ptr("Europe")},
}

var (
	firstNames = []string{"Ana", "Ben", "Cara", "David", "Elena", "Farid", "Grace", "Hiro", "Ines", "Jonas", "Kemal", "Lena", "Marco", "Nadia", "Omar", "Priya"}
	lastNames  = []string{"Diaz", "Ito", "Lund", "Moreau", "Novak", "Okafor", "Park", "Quinn", "Rossi", "Schmidt", "Tanaka", "Usman", "Vega", "Weber"}
	segments   = []string{"Consumer", "Corporate", "Home Office", "Small Business"}
	jobTitles  = []string{"Sales Representative", "Sales Representative", "Senior Sales Representative", "Sales Manager"}
	// Most lines are sold at list price.
	discountRates = []float64{0, 0, 0, 0, 0.02, 0.05, 0.1, 0.15, 0.2, 0.35}
)

// Seeder generates a reproducible demo warehouse.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	OrderCount int
	Seed       uint64
	Start      time.Time
	Months     int

	rng *rand.Rand
}

// NewSeeder creates a seeder producing orderCount orders over 36 months
// starting January 2003. The same seed always produces the same warehouse.
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, orderCount int, seed uint64) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		OrderCount: orderCount,
		Seed:       seed,
		Start:      time.Date(2003, time.January, 1, 0, 0, 0, 0, time.UTC),
		Months:     36,
	}
}

// Run replaces the warehouse contents with generated data.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Starting warehouse seeding...", slog.Int("orders", s.OrderCount), slog.Uint64("seed", s.Seed))

	s.rng = rand.New(rand.NewPCG(s.Seed, s.Seed^0x5eed))
	db := s.DBManager.GetConnection().WithContext(ctx)

	if err := Reset(s.Logger, db); err != nil {
		return fmt.Errorf("failed to reset warehouse: %w", err)
	}

	customers := s.customers()
	salespersons := s.salespersons()
	products := make([]warehouse.DimProduct, len(catalog))
	for i, p := range catalog {
		products[i] = warehouse.DimProduct{ProductID: p.id, ProductName: p.name, ProductCategoryName: ptr(p.category)}
	}

	dates := map[int]warehouse.DimDate{}
	sales := s.sales(customers, salespersons, dates)
	inventory := s.inventory(dates)

	dateRows := make([]warehouse.DimDate, 0, len(dates))
	for _, d := range dates {
		dateRows = append(dateRows, d)
	}

	err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		for _, rows := range []any{&customers, &products, &territories, &salespersons, &dateRows} {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, batchSize).Error; err != nil {
				return err
			}
		}
		if len(sales) > 0 {
			if err := tx.CreateInBatches(&sales, batchSize).Error; err != nil {
				return err
			}
		}
		if len(inventory) > 0 {
			return tx.CreateInBatches(&inventory, batchSize).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write warehouse: %w", err)
	}

	s.Logger.Info("Seeding completed successfully",
		slog.Int("customers", len(customers)),
		slog.Int("salesLines", len(sales)),
		slog.Int("inventorySnapshots", len(inventory)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) customers() []warehouse.DimCustomer {
	n := max(s.OrderCount/3, 10)
	customers := make([]warehouse.DimCustomer, n)
	for i := range customers {
		name := firstNames[s.rng.IntN(len(firstNames))] + " " + lastNames[s.rng.IntN(len(lastNames))]
		var segment *string
		// A few customers were never classified.
		if s.rng.Float64() > 0.05 {
			segment = ptr(segments[s.rng.IntN(len(segments))])
		}
		customers[i] = warehouse.DimCustomer{CustomerID: uint(i + 1), FullName: name, CustomerSegment: segment}
	}
	return customers
}

func (s *Seeder) salespersons() []warehouse.DimSalesperson {
	people := make([]warehouse.DimSalesperson, 0, len(territories)+2)
	for i := 0; i < len(territories)+2; i++ {
		territory := territories[i%len(territories)].TerritoryID
		people = append(people, warehouse.DimSalesperson{
			SalespersonID: uint(i + 1),
			FullName:      firstNames[(i*5)%len(firstNames)] + " " + lastNames[(i*3)%len(lastNames)],
			JobTitle:      ptr(jobTitles[s.rng.IntN(len(jobTitles))]),
			TerritoryID:   &territory,
		})
	}
	return people
}

func (s *Seeder) sales(customers []warehouse.DimCustomer, salespersons []warehouse.DimSalesperson, dates map[int]warehouse.DimDate) []warehouse.FactSales {
	days := s.Start.AddDate(0, s.Months, 0).Sub(s.Start).Hours() / 24
	lines := make([]warehouse.FactSales, 0, s.OrderCount*2)

	for i := 0; i < s.OrderCount; i++ {
		orderNumber := fmt.Sprintf("SO%05d", 43659+i)
		customer := customers[s.rng.IntN(len(customers))].CustomerID
		salesperson := salespersons[s.rng.IntN(len(salespersons))]
		at := s.Start.AddDate(0, 0, s.rng.IntN(int(days)))
		date := warehouse.DimDateFor(at)
		dates[date.DateKey] = date

		for line, idx := range s.rng.Perm(len(catalog))[:1+s.rng.IntN(4)] {
			product := catalog[idx]
			quantity := 1 + s.rng.IntN(5)
			rate := discountRates[s.rng.IntN(len(discountRates))]
			gross := product.price * float64(quantity)
			amount := gross * (1 - rate)
			discount := gross * rate
			profit := amount*product.margin - discount*0.5

			lines = append(lines, warehouse.FactSales{
				OrderNumber:     orderNumber,
				OrderLineNumber: line + 1,
				CustomerID:      &customer,
				ProductID:       &product.id,
				TerritoryID:     salesperson.TerritoryID,
				SalespersonID:   &salesperson.SalespersonID,
				DateKey:         &date.DateKey,
				SalesAmount:     &amount,
				ProfitAmount:    &profit,
				DiscountAmount:  &discount,
				DiscountRate:    &rate,
				OrderQuantity:   &quantity,
			})
		}
	}
	return lines
}

func (s *Seeder) inventory(dates map[int]warehouse.DimDate) []warehouse.FactInventoryMonthly {
	snapshots := make([]warehouse.FactInventoryMonthly, 0, len(catalog)*s.Months)
	for m := 0; m < s.Months; m++ {
		month := warehouse.DimDateFor(s.Start.AddDate(0, m, 0))
		dates[month.DateKey] = month
		for _, product := range catalog {
			qty := float64(5 + s.rng.IntN(200))
			snapshots = append(snapshots, warehouse.FactInventoryMonthly{
				ProductID: product.id,
				DateKey:   month.DateKey,
				AvgQty:    &qty,
			})
		}
	}
	return snapshots
}

// Reset deletes every warehouse row, facts first.
func Reset(logger *slog.Logger, db *gorm.DB) error {
	models := warehouse.Models()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		for i := len(models) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func ptr[T any](v T) *T {
	return &v
}

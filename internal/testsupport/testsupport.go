package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"salesboard/internal"
	"salesboard/internal/config"
	"salesboard/internal/warehouse"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

// SetupTestDB creates an in-memory warehouse with every table migrated.
// The database is cached by root test name so subtests share it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(warehouse.Models()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set SALESBOARD_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)
	CleanTables(db, tableNames)
}

// CleanTables deletes every row of the named tables.
func CleanTables(db *gorm.DB, tables []string) {
	if len(tables) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateCustomer inserts a customer dimension row. An empty segment is stored
// as NULL.
func CreateCustomer(t *testing.T, db *gorm.DB, id uint, name, segment string) warehouse.DimCustomer {
	t.Helper()
	c := warehouse.DimCustomer{CustomerID: id, FullName: name, CustomerSegment: optional(segment)}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// CreateProduct inserts a product dimension row. An empty category is stored
// as NULL.
func CreateProduct(t *testing.T, db *gorm.DB, id uint, name, category string) warehouse.DimProduct {
	t.Helper()
	p := warehouse.DimProduct{ProductID: id, ProductName: name, ProductCategoryName: optional(category)}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// CreateTerritory inserts a territory dimension row.
func CreateTerritory(t *testing.T, db *gorm.DB, id uint, name, country, region string) warehouse.DimTerritory {
	t.Helper()
	tr := warehouse.DimTerritory{
		TerritoryID:   id,
		TerritoryName: name,
		Country:       optional(country),
		Region:        optional(region),
	}
	require.NoError(t, db.Create(&tr).Error)
	return tr
}

// CreateSalesperson inserts a salesperson dimension row.
func CreateSalesperson(t *testing.T, db *gorm.DB, id uint, name, title string) warehouse.DimSalesperson {
	t.Helper()
	sp := warehouse.DimSalesperson{SalespersonID: id, FullName: name, JobTitle: optional(title)}
	require.NoError(t, db.Create(&sp).Error)
	return sp
}

// Sale describes one order line for CreateSale. Zero dimension ids leave the
// foreign key NULL and a zero Date leaves the line undated.
type Sale struct {
	OrderNumber   string
	Line          int
	CustomerID    uint
	ProductID     uint
	TerritoryID   uint
	SalespersonID uint
	Date          time.Time
	Sales         float64
	Profit        float64
	DiscountRate  float64
	Quantity      int
}

// CreateSale inserts an order line, creating its calendar row when needed.
func CreateSale(t *testing.T, db *gorm.DB, s Sale) warehouse.FactSales {
	t.Helper()

	discount := s.Sales * s.DiscountRate
	fact := warehouse.FactSales{
		OrderNumber:     s.OrderNumber,
		OrderLineNumber: s.Line,
		CustomerID:      optionalID(s.CustomerID),
		ProductID:       optionalID(s.ProductID),
		TerritoryID:     optionalID(s.TerritoryID),
		SalespersonID:   optionalID(s.SalespersonID),
		SalesAmount:     &s.Sales,
		ProfitAmount:    &s.Profit,
		DiscountAmount:  &discount,
		DiscountRate:    &s.DiscountRate,
		OrderQuantity:   &s.Quantity,
	}
	if !s.Date.IsZero() {
		key := ensureDate(t, db, s.Date)
		fact.DateKey = &key
	}

	require.NoError(t, db.Create(&fact).Error)
	return fact
}

// CreateInventory inserts a monthly inventory snapshot for a product.
func CreateInventory(t *testing.T, db *gorm.DB, productID uint, month time.Time, avgQty float64) warehouse.FactInventoryMonthly {
	t.Helper()

	snapshot := warehouse.FactInventoryMonthly{
		ProductID: productID,
		DateKey:   ensureDate(t, db, month),
		AvgQty:    &avgQty,
	}
	require.NoError(t, db.Create(&snapshot).Error)
	return snapshot
}

// CreateMinimalTestApp creates a test Fiber app with all routes
func CreateMinimalTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = NewTestDBManager(db)
	// Report endpoints are read by dashboards and scripts alike.
	cfg.EnableSecFetchSite = false

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

func ensureDate(t *testing.T, db *gorm.DB, at time.Time) int {
	t.Helper()
	row := warehouse.DimDateFor(at)
	require.NoError(t, db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error)
	return row.DateKey
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"salesboard/internal/config"
	"salesboard/internal/testsupport"
)

func TestMain(m *testing.M) {
	os.Setenv("SALESBOARD_ENV", config.Test)
	config.Reset()
	os.Exit(m.Run())
}

func seedSales(t *testing.T, db *gorm.DB) {
	t.Helper()

	testsupport.CreateCustomer(t, db, 1, "Ana Diaz", "Corporate")
	testsupport.CreateProduct(t, db, 10, "Road Bike", "Bikes")
	testsupport.CreateProduct(t, db, 20, "Helmet", "Accessories")
	testsupport.CreateTerritory(t, db, 5, "Northwest", "US", "North America")

	at := time.Date(2003, time.July, 1, 0, 0, 0, 0, time.UTC)
	testsupport.CreateSale(t, db, testsupport.Sale{OrderNumber: "SO1", Line: 1, CustomerID: 1, ProductID: 10, TerritoryID: 5, Date: at, Sales: 1000, Profit: 300, Quantity: 1})
	testsupport.CreateSale(t, db, testsupport.Sale{OrderNumber: "SO1", Line: 2, CustomerID: 1, ProductID: 20, TerritoryID: 5, Date: at, Sales: 40, Profit: 10, Quantity: 1})
}

func get(t *testing.T, app *fiber.App, target string) (int, fiber.Map, http.Header) {
	t.Helper()

	req := httptest.NewRequest("GET", target, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload fiber.Map
	require.NoError(t, json.Unmarshal(body, &payload), string(body))
	return resp.StatusCode, payload, resp.Header
}

func TestReportEndpoints(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedSales(t, db)
	app := testsupport.CreateMinimalTestApp(t, db)

	for _, path := range []string{
		"/api/customer-value",
		"/api/bundling",
		"/api/dashboard",
		"/api/discount-territory",
		"/api/inventory-turnover",
		"/api/purchase-frequency",
		"/api/salesperson-retention",
	} {
		t.Run(path, func(t *testing.T) {
			status, payload, header := get(t, app, path)
			assert.Equal(t, fiber.StatusOK, status)
			assert.NotContains(t, payload, "error")
			assert.Equal(t, "public, s-maxage=300, stale-while-revalidate=600", header.Get("Cache-Control"))
			assert.Contains(t, header.Get("Content-Type"), "application/json")
		})
	}
}

func TestDashboardEndpointSummary(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedSales(t, db)
	app := testsupport.CreateMinimalTestApp(t, db)

	status, payload, _ := get(t, app, "/api/dashboard")
	require.Equal(t, fiber.StatusOK, status)

	summary, ok := payload["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1040.0, summary["total_revenue"])
	assert.Equal(t, 1.0, summary["total_orders"])
}

func TestReportEndpointFilters(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedSales(t, db)
	app := testsupport.CreateMinimalTestApp(t, db)

	status, payload, _ := get(t, app, "/api/dashboard?category=Accessories")
	require.Equal(t, fiber.StatusOK, status)
	summary := payload["summary"].(map[string]any)
	assert.Equal(t, 40.0, summary["total_revenue"])

	status, payload, _ = get(t, app, "/api/dashboard?year=1999")
	require.Equal(t, fiber.StatusOK, status)
	summary = payload["summary"].(map[string]any)
	assert.Equal(t, 0.0, summary["total_revenue"])
}

func TestReportEndpointRejectsInvalidYear(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	status, payload, _ := get(t, app, "/api/dashboard?year=soon")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, payload["error"], "invalid filter")
}

func TestReportEndpointServesCachedBody(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedSales(t, db)
	app := testsupport.CreateMinimalTestApp(t, db)

	_, first, _ := get(t, app, "/api/dashboard")

	testsupport.CreateSale(t, db, testsupport.Sale{OrderNumber: "SO2", Line: 1, CustomerID: 1, ProductID: 10, Date: time.Date(2003, time.August, 1, 0, 0, 0, 0, time.UTC), Sales: 500, Profit: 100, Quantity: 1})

	_, second, _ := get(t, app, "/api/dashboard")
	assert.Equal(t, first, second)

	_, filtered, _ := get(t, app, "/api/dashboard?year=2003")
	summary := filtered["summary"].(map[string]any)
	assert.Equal(t, 1540.0, summary["total_revenue"])
}

func TestReportEndpointUpstreamFailure(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	status, payload, _ := get(t, app, "/api/bundling")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to fetch bundling data", payload["error"])
	assert.Equal(t, []any{}, payload["productPairs"])
	assert.Equal(t, []any{}, payload["categoryPairs"])
	assert.Equal(t, []any{}, payload["topCategories"])
}

func TestReportIndex(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	seedSales(t, db)
	app := testsupport.CreateMinimalTestApp(t, db)

	status, payload, _ := get(t, app, "/api/reports")
	require.Equal(t, fiber.StatusOK, status)

	assert.Len(t, payload["reports"], 7)
	assert.Equal(t, []any{2003.0}, payload["years"])
	assert.Equal(t, []any{"Accessories", "Bikes"}, payload["categories"])
}

func TestHealthEndpoint(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	app := testsupport.CreateMinimalTestApp(t, db)

	status, payload, _ := get(t, app, "/_health")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "ok", payload["db_status"])
}

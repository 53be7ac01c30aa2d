// Package reports ties the warehouse loaders to the analytics core: it knows
// which datasets each named report needs, loads them, and encodes the result.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"salesboard/internal/analytics"
	"salesboard/internal/config"
	"salesboard/internal/pkg/async"
	"salesboard/internal/warehouse"
)

var (
	// ErrUnknownReport is returned for a report name outside the registry.
	ErrUnknownReport = errors.New("unknown report")
	// ErrInvalidFilter is returned when a query value cannot be parsed.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Report names.
const (
	CustomerValue        = "customer-value"
	Bundling             = "bundling"
	Dashboard            = "dashboard"
	DiscountTerritory    = "discount-territory"
	InventoryTurnover    = "inventory-turnover"
	PurchaseFrequency    = "purchase-frequency"
	SalespersonRetention = "salesperson-retention"
)

const (
	taskSales     = "sales"
	taskInventory = "inventory"
	taskYears     = "years"
)

type inputs struct {
	sales     []analytics.SalesFact
	inventory []analytics.InventoryFact
	years     []int
}

type definition struct {
	name          string
	description   string
	withInventory bool
	withYears     bool
	rowLimit      func(*config.Config) int
	compute       func(in inputs, now time.Time) any
}

var registry = []definition{
	{
		name:        CustomerValue,
		description: "Customer lifetime value with RFM segmentation",
		rowLimit:    func(c *config.Config) int { return c.CustomerValueRowLimit },
		compute: func(in inputs, now time.Time) any {
			return analytics.CustomerValue(in.sales, now)
		},
	},
	{
		name:        Bundling,
		description: "Products and categories bought together",
		compute: func(in inputs, _ time.Time) any {
			return analytics.Bundling(in.sales)
		},
	},
	{
		name:        Dashboard,
		description: "Revenue, profit and order overview",
		rowLimit:    func(c *config.Config) int { return c.DashboardRowLimit },
		compute: func(in inputs, now time.Time) any {
			return analytics.Dashboard(in.sales, now)
		},
	},
	{
		name:        DiscountTerritory,
		description: "Discount depth and margin by territory",
		withYears:   true,
		compute: func(in inputs, _ time.Time) any {
			report := analytics.DiscountByTerritory(in.sales, in.years)
			presentTerritories(&report)
			return report
		},
	},
	{
		name:          InventoryTurnover,
		description:   "Inventory turnover and days to sell",
		withInventory: true,
		compute: func(in inputs, _ time.Time) any {
			return analytics.InventoryTurnover(in.sales, in.inventory)
		},
	},
	{
		name:        PurchaseFrequency,
		description: "Orders per customer and year by segment",
		rowLimit:    func(c *config.Config) int { return c.PurchaseFrequencyRowLimit },
		compute: func(in inputs, _ time.Time) any {
			return analytics.PurchaseFrequency(in.sales)
		},
	},
	{
		name:        SalespersonRetention,
		description: "Repeat customers per salesperson",
		compute: func(in inputs, _ time.Time) any {
			return analytics.SalespersonRetentionReport(in.sales)
		},
	},
}

// Info describes one registered report.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

// Names returns the registered report names in display order.
func Names() []string {
	names := make([]string, len(registry))
	for i, def := range registry {
		names[i] = def.name
	}
	return names
}

// Catalog returns the registered reports with their API paths.
func Catalog() []Info {
	infos := make([]Info, len(registry))
	for i, def := range registry {
		infos[i] = Info{Name: def.name, Description: def.description, Path: "/api/" + def.name}
	}
	return infos
}

func lookup(name string) (definition, error) {
	for _, def := range registry {
		if def.name == name {
			return def, nil
		}
	}
	return definition{}, fmt.Errorf("%w: %q", ErrUnknownReport, name)
}

// Empty returns the report's shape for a warehouse with no rows.
func Empty(name string) (any, error) {
	def, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return def.compute(inputs{years: []int{}}, time.Now().UTC()), nil
}

// Build loads the datasets the named report needs, filtered by f, and
// computes it as of now. Load failures wrap warehouse.ErrUpstream and no
// partial report is returned.
func Build(ctx context.Context, db *gorm.DB, name string, f Filter, now time.Time) (any, error) {
	def, err := lookup(name)
	if err != nil {
		return nil, err
	}

	cfg := config.GetConfig()
	if timeout := cfg.QueryTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	limit := 0
	if def.rowLimit != nil {
		limit = def.rowLimit(cfg)
	}

	tasks := []async.Task{
		{
			Name: taskSales,
			Execute: func(ctx context.Context) (any, error) {
				return warehouse.LoadSales(ctx, db, warehouse.SalesFilter{Year: f.Year, Category: f.Category, Limit: limit})
			},
		},
	}
	if def.withInventory {
		tasks = append(tasks, async.Task{
			Name: taskInventory,
			Execute: func(ctx context.Context) (any, error) {
				return warehouse.LoadInventory(ctx, db, warehouse.InventoryFilter{Year: f.Year, Category: f.Category})
			},
		})
	}
	if def.withYears {
		tasks = append(tasks, async.Task{
			Name: taskYears,
			Execute: func(ctx context.Context) (any, error) {
				return warehouse.ListYears(ctx, db)
			},
		})
	}

	results, err := async.NewPool(cfg.LoaderConcurrency).Execute(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}

	in := inputs{
		sales:     analytics.NormalizeAll(async.Value[[]analytics.RawSale](results, taskSales)),
		inventory: analytics.NormalizeInventoryAll(async.Value[[]analytics.RawInventory](results, taskInventory)),
		years:     async.Value[[]int](results, taskYears),
	}
	if def.withYears && in.years == nil {
		in.years = []int{}
	}

	return def.compute(in, now), nil
}

// Encode serializes a report as JSON.
func Encode(report any) ([]byte, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return body, nil
}

// EncodeError serializes the report's empty shape with an error message
// attached, so clients that expect the shape keep working.
func EncodeError(name, message string) ([]byte, error) {
	empty, err := Empty(name)
	if err != nil {
		return nil, err
	}

	body, err := Encode(empty)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode empty report: %w", err)
	}
	fields["error"] = message

	return Encode(fields)
}

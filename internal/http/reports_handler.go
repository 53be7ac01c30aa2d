package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"salesboard/internal/reports"
	"salesboard/internal/warehouse"
)

// maxCachedReports bounds the byte cache; the oldest entries are evicted first.
const maxCachedReports = 512

const filterValuesKey = "filters"

// filterValues are the years and categories present in the warehouse. Only
// filters naming these are cached, which keeps the key space finite.
type filterValues struct {
	years      map[int]bool
	categories map[string]bool
}

// ReportHandler serves the analytics reports. Encoded reports are kept in a
// TTL store keyed by report name and filter. Concurrent misses on one key
// share a single build; builds never hold a lock other requests wait on.
type ReportHandler struct {
	db      *gorm.DB
	logger  *slog.Logger
	ttl     time.Duration
	store   cache.Store
	filters *cache.Cache[string, filterValues]
	flights singleflight.Group
	build   func(ctx context.Context, name string, f reports.Filter) ([]byte, error)
	now     func() time.Time
}

// NewReportHandler creates a handler reading from db. A zero ttl disables
// caching.
func NewReportHandler(db *gorm.DB, logger *slog.Logger, ttl time.Duration) *ReportHandler {
	h := &ReportHandler{
		db:     db,
		logger: logger,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
	h.build = h.buildReport
	if ttl > 0 {
		h.store = cache.NewMemoryStore(
			cache.WithTTL(ttl),
			cache.WithMaxEntries(maxCachedReports),
			cache.WithCleanupInterval(ttl),
		)
		h.filters = cache.NewCache[string, filterValues](logger, ttl, h.fetchFilterValues)
	}
	return h
}

func (h *ReportHandler) buildReport(ctx context.Context, name string, f reports.Filter) ([]byte, error) {
	report, err := reports.Build(ctx, h.db, name, f, h.now())
	if err != nil {
		return nil, err
	}
	return reports.Encode(report)
}

func (h *ReportHandler) fetchFilterValues(string) (filterValues, error) {
	ctx := context.Background()
	years, err := warehouse.ListYears(ctx, h.db)
	if err != nil {
		return filterValues{}, err
	}
	categories, err := warehouse.ListCategories(ctx, h.db)
	if err != nil {
		return filterValues{}, err
	}

	known := filterValues{
		years:      make(map[int]bool, len(years)),
		categories: make(map[string]bool, len(categories)),
	}
	for _, y := range years {
		known.years[y] = true
	}
	for _, c := range categories {
		known.categories[c] = true
	}
	return known, nil
}

func (h *ReportHandler) cacheable(f reports.Filter) bool {
	if f.Year == 0 && f.Category == "" {
		return true
	}
	known, err := h.filters.Get(filterValuesKey)
	if err != nil {
		return false
	}
	return (f.Year == 0 || known.years[f.Year]) &&
		(f.Category == "" || known.categories[f.Category])
}

// load returns the encoded report. Uncached builds run on the request
// context; a shared build outlives any single caller, who may stop waiting.
func (h *ReportHandler) load(ctx context.Context, name string, f reports.Filter) ([]byte, error) {
	if h.store == nil || !h.cacheable(f) {
		return h.build(ctx, name, f)
	}

	key := name + "|" + f.Key()
	if body, ok := h.store.Read(ctx, key); ok {
		return body, nil
	}

	results := h.flights.DoChan(key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		body, err := h.build(detached, name, f)
		if err != nil {
			return nil, err
		}
		if err := h.store.Write(detached, key, body); err != nil {
			h.logger.Warn("Failed to cache report", slog.String("report", name), slog.Any("error", err))
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// ShowAction returns the handler for one named report.
func (h *ReportHandler) ShowAction(name string) func(ctx *cartridge.Context) error {
	return func(ctx *cartridge.Context) error {
		filter, err := reports.ParseFilter(ctx.Query("year"), ctx.Query("category"))
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		started := time.Now()
		body, err := h.load(ctx.UserContext(), name, filter)
		if err != nil {
			return h.failure(ctx, name, err)
		}

		ctx.Logger.Info("Report served",
			slog.String("report", name),
			slog.Int("year", filter.Year),
			slog.String("category", filter.Category),
			slog.Duration("elapsed", time.Since(started)))

		h.setCacheHeaders(ctx)
		ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return ctx.Status(fiber.StatusOK).Send(body)
	}
}

func (h *ReportHandler) failure(ctx *cartridge.Context, name string, err error) error {
	if errors.Is(err, reports.ErrUnknownReport) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx.Logger.Error("Failed to build report",
		slog.String("report", name),
		slog.Bool("upstream", errors.Is(err, warehouse.ErrUpstream)),
		slog.Any("error", err))

	body, encodeErr := reports.EncodeError(name, fmt.Sprintf("Failed to fetch %s data", name))
	if encodeErr != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch report data",
		})
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Status(fiber.StatusInternalServerError).Send(body)
}

func (h *ReportHandler) setCacheHeaders(ctx *cartridge.Context) {
	if h.ttl <= 0 {
		ctx.Set(fiber.HeaderCacheControl, "no-store")
		return
	}
	seconds := int(h.ttl / time.Second)
	ctx.Set(fiber.HeaderCacheControl,
		fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", seconds, seconds*2))
}

// ReportCatalog is the response of the report index.
type ReportCatalog struct {
	Reports    []reports.Info `json:"reports"`
	Years      []int          `json:"years"`
	Categories []string       `json:"categories"`
}

// IndexAction lists the available reports together with the filter values
// the warehouse currently holds.
func (h *ReportHandler) IndexAction(ctx *cartridge.Context) error {
	c := ctx.UserContext()

	years, err := warehouse.ListYears(c, h.db)
	if err != nil {
		ctx.Logger.Error("Failed to list years", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list report filters",
		})
	}

	categories, err := warehouse.ListCategories(c, h.db)
	if err != nil {
		ctx.Logger.Error("Failed to list categories", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list report filters",
		})
	}

	return ctx.JSON(ReportCatalog{
		Reports:    reports.Catalog(),
		Years:      years,
		Categories: categories,
	})
}

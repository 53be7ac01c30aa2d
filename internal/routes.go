package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"salesboard/internal/config"
	"salesboard/internal/http"
	"salesboard/internal/reports"
)

// reportCORSConfig lets dashboards hosted elsewhere read the report API.
var reportCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "GET,HEAD,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Rate limiting only applies in production; it would interfere with tests.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Reports are computed in memory over up to tens of thousands of rows.
	reportRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(60),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Read-only JSON API: no Sec-Fetch-Site so scripts and other dashboards
	// can call it.
	reportAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{reportRateLimiter},
		CORSConfig:         reportCORSConfig,
	}

	healthConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
	}

	db := srv.GetDBManager().GetConnection()
	reportHandler := http.NewReportHandler(db, srv.GetLogger(), cfg.ReportCacheTTL())

	srv.Get("/_health", http.HealthIndexAction, healthConfig)
	srv.Head("/_health", http.HealthIndexAction, healthConfig)

	srv.Get("/api/reports", reportHandler.IndexAction, reportAPIConfig)
	for _, name := range reports.Names() {
		srv.Get("/api/"+name, reportHandler.ShowAction(name), reportAPIConfig)
		srv.Options("/api/"+name, func(ctx *cartridge.Context) error {
			return ctx.SendStatus(fiber.StatusNoContent)
		}, reportAPIConfig)
	}
}

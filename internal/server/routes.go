package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Browser extension clients send credentials from arbitrary origins, so
	// the origin is reflected rather than wildcarded.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return true, nil
		},
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	// Optional API key authentication; the websocket endpoint and health
	// check stay open so feed clients and probes work without a key.
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				p := c.Path()
				return p == "/ws" || p == "/health"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	e.GET("/health", h.Health)                 // Health check endpoint
	e.GET("/contracts", h.Contracts)           // Stored contract event feed
	e.GET("/token-info/:address", h.TokenInfo) // Enriched token metadata
	e.GET("/ws", h.LiveFeed)                   // Websocket live feed

	// License endpoints with rate limiting on purchase
	licGroup := e.Group("/license")
	purchaseLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(1), // 1 purchase per second per client
		Burst:     3,
		ExpiresIn: 2 * time.Minute,
	}))
	licGroup.POST("/purchase", h.LicensePurchase, purchaseLimiter)
	licGroup.GET("/status", h.LicenseStatus)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pulsesignals/contract-relay/internal/events"
	"github.com/pulsesignals/contract-relay/internal/license"
	"github.com/pulsesignals/contract-relay/internal/livefeed"
	"github.com/pulsesignals/contract-relay/internal/token"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Events   *events.Store  // Redis-backed contract event history
	Tokens   *token.Cache   // Token metadata cache with provider fallback
	Licenses license.Store  // License persistence (Postgres in production)
	Hub      *livefeed.Hub  // Websocket client registry
	DevMode  bool           // Enable detailed error responses in development
	Logger   *logrus.Logger // Structured logger

	upgrader websocket.Upgrader
}

// NewHandlers wires handler dependencies and the websocket upgrader.
// Origins are not restricted; the feed is read-only and carries public data.
func NewHandlers(h Handlers) *Handlers {
	if h.Logger == nil {
		h.Logger = logrus.New()
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	return &h
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Contracts returns the stored contract event feed. The response is an
// array of events from the ordered log, or an address-to-channel map when
// only legacy hash data exists.
func (h *Handlers) Contracts(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Events.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list contracts", map[string]any{"err": err.Error()})
	}

	if res.FromLegacy() {
		return c.JSON(http.StatusOK, res.Legacy)
	}
	if res.Events == nil {
		return c.JSON(http.StatusOK, []events.Event{})
	}
	return c.JSON(http.StatusOK, res.Events)
}

// TokenInfo returns enriched metadata for a token address. Providers that
// are down produce partial data, never an error response.
func (h *Handlers) TokenInfo(c echo.Context) error {
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		return h.err(c, http.StatusBadRequest, "address is required", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	info, err := h.Tokens.Get(ctx, address)
	if err != nil {
		if errors.Is(err, token.ErrEmptyAddress) {
			return h.err(c, http.StatusBadRequest, "address is required", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to fetch token info", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, info)
}

// LicensePurchase issues a new license key for the requested tier
func (h *Handlers) LicensePurchase(c echo.Context) error {
	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lic, err := h.Licenses.Purchase(ctx, strings.TrimSpace(req.Tier))
	if err != nil {
		if errors.Is(err, license.ErrInvalidTier) {
			return h.err(c, http.StatusBadRequest, "invalid tier", map[string]any{"tier": "must be monthly or yearly"})
		}
		return h.err(c, http.StatusInternalServerError, "failed to create license", nil)
	}
	return c.JSON(http.StatusOK, lic)
}

// LicenseStatus reports whether a key is currently valid. The check fails
// closed: lookup errors and missing keys both report an inactive license.
func (h *Handlers) LicenseStatus(c echo.Context) error {
	key := strings.TrimSpace(c.QueryParam("key"))
	if key == "" {
		return c.JSON(http.StatusOK, license.Status{Active: false})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status, err := h.Licenses.Status(ctx, key)
	if err != nil {
		h.Logger.WithError(err).Warn("license status lookup failed")
		return c.JSON(http.StatusOK, license.Status{Active: false})
	}
	return c.JSON(http.StatusOK, status)
}

// LiveFeed upgrades the connection to a websocket and registers it with the
// hub. The handler blocks in the read loop until the client disconnects.
func (h *Handlers) LiveFeed(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake failure response.
		h.Logger.WithError(err).Debug("websocket upgrade failed")
		return nil
	}

	client := h.Hub.Add(conn)
	client.ReadLoop()
	return nil
}

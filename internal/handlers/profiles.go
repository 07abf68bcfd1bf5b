package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/harborai/harbor/internal/authprofiles"
	"github.com/harborai/harbor/internal/config"
)

// ProfilesHandler exposes the resolved credential-profile rotation order.
type ProfilesHandler struct {
	cfg    config.Config
	store  *authprofiles.Store
	logger *slog.Logger
}

func NewProfilesHandler(log *slog.Logger, cfg config.Config, store *authprofiles.Store) *ProfilesHandler {
	return &ProfilesHandler{
		cfg:    cfg,
		store:  store,
		logger: log.With(slog.String("handler", "profiles")),
	}
}

func (h *ProfilesHandler) Register(e *echo.Echo) {
	e.GET("/profiles/:provider/order", h.Order)
}

// OrderResponse is the resolved rotation order for one provider.
type OrderResponse struct {
	Provider string   `json:"provider"`
	Order    []string `json:"order"`
	LastGood string   `json:"last_good,omitempty"`
}

// Order returns the profile rotation order for a provider, optionally with
// a ?preferred=<key> promotion applied.
func (h *ProfilesHandler) Order(c echo.Context) error {
	provider := strings.TrimSpace(c.Param("provider"))
	if provider == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider is required")
	}
	preferred := strings.TrimSpace(c.QueryParam("preferred"))
	order := authprofiles.ResolveOrder(h.cfg, h.store, provider, preferred)
	return c.JSON(http.StatusOK, OrderResponse{
		Provider: provider,
		Order:    order,
		LastGood: h.store.LastGoodFor(provider),
	})
}

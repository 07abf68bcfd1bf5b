package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harborai/harbor/internal/config"
	"github.com/harborai/harbor/internal/models"
)

// ModelsHandler exposes the resolved model selection and alias table.
type ModelsHandler struct {
	cfg    config.Config
	index  models.AliasIndex
	logger *slog.Logger
}

func NewModelsHandler(log *slog.Logger, cfg config.Config) *ModelsHandler {
	return &ModelsHandler{
		cfg:    cfg,
		index:  models.BuildAliasIndex(cfg, cfg.Agent.DefaultProvider),
		logger: log.With(slog.String("handler", "models")),
	}
}

func (h *ModelsHandler) Register(e *echo.Echo) {
	e.GET("/models", h.List)
}

// ModelEntry is one configured model with its resolved aliases.
type ModelEntry struct {
	Key     string   `json:"key"`
	Primary bool     `json:"primary"`
	Aliases []string `json:"aliases,omitempty"`
}

// ModelsResponse is the resolved selection: primary, fallbacks, and the
// full configured table.
type ModelsResponse struct {
	Primary   string       `json:"primary"`
	Fallbacks []string     `json:"fallbacks,omitempty"`
	Models    []ModelEntry `json:"models"`
}

// List returns the resolved primary model, fallback chain, and alias table.
func (h *ModelsHandler) List(c echo.Context) error {
	primary := models.ResolveConfiguredRef(h.cfg)
	resp := ModelsResponse{Primary: primary.Key()}
	for _, ref := range models.ResolveFallbackRefs(h.cfg) {
		resp.Fallbacks = append(resp.Fallbacks, ref.Key())
	}
	for _, key := range models.ConfiguredKeys(h.cfg) {
		resp.Models = append(resp.Models, ModelEntry{
			Key:     key,
			Primary: key == primary.Key(),
			Aliases: h.index.AliasesFor(key),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

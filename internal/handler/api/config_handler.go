package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dromeport/internal/config"
)

// ConfigHandler exposes the server-side configuration the front-end needs:
// the selectable libraries and which tools are wired up.
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

func (h *ConfigHandler) Get(c echo.Context) error {
	libraries := h.cfg.Library.Libraries
	if libraries == nil {
		libraries = []config.Library{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"libraries": libraries,
		"tools": map[string]interface{}{
			"ytdlpPath":           h.cfg.Tools.YTDLPPath,
			"spotiflacPath":       h.cfg.Tools.SpotiflacPath,
			"spotiflacConfigured": h.cfg.Tools.SpotiflacPath != "",
		},
	})
}

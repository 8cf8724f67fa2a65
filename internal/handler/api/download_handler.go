package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"dromeport/internal/config"
	"dromeport/internal/job"
	"dromeport/internal/models"
	"dromeport/internal/parser"
)

// DownloadHandler serves direct (non-scheduled) acquisitions.
type DownloadHandler struct {
	jobs  *job.Manager
	tools config.ToolsConfig
	log   *zap.Logger
}

func NewDownloadHandler(jobs *job.Manager, tools config.ToolsConfig, log *zap.Logger) *DownloadHandler {
	return &DownloadHandler{jobs: jobs, tools: tools, log: log}
}

// Stream submits a download and streams its output in one request. The
// assigned job id is delivered as the first meta frame so the client can
// cancel or re-attach later. Validation failures are reported in-stream.
func (h *DownloadHandler) Stream(c echo.Context) error {
	url := c.QueryParam("url")
	providerName := c.QueryParam("provider")
	if url == "" || providerName == "" {
		return streamFailure(c, "url and provider are required")
	}

	var cfg models.DownloadConfig
	if raw := c.QueryParam("config"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return streamFailure(c, "invalid config: "+err.Error())
		}
	}
	if providerName == models.ProviderSpotify && cfg.Spotify.SpotiflacPath == "" {
		cfg.Spotify.SpotiflacPath = h.tools.SpotiflacPath
	}

	j, err := h.jobs.Submit(models.DownloadRequest{
		Provider:       providerName,
		URL:            url,
		Config:         cfg,
		PlaylistFolder: c.QueryParam("playlist_folder"),
	})
	if err != nil && j == nil {
		return streamFailure(c, err.Error())
	}

	w := newSSEWriter(c)
	w.event("meta", parser.Signal{Type: parser.SignalJobID, Value: j.ID()})
	return w.relay(c.Request().Context(), j)
}

// Attach re-connects to a tracked job, replaying its full output before
// going live. Finished jobs replay and end immediately.
func (h *DownloadHandler) Attach(c echo.Context) error {
	j, ok := h.jobs.Get(c.Param("id"))
	if !ok {
		return notFound(c, "job not found")
	}
	w := newSSEWriter(c)
	return w.relay(c.Request().Context(), j)
}

// List returns snapshots of all tracked jobs, live first.
func (h *DownloadHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.jobs.List())
}

// Cancel terminates a job and cleans up partial files. Cancelling an
// unknown or finished job is not an error; when a library path is supplied
// its partials are swept regardless.
func (h *DownloadHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	removed, found := h.jobs.Cancel(id)
	if !found {
		if dir := c.QueryParam("library_path"); dir != "" {
			removed = h.jobs.SweepPartials(dir)
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "cancelled",
		"removed_partials": removed,
	})
}

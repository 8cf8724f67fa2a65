package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"dromeport/internal/models"
	"dromeport/internal/pkg/metadata"
	"dromeport/internal/repository"
	"dromeport/internal/scheduler"
)

// SyncHandler serves the CRUD surface of the recurring syncs plus the
// on-demand run endpoint.
type SyncHandler struct {
	repo   *repository.SyncPlaylistRepository
	engine *scheduler.Engine
	meta   *metadata.Client
	log    *zap.Logger
}

func NewSyncHandler(repo *repository.SyncPlaylistRepository, engine *scheduler.Engine, meta *metadata.Client, log *zap.Logger) *SyncHandler {
	return &SyncHandler{repo: repo, engine: engine, meta: meta, log: log}
}

// syncEntryView is a stored entry plus its live-run state.
type syncEntryView struct {
	models.SyncPlaylist
	Running bool `json:"running"`
}

func (h *SyncHandler) view(entry models.SyncPlaylist) syncEntryView {
	_, running := h.engine.Running(entry.ID)
	return syncEntryView{SyncPlaylist: entry, Running: running}
}

// List returns all sync entries in creation order.
func (h *SyncHandler) List(c echo.Context) error {
	entries, err := h.repo.FindAll()
	if err != nil {
		return internalError(c, err.Error())
	}
	views := make([]syncEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, h.view(entry))
	}
	return c.JSON(http.StatusOK, views)
}

type createSyncRequest struct {
	URL            string                `json:"url"`
	Name           string                `json:"name"`
	Thumb          string                `json:"thumb"`
	Provider       string                `json:"provider"`
	Config         models.DownloadConfig `json:"config"`
	PlaylistFolder string                `json:"playlist_folder"`
	ScheduleType   string                `json:"schedule_type"`
	IntervalValue  int                   `json:"interval_value"`
	IntervalUnit   string                `json:"interval_unit"`
	CronTime       string                `json:"cron_time"`
	CronDays       string                `json:"cron_days"`
	Enabled        *bool                 `json:"enabled"`
}

// Create stores a new sync entry. The submitted config is snapshotted, so
// later UI changes never affect the schedule. Missing display metadata is
// resolved via oEmbed where possible.
func (h *SyncHandler) Create(c echo.Context) error {
	var req createSyncRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body: "+err.Error())
	}
	if req.URL == "" || req.Provider == "" {
		return badRequest(c, "url and provider are required")
	}

	if req.Name == "" || req.Thumb == "" {
		info := h.meta.Lookup(c.Request().Context(), req.URL)
		if req.Name == "" {
			req.Name = info.Title
		}
		if req.Thumb == "" {
			req.Thumb = info.Thumb
		}
	}
	if req.Name == "" {
		req.Name = req.URL
	}

	folder := req.PlaylistFolder
	if folder == "" {
		folder = req.Name
	}
	enabled := req.Enabled == nil || *req.Enabled

	entry := models.SyncPlaylist{
		ID:             uuid.NewString(),
		URL:            req.URL,
		Name:           req.Name,
		Thumb:          req.Thumb,
		Provider:       req.Provider,
		Config:         req.Config.Clone(),
		PlaylistFolder: folder,
		ScheduleType:   req.ScheduleType,
		IntervalValue:  req.IntervalValue,
		IntervalUnit:   req.IntervalUnit,
		CronTime:       req.CronTime,
		CronDays:       req.CronDays,
		Enabled:        enabled,
	}
	if entry.ScheduleType == "" {
		entry.ScheduleType = models.ScheduleInterval
	}
	if enabled {
		next := scheduler.FromEntry(&entry).NextDue(time.Now())
		entry.NextRunAt = &next
	}

	if err := h.repo.Create(&entry); err != nil {
		return internalError(c, err.Error())
	}
	h.log.Info("sync entry created",
		zap.String("entry_id", entry.ID),
		zap.String("name", entry.Name),
		zap.String("provider", entry.Provider))
	return c.JSON(http.StatusCreated, h.view(entry))
}

type updateSyncRequest struct {
	Name          *string `json:"name"`
	ScheduleType  *string `json:"schedule_type"`
	IntervalValue *int    `json:"interval_value"`
	IntervalUnit  *string `json:"interval_unit"`
	CronTime      *string `json:"cron_time"`
	CronDays      *string `json:"cron_days"`
	Enabled       *bool   `json:"enabled"`
}

// Update applies a partial edit to an entry's name, schedule or enablement
// and recomputes its next run.
func (h *SyncHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req updateSyncRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body: "+err.Error())
	}

	entry, err := h.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "sync playlist not found")
		}
		return internalError(c, err.Error())
	}

	if req.Name != nil {
		entry.Name = *req.Name
	}
	if req.ScheduleType != nil {
		entry.ScheduleType = *req.ScheduleType
	}
	if req.IntervalValue != nil {
		entry.IntervalValue = *req.IntervalValue
	}
	if req.IntervalUnit != nil {
		entry.IntervalUnit = *req.IntervalUnit
	}
	if req.CronTime != nil {
		entry.CronTime = *req.CronTime
	}
	if req.CronDays != nil {
		entry.CronDays = *req.CronDays
	}
	if req.Enabled != nil {
		entry.Enabled = *req.Enabled
	}

	var nextRun *time.Time
	if entry.Enabled {
		next := scheduler.FromEntry(entry).NextDue(time.Now())
		nextRun = &next
	}
	entry.NextRunAt = nextRun

	fields := map[string]interface{}{
		"name":           entry.Name,
		"schedule_type":  entry.ScheduleType,
		"interval_value": entry.IntervalValue,
		"interval_unit":  entry.IntervalUnit,
		"cron_time":      entry.CronTime,
		"cron_days":      entry.CronDays,
		"enabled":        entry.Enabled,
		"next_run_at":    nextRun,
	}
	if err := h.repo.UpdateFields(id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "sync playlist not found")
		}
		return internalError(c, err.Error())
	}
	return c.JSON(http.StatusOK, h.view(*entry))
}

// Delete removes an entry. A run already in flight finishes on its own; its
// result is simply not recorded anywhere.
func (h *SyncHandler) Delete(c echo.Context) error {
	err := h.repo.Delete(c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "sync playlist not found")
	}
	if err != nil {
		return internalError(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// Run starts an on-demand run and streams it, or attaches to the run
// already in flight for this entry.
func (h *SyncHandler) Run(c echo.Context) error {
	j, err := h.engine.RunNow(c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "sync playlist not found")
		}
		return streamFailure(c, err.Error())
	}
	w := newSSEWriter(c)
	return w.relay(c.Request().Context(), j)
}

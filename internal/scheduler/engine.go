package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"dromeport/internal/job"
	"dromeport/internal/models"
	"dromeport/internal/repository"
)

// maxRunLogChars bounds the stored log of a sync run; older output is
// dropped first.
const maxRunLogChars = 5000

// Engine drives the recurring syncs: every minute it picks up the entries
// whose next run is due and launches each as a job, one in-flight run per
// entry at most.
type Engine struct {
	repo  *repository.SyncPlaylistRepository
	jobs  *job.Manager
	tools ToolPaths
	log   *zap.Logger

	cron *cron.Cron

	mu      sync.Mutex
	running map[string]*job.Job // entry id -> in-flight run
}

// ToolPaths carries the configured tool locations the engine injects into
// runs whose stored config predates the setting.
type ToolPaths struct {
	SpotiflacPath string
}

func NewEngine(repo *repository.SyncPlaylistRepository, jobs *job.Manager, tools ToolPaths, log *zap.Logger) *Engine {
	return &Engine{
		repo:    repo,
		jobs:    jobs,
		tools:   tools,
		log:     log.Named("scheduler"),
		cron:    cron.New(cron.WithSeconds()),
		running: make(map[string]*job.Job),
	}
}

// Start begins the minute tick. Entries already past due (for example after
// downtime) are picked up on the first tick.
func (e *Engine) Start() error {
	_, err := e.cron.AddFunc("0 * * * * *", func() {
		defer e.recoverFromPanic("due check")
		e.RunDue(time.Now())
	})
	if err != nil {
		return err
	}
	e.cron.Start()
	e.log.Info("schedule engine started")
	return nil
}

// Stop halts the tick and waits for it to finish. In-flight runs are not
// interrupted here; job shutdown is the manager's concern.
func (e *Engine) Stop() {
	ctx := e.cron.Stop()
	<-ctx.Done()
	e.log.Info("schedule engine stopped")
}

func (e *Engine) recoverFromPanic(task string) {
	if r := recover(); r != nil {
		e.log.Error("panic in scheduled task", zap.String("task", task), zap.Any("panic", r))
	}
}

// RunDue launches a run for every enabled entry due at now that does not
// already have one in flight.
func (e *Engine) RunDue(now time.Time) {
	due, err := e.repo.FindDue(now)
	if err != nil {
		e.log.Error("due query failed", zap.Error(err))
		return
	}
	for i := range due {
		entry := due[i]
		if _, err := e.startRun(&entry); err != nil {
			e.log.Error("sync run failed to start",
				zap.String("entry_id", entry.ID), zap.Error(err))
			e.recordFailedStart(&entry, err)
		}
	}
}

// RunNow launches an on-demand run of one entry, or returns the run already
// in flight so the caller can attach to its stream.
func (e *Engine) RunNow(id string) (*job.Job, error) {
	entry, err := e.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return e.startRun(entry)
}

// Running returns the in-flight run for an entry, if any.
func (e *Engine) Running(id string) (*job.Job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.running[id]
	return j, ok
}

func (e *Engine) startRun(entry *models.SyncPlaylist) (*job.Job, error) {
	e.mu.Lock()
	if j, ok := e.running[entry.ID]; ok {
		e.mu.Unlock()
		return j, nil
	}
	e.mu.Unlock()

	j, err := e.jobs.SubmitWithID("sync-"+entry.ID, e.buildRequest(entry))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if existing, ok := e.running[entry.ID]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.running[entry.ID] = j
	e.mu.Unlock()

	e.log.Info("sync run started",
		zap.String("entry_id", entry.ID),
		zap.String("name", entry.Name),
		zap.String("provider", entry.Provider))
	go e.watch(entry.ID, j)
	return j, nil
}

// buildRequest turns a stored entry into a run request. Sync runs always
// land in the entry's own folder, so folder mode is forced and SpotiFLAC's
// own subfolder layouts are turned off.
func (e *Engine) buildRequest(entry *models.SyncPlaylist) models.DownloadRequest {
	cfg := entry.Config.Clone()
	cfg.PlaylistMode = models.PlaylistModeFolder

	if entry.Provider == models.ProviderSpotify {
		if cfg.Spotify.SpotiflacPath == "" {
			cfg.Spotify.SpotiflacPath = e.tools.SpotiflacPath
		}
		off := false
		cfg.Spotify.SpotiflacArtistSubfolders = false
		cfg.Spotify.SpotiflacAlbumSubfolders = &off
	}

	folder := entry.PlaylistFolder
	if folder == "" {
		folder = entry.Name
	}
	return models.DownloadRequest{
		Provider:       entry.Provider,
		URL:            entry.URL,
		Config:         cfg,
		PlaylistFolder: folder,
	}
}

// watch follows a run to completion and records its outcome on the entry.
func (e *Engine) watch(entryID string, j *job.Job) {
	var logBuf strings.Builder
	for ev := range j.Subscribe(context.Background()) {
		if ev.Kind == job.EventLine {
			logBuf.WriteString(ev.Line)
			logBuf.WriteByte('\n')
		}
	}

	e.mu.Lock()
	delete(e.running, entryID)
	e.mu.Unlock()

	endedAt := time.Now()
	status := models.SyncStatusError
	if j.Status() == job.StatusDone {
		status = models.SyncStatusSuccess
	}

	// Re-read the entry so a schedule edited mid-run drives the next due
	// time, and a deleted entry gets nothing written back.
	entry, err := e.repo.FindByID(entryID)
	if err != nil {
		if err != repository.ErrNotFound {
			e.log.Error("entry reload failed", zap.String("entry_id", entryID), zap.Error(err))
		}
		return
	}

	var nextRun *time.Time
	if entry.Enabled {
		next := FromEntry(entry).NextDue(endedAt)
		nextRun = &next
	}

	if err := e.repo.RecordResult(entryID, status, tailChars(logBuf.String(), maxRunLogChars), endedAt, nextRun); err != nil {
		e.log.Error("sync result write failed", zap.String("entry_id", entryID), zap.Error(err))
		return
	}
	e.log.Info("sync run finished",
		zap.String("entry_id", entryID),
		zap.String("status", status),
		zap.Timep("next_run_at", nextRun))
}

// recordFailedStart writes an error record for a run that never launched,
// so a permanently broken entry does not retry every minute.
func (e *Engine) recordFailedStart(entry *models.SyncPlaylist, cause error) {
	endedAt := time.Now()
	var nextRun *time.Time
	if entry.Enabled {
		next := FromEntry(entry).NextDue(endedAt)
		nextRun = &next
	}
	msg := tailChars("❌ Could not start sync: "+cause.Error(), maxRunLogChars)
	if err := e.repo.RecordResult(entry.ID, models.SyncStatusError, msg, endedAt, nextRun); err != nil {
		e.log.Error("failed-start record write failed", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

// tailChars keeps the last max bytes of s, trimmed to a rune boundary.
func tailChars(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[len(s)-max:]
	for len(cut) > 0 && !utf8.RuneStart(cut[0]) {
		cut = cut[1:]
	}
	return cut
}

package job

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"dromeport/internal/models"
	"dromeport/internal/parser"
	"dromeport/internal/provider"
)

// Manager owns every job in the process: the live table keyed by job id and
// a bounded table of finished jobs kept around so clients can still fetch
// state and replay output after completion.
type Manager struct {
	mu       sync.Mutex
	live     map[string]*Job
	finished *lru.Cache[string, *Job]

	registry *provider.Registry
	log      *zap.Logger
}

func NewManager(registry *provider.Registry, maxFinished int, log *zap.Logger) (*Manager, error) {
	if maxFinished <= 0 {
		maxFinished = 128
	}
	finished, err := lru.New[string, *Job](maxFinished)
	if err != nil {
		return nil, err
	}
	return &Manager{
		live:     make(map[string]*Job),
		finished: finished,
		registry: registry,
		log:      log.Named("jobs"),
	}, nil
}

// Submit builds the provider invocation for req and launches it under a
// fresh id. The returned job is always streamable, even when the tool could
// not be launched; in that case the job is already terminal and the error
// explains why.
func (m *Manager) Submit(req models.DownloadRequest) (*Job, error) {
	return m.SubmitWithID(uuid.NewString(), req)
}

// SubmitWithID is Submit with a caller-chosen id, used by the schedule
// engine to key runs by their entry. Submitting an id that already has a
// live job returns that job instead of starting a second one.
func (m *Manager) SubmitWithID(id string, req models.DownloadRequest) (*Job, error) {
	m.mu.Lock()
	if existing, ok := m.live[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	inv, err := m.registry.Build(req)
	if err != nil {
		return nil, err
	}

	j, startErr := Start(id, inv, m.log)

	m.mu.Lock()
	if existing, ok := m.live[id]; ok {
		// Lost the race; the first submission wins.
		m.mu.Unlock()
		j.Cancel()
		return existing, nil
	}
	if j.Status() == StatusRunning {
		m.live[id] = j
	} else {
		m.finished.Add(id, j)
	}
	m.mu.Unlock()

	if j.Status() == StatusRunning {
		go m.watch(j)
	}
	return j, startErr
}

// watch follows a live job's event stream to apply job id re-keying and to
// demote the job to the finished table once it ends.
func (m *Manager) watch(j *Job) {
	for ev := range j.Subscribe(context.Background()) {
		if ev.Kind == EventSignal && ev.Signal.Type == parser.SignalJobID {
			m.rekey(j, ev.Signal.Value)
		}
	}

	m.mu.Lock()
	id := j.ID()
	if m.live[id] == j {
		delete(m.live, id)
		m.finished.Add(id, j)
	}
	m.mu.Unlock()
}

// rekey moves a live job under the id the tool announced for itself. If the
// new id already names a live job the announcement is ignored.
func (m *Manager) rekey(j *Job, newID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldID := j.ID()
	if newID == "" || newID == oldID {
		return
	}
	if _, taken := m.live[newID]; taken {
		m.log.Warn("job id announcement ignored, id already live",
			zap.String("old_id", oldID), zap.String("new_id", newID))
		return
	}
	delete(m.live, oldID)
	j.setID(newID)
	m.live[newID] = j
	m.log.Info("job re-keyed", zap.String("old_id", oldID), zap.String("new_id", newID))
}

// Get looks an id up in the live table first, then among finished jobs.
func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.live[id]; ok {
		return j, true
	}
	return m.finished.Get(id)
}

// List returns snapshots of all live jobs followed by the retained finished
// ones, most recently finished first.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Snapshot, 0, len(m.live)+m.finished.Len())
	for _, j := range m.live {
		out = append(out, j.Snapshot())
	}
	keys := m.finished.Keys()
	for i := len(keys) - 1; i >= 0; i-- {
		if j, ok := m.finished.Peek(keys[i]); ok {
			out = append(out, j.Snapshot())
		}
	}
	return out
}

// Cancel terminates the live job with the given id, waits for it to end,
// and removes leftover partial files for providers that produce them. It
// returns the number of partial files removed.
func (m *Manager) Cancel(id string) (int, bool) {
	j, ok := m.Get(id)
	if !ok {
		return 0, false
	}
	if j.Status() != StatusRunning {
		return 0, true
	}

	j.Cancel()
	select {
	case <-j.Done():
	case <-time.After(10 * time.Second):
		m.log.Warn("job did not exit after cancellation", zap.String("job_id", id))
	}

	removed := 0
	if j.Invocation().Provider == models.ProviderYTMusic {
		removed = m.SweepPartials(j.Invocation().OutputDir)
	}
	return removed, true
}

// SweepPartials deletes yt-dlp's in-flight artifacts anywhere under dir and
// returns how many files were removed.
func (m *Manager) SweepPartials(dir string) int {
	if dir == "" {
		return 0
	}
	removed := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".part", ".ytdl":
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	if removed > 0 {
		m.log.Info("removed partial files", zap.String("dir", dir), zap.Int("count", removed))
	}
	return removed
}

// CancelAll terminates every live job; used during shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	jobs := make([]*Job, 0, len(m.live))
	for _, j := range m.live {
		jobs = append(jobs, j)
	}
	m.mu.Unlock()

	for _, j := range jobs {
		j.Cancel()
	}
	for _, j := range jobs {
		select {
		case <-j.Done():
		case <-time.After(10 * time.Second):
		}
	}
}

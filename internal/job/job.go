package job

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dromeport/internal/parser"
	"dromeport/internal/provider"
)

// Status is the lifecycle state of a job. A job is either live (running)
// or terminal; terminal states never change again.
type Status string

const (
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Progress is the current/total item counter reported by the tool.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Snapshot is the externally visible state of a job at one point in time.
type Snapshot struct {
	ID          string     `json:"id"`
	Provider    string     `json:"provider"`
	URL         string     `json:"url"`
	Status      Status     `json:"status"`
	Progress    Progress   `json:"progress"`
	Title       string     `json:"title,omitempty"`
	Thumb       string     `json:"thumb,omitempty"`
	Errors      int        `json:"errors"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	LibraryPath string     `json:"library_path,omitempty"`
}

// Job supervises one tool subprocess: it owns the process group, parses
// every output line, and broadcasts the resulting events to any number of
// subscribers with full replay.
type Job struct {
	mu        sync.Mutex
	id        string
	status    Status
	progress  Progress
	title     string
	thumb     string
	errors    int
	startedAt time.Time
	endedAt   *time.Time
	cancelled bool

	inv  *provider.Invocation
	pgid int

	cancelOnce sync.Once
	bc         *broadcast
	done       chan struct{}
	log        *zap.Logger
}

// Start launches the invocation and begins supervising it. The returned job
// is live; its output is consumed on a background goroutine until the
// process exits. A launch failure is reported both as an error and as an
// already-terminal job carrying the failure line, so callers can still hand
// a streamable handle to clients.
func Start(id string, inv *provider.Invocation, log *zap.Logger) (*Job, error) {
	j := &Job{
		id:        id,
		status:    StatusRunning,
		startedAt: time.Now(),
		inv:       inv,
		bc:        newBroadcast(),
		done:      make(chan struct{}),
		log:       log.With(zap.String("job_id", id), zap.String("provider", inv.Provider)),
	}

	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = inv.LibraryPath
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return j.failLaunch(err), err
	}
	cmd.Stderr = cmd.Stdout

	for _, line := range inv.Banner {
		j.bc.publish(Event{Kind: EventLine, Line: line})
	}

	if err := cmd.Start(); err != nil {
		return j.failLaunch(err), err
	}
	j.pgid = cmd.Process.Pid
	j.log.Info("job started", zap.Int("pid", cmd.Process.Pid), zap.String("url", inv.URL))

	go j.supervise(cmd, bufio.NewScanner(stdout))
	return j, nil
}

// failLaunch turns j into a terminal error job carrying a single line that
// explains why the tool never started.
func (j *Job) failLaunch(err error) *Job {
	j.log.Error("job launch failed", zap.Error(err))
	j.bc.publish(Event{Kind: EventLine, Line: fmt.Sprintf("❌ Could not launch %s: %v", j.inv.Path, err)})
	j.finish(StatusError)
	return j
}

func (j *Job) supervise(cmd *exec.Cmd, sc *bufio.Scanner) {
	sc.Buffer(make([]byte, 0, 64*1024), 512*1024)
	p := parser.New(j.inv.Profile)

	for sc.Scan() {
		line := sc.Text()
		res := p.Consume(line)

		j.bc.publish(Event{Kind: EventLine, Line: line})
		if res.Signal != nil {
			j.applySignal(res.Signal)
			j.bc.publish(Event{Kind: EventSignal, Signal: *res.Signal})
		}
		if res.ErrorMark {
			j.mu.Lock()
			j.errors++
			j.mu.Unlock()
		}
	}

	err := cmd.Wait()
	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	j.mu.Lock()
	cancelled := j.cancelled
	j.mu.Unlock()

	status := StatusDone
	switch {
	case cancelled:
		status = StatusCancelled
	case !j.inv.ExitOK(exitCode):
		status = StatusError
	}

	j.publishSummary(status, p)
	j.finish(status)
	j.log.Info("job finished",
		zap.String("status", string(status)),
		zap.Int("exit_code", exitCode),
		zap.Int("errors", j.ErrorCount()))
}

// counts is implemented by profiles that track item totals.
type counts interface {
	Downloaded() int
	Skipped() int
}

func (j *Job) publishSummary(status Status, p *parser.Parser) {
	j.bc.publish(Event{Kind: EventLine, Line: ""})
	switch status {
	case StatusCancelled:
		j.bc.publish(Event{Kind: EventLine, Line: "⏹ Download cancelled"})
	case StatusError:
		j.bc.publish(Event{Kind: EventLine, Line: "❌ Download failed"})
	default:
		if c, ok := p.Profile().(counts); ok {
			j.bc.publish(Event{Kind: EventLine, Line: fmt.Sprintf("✅ Download complete: %d downloaded, %d skipped", c.Downloaded(), c.Skipped())})
		} else {
			j.bc.publish(Event{Kind: EventLine, Line: "✅ Download complete"})
		}
	}
}

// finish moves the job to a terminal state and seals the event stream.
// The [DONE] marker is the responsibility of the transport; the broadcast
// ends with exactly one status event.
func (j *Job) finish(status Status) {
	j.mu.Lock()
	if j.status != StatusRunning {
		j.mu.Unlock()
		return
	}
	j.status = status
	now := time.Now()
	j.endedAt = &now
	j.mu.Unlock()

	j.bc.publish(Event{Kind: EventStatus, Success: status == StatusDone})
	j.bc.publish(Event{Kind: EventDone})
	j.bc.close()
	close(j.done)
}

func (j *Job) applySignal(s *parser.Signal) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch s.Type {
	case parser.SignalTitle:
		if j.title == "" || j.title == "Loading..." {
			j.title = s.Value
		}
	case parser.SignalThumb:
		if j.thumb == "" {
			j.thumb = s.URL
		}
	case parser.SignalProgress:
		cur, total := s.Current, s.Total
		if total > 0 && cur > total {
			cur = total
		}
		j.progress = Progress{Current: cur, Total: total}
	}
}

// Cancel terminates the job's whole process group. It is idempotent and a
// no-op on terminal jobs. Termination starts with SIGTERM; if the process
// has not exited after five seconds it is killed.
func (j *Job) Cancel() {
	j.cancelOnce.Do(func() {
		j.mu.Lock()
		if j.status != StatusRunning {
			j.mu.Unlock()
			return
		}
		j.cancelled = true
		pgid := j.pgid
		j.mu.Unlock()

		j.log.Info("cancelling job")
		if pgid > 0 {
			_ = syscall.Kill(-pgid, syscall.SIGTERM)
			go func() {
				select {
				case <-j.done:
				case <-time.After(5 * time.Second):
					_ = syscall.Kill(-pgid, syscall.SIGKILL)
				}
			}()
		}
	})
}

// Subscribe returns an ordered event stream replaying the job's full
// history before delivering live events. The channel closes after the
// terminal events once the job ends, or when ctx is cancelled. Cancelling
// ctx detaches the subscriber only; the job keeps running.
func (j *Job) Subscribe(ctx context.Context) <-chan Event {
	return j.bc.subscribe(ctx)
}

// Wait blocks until the job reaches a terminal state.
func (j *Job) Wait() {
	<-j.done
}

// Done exposes the terminal-state channel for select loops.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) ID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id
}

func (j *Job) setID(id string) {
	j.mu.Lock()
	j.id = id
	j.mu.Unlock()
}

func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) ErrorCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errors
}

// Invocation exposes the launch parameters, used for provider-specific
// cleanup after cancellation.
func (j *Job) Invocation() *provider.Invocation {
	return j.inv
}

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:          j.id,
		Provider:    j.inv.Provider,
		URL:         j.inv.URL,
		Status:      j.status,
		Progress:    j.progress,
		Title:       j.title,
		Thumb:       j.thumb,
		Errors:      j.errors,
		StartedAt:   j.startedAt,
		EndedAt:     j.endedAt,
		LibraryPath: j.inv.LibraryPath,
	}
}

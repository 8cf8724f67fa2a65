package job

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dromeport/internal/parser"
	"dromeport/internal/provider"
)

// shellInvocation wraps a shell script as a tool run with no parser profile.
func shellInvocation(t *testing.T, script string) *provider.Invocation {
	t.Helper()
	return &provider.Invocation{
		Provider:         "test",
		URL:              "https://example.test/playlist",
		Path:             "/bin/sh",
		Args:             []string{"-c", script},
		LibraryPath:      t.TempDir(),
		SuccessExitCodes: []int{0},
	}
}

// collect drains a subscription until the channel closes.
func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %d so far", len(events))
		}
	}
}

func TestJob_SuccessfulRunStreamsInOrder(t *testing.T) {
	inv := shellInvocation(t, `printf 'one\ntwo\n'`)
	j, err := Start("j1", inv, zap.NewNop())
	require.NoError(t, err)

	events := collect(t, j.Subscribe(context.Background()))

	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, EventDone, events[len(events)-1].Kind)
	assert.Equal(t, EventStatus, events[len(events)-2].Kind)
	assert.True(t, events[len(events)-2].Success)

	var lines []string
	for _, ev := range events {
		if ev.Kind == EventLine {
			lines = append(lines, ev.Line)
		}
	}
	assert.Contains(t, lines, "one")
	assert.Contains(t, lines, "two")
	assert.Equal(t, StatusDone, j.Status())
}

func TestJob_TerminalEventsExactlyOnceAndLast(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `echo hi`), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	events := collect(t, j.Subscribe(context.Background()))
	doneCount := 0
	for i, ev := range events {
		if ev.Kind == EventDone {
			doneCount++
			assert.Equal(t, len(events)-1, i, "done must be the last event")
		}
	}
	assert.Equal(t, 1, doneCount)
}

func TestJob_ReplayAfterCompletion(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `echo replayed`), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	// Two late subscribers both get the full history.
	for i := 0; i < 2; i++ {
		events := collect(t, j.Subscribe(context.Background()))
		var sawLine bool
		for _, ev := range events {
			if ev.Kind == EventLine && ev.Line == "replayed" {
				sawLine = true
			}
		}
		assert.True(t, sawLine, "subscriber %d missed the replayed line", i)
		assert.Equal(t, EventDone, events[len(events)-1].Kind)
	}
}

func TestJob_NonZeroExitIsError(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `echo boom; exit 3`), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	assert.Equal(t, StatusError, j.Status())
	events := collect(t, j.Subscribe(context.Background()))
	assert.False(t, events[len(events)-2].Success)
}

func TestJob_ToleratedExitCodeIsSuccess(t *testing.T) {
	inv := shellInvocation(t, `exit 1`)
	inv.SuccessExitCodes = []int{0, 1}
	j, err := Start("j1", inv, zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	assert.Equal(t, StatusDone, j.Status())
}

func TestJob_CancelDominatesExitCode(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `sleep 30`), zap.NewNop())
	require.NoError(t, err)

	// Give the shell a moment to be up, then cancel twice.
	time.Sleep(100 * time.Millisecond)
	j.Cancel()
	j.Cancel()
	j.Wait()

	assert.Equal(t, StatusCancelled, j.Status())
	events := collect(t, j.Subscribe(context.Background()))
	assert.False(t, events[len(events)-2].Success)
}

func TestJob_CancelAfterFinishIsNoOp(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `true`), zap.NewNop())
	require.NoError(t, err)
	j.Wait()
	require.Equal(t, StatusDone, j.Status())

	j.Cancel()
	assert.Equal(t, StatusDone, j.Status())
}

func TestJob_LaunchFailureIsTerminalButStreamable(t *testing.T) {
	inv := shellInvocation(t, `true`)
	inv.Path = "/nonexistent/tool"
	j, err := Start("j1", inv, zap.NewNop())
	require.Error(t, err)
	require.NotNil(t, j)

	assert.Equal(t, StatusError, j.Status())
	events := collect(t, j.Subscribe(context.Background()))
	require.NotEmpty(t, events)
	assert.Equal(t, EventLine, events[0].Kind)
	assert.Contains(t, events[0].Line, "Could not launch")
	assert.Equal(t, EventDone, events[len(events)-1].Kind)
}

func TestJob_ProgressLastWriteWins(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `printf '3/10\n7/10\n'`), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	snap := j.Snapshot()
	assert.Equal(t, 7, snap.Progress.Current)
	assert.Equal(t, 10, snap.Progress.Total)
}

func TestJob_ProgressClampedToTotal(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `printf '12/10\n'`), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	snap := j.Snapshot()
	assert.Equal(t, 10, snap.Progress.Current)
}

func TestJob_TitlePlaceholderIsReplaced(t *testing.T) {
	script := `printf '@meta {"type":"title","value":"Loading..."}\n@meta {"type":"title","value":"Real Title"}\n@meta {"type":"title","value":"Second Title"}\n'`
	j, err := Start("j1", shellInvocation(t, script), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	assert.Equal(t, "Real Title", j.Snapshot().Title)
}

func TestJob_ErrorLinesAreCounted(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `printf 'ERROR: a\nfine\nERROR: b\n'`), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	assert.Equal(t, 2, j.ErrorCount())
}

func TestJob_FullRunAccumulatesState(t *testing.T) {
	script := strings.Join([]string{
		`printf '@meta {"type":"job_id","value":"srv-42"}\n'`,
		`printf '@meta {"type":"title","value":"Morning Mix"}\n'`,
		`printf '1/3\n2/3\n3/3\n'`,
		`printf 'ERROR: track two failed\n'`,
	}, "; ")
	j, err := Start("j1", shellInvocation(t, script), zap.NewNop())
	require.NoError(t, err)
	j.Wait()

	snap := j.Snapshot()
	assert.Equal(t, StatusDone, snap.Status)
	assert.Equal(t, "Morning Mix", snap.Title)
	assert.Equal(t, 3, snap.Progress.Current)
	assert.Equal(t, 3, snap.Progress.Total)
	assert.Equal(t, 1, snap.Errors)
	require.NotNil(t, snap.EndedAt)

	// The job-id announcement is broadcast but leaves the job's own id to
	// its owner.
	events := collect(t, j.Subscribe(context.Background()))
	var sawJobID bool
	for _, ev := range events {
		if ev.Kind == EventSignal && ev.Signal.Type == parser.SignalJobID {
			sawJobID = true
			assert.Equal(t, "srv-42", ev.Signal.Value)
		}
	}
	assert.True(t, sawJobID)
	assert.Equal(t, "j1", j.ID())
}

func TestJob_SubscriberDisconnectNeverCancels(t *testing.T) {
	j, err := Start("j1", shellInvocation(t, `sleep 0.3; echo late`), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch := j.Subscribe(ctx)
	cancel()
	for range ch {
	}

	j.Wait()
	assert.Equal(t, StatusDone, j.Status())
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"dromeport/internal/job"
)

// sseWriter emits server-sent-event frames over an echo response, flushing
// after every frame so lines reach the client as they happen.
type sseWriter struct {
	res *echo.Response
}

func newSSEWriter(c echo.Context) *sseWriter {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	return &sseWriter{res: c.Response()}
}

// data writes an unnamed data frame carrying one raw line.
func (w *sseWriter) data(line string) {
	fmt.Fprintf(w.res, "data: %s\n\n", line)
	w.res.Flush()
}

// event writes a named frame with a JSON payload.
func (w *sseWriter) event(name string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w.res, "event: %s\ndata: %s\n\n", name, raw)
	w.res.Flush()
}

// done writes the stream-end sentinel. Always the last frame of a stream.
func (w *sseWriter) done() {
	w.data("[DONE]")
}

// relay streams a job's events until the terminal sentinel or until ctx
// ends. A client that goes away mid-stream just stops receiving; the job
// itself is never touched.
func (w *sseWriter) relay(ctx context.Context, j *job.Job) error {
	for ev := range j.Subscribe(ctx) {
		switch ev.Kind {
		case job.EventLine:
			w.data(ev.Line)
		case job.EventSignal:
			w.event("meta", ev.Signal)
		case job.EventStatus:
			w.event("status", map[string]bool{"success": ev.Success})
		case job.EventDone:
			w.done()
			return nil
		}
	}
	return nil
}

// streamFailure opens an event stream only to report that no job could be
// started: one error line, then the sentinel. The HTTP status is 200 so
// EventSource clients read the reason instead of a connection error.
func streamFailure(c echo.Context, msg string) error {
	w := newSSEWriter(c)
	w.data("❌ " + msg)
	w.done()
	return nil
}

package api

import (
	"bufio"
	"context"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"dromeport/internal/config"
)

// ToolsHandler reports and updates the external acquisition tools.
type ToolsHandler struct {
	tools config.ToolsConfig
	log   *zap.Logger
}

func NewToolsHandler(tools config.ToolsConfig, log *zap.Logger) *ToolsHandler {
	return &ToolsHandler{tools: tools, log: log}
}

// Versions reports the installed tool versions. A tool that is missing or
// broken reports the failure text instead; the endpoint itself never fails.
func (h *ToolsHandler) Versions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	out := map[string]string{
		"ytdlp":     runShort(ctx, "", h.tools.YTDLPPath, "--version"),
		"spotiflac": "not configured",
	}
	if dir := h.tools.SpotiflacDir(); dir != "" {
		out["spotiflac"] = runShort(ctx, dir, "git", "describe", "--tags", "--always")
	}
	return c.JSON(http.StatusOK, out)
}

// Update runs the tool updaters and streams their combined output as a raw
// log. No meta or status frames; the stream ends with the usual sentinel.
func (h *ToolsHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	w := newSSEWriter(c)

	w.data("▶ Updating yt-dlp...")
	streamCommand(ctx, w, "", h.tools.YTDLPPath, "-U")

	if dir := h.tools.SpotiflacDir(); dir != "" {
		w.data("")
		w.data("▶ Updating SpotiFLAC...")
		streamCommand(ctx, w, dir, "git", "pull", "--ff-only")
	}

	w.done()
	return nil
}

// runShort runs a command and returns its first output line.
func runShort(ctx context.Context, dir, name string, args ...string) string {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) == 0 {
		return "error: " + err.Error()
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line
}

// streamCommand runs a command and relays each output line as a data frame.
func streamCommand(ctx context.Context, w *sseWriter, dir, name string, args ...string) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		w.data("❌ " + err.Error())
		return
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		w.data("❌ " + err.Error())
		return
	}
	sc := bufio.NewScanner(stdout)
	for sc.Scan() {
		w.data(sc.Text())
	}
	if err := cmd.Wait(); err != nil {
		w.data("❌ " + err.Error())
	}
}

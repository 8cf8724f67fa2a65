// Package provider builds the external tool invocation for each acquisition
// back-end and pairs it with the parser profile that understands the tool's
// output.
package provider

import (
	"fmt"

	"dromeport/internal/config"
	"dromeport/internal/models"
	"dromeport/internal/parser"
)

// Invocation is everything needed to supervise one tool run.
type Invocation struct {
	Provider    string
	URL         string
	Path        string
	Args        []string
	LibraryPath string
	OutputDir   string

	// Banner lines are streamed as raw log before any tool output.
	Banner []string

	// Profile parses this tool's output lines.
	Profile parser.Profile

	// SuccessExitCodes lists the exit codes treated as a successful run.
	SuccessExitCodes []int
}

// Command returns the full command line for log banners.
func (inv *Invocation) Command() string {
	cmd := inv.Path
	for _, arg := range inv.Args {
		cmd += " " + arg
	}
	return cmd
}

// ExitOK reports whether code counts as success for this tool.
func (inv *Invocation) ExitOK(code int) bool {
	for _, ok := range inv.SuccessExitCodes {
		if code == ok {
			return true
		}
	}
	return false
}

// Builder turns a download request into a tool invocation. A returned error
// means the run cannot even start (bad config, unusable destination); callers
// surface it as an immediately failed job, never as a transport error.
type Builder func(req models.DownloadRequest) (*Invocation, error)

// Registry maps provider tags to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns a registry with the built-in providers registered.
func NewRegistry(tools config.ToolsConfig) *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.Register(models.ProviderYTMusic, NewYTMusicBuilder(tools.YTDLPPath))
	r.Register(models.ProviderSpotify, NewSpotifyBuilder())
	return r
}

func (r *Registry) Register(name string, b Builder) {
	r.builders[name] = b
}

// Build dispatches to the builder registered for the request's provider.
func (r *Registry) Build(req models.DownloadRequest) (*Invocation, error) {
	b, ok := r.builders[req.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %q", req.Provider)
	}
	return b(req)
}

package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	sfStartRe  = regexp.MustCompile(`^\[(\d+)/(\d+)\]\s+Starting download:`)
	sfFailedRe = regexp.MustCompile(`(?i)\[X\]\s+Failed all services`)
)

// SpotiFLACProfile recognizes the output shapes of a SpotiFLAC run.
type SpotiFLACProfile struct {
	total      int
	downloaded int
	skipped    int
}

func NewSpotiFLACProfile() *SpotiFLACProfile {
	return &SpotiFLACProfile{}
}

func (p *SpotiFLACProfile) Consume(line string) Result {
	if m := sfStartRe.FindStringSubmatch(line); m != nil {
		current, _ := strconv.Atoi(m[1])
		p.total, _ = strconv.Atoi(m[2])
		return Result{Signal: &Signal{Type: SignalProgress, Current: current - 1, Total: p.total}}
	}

	if strings.Contains(line, "Successfully downloaded using:") {
		p.downloaded++
		return Result{Signal: &Signal{Type: SignalProgress, Current: p.downloaded, Total: p.total}}
	}

	if sfFailedRe.MatchString(line) {
		return Result{ErrorMark: true}
	}

	if strings.Contains(line, "File already exists:") && strings.Contains(line, "Skipping") {
		p.skipped++
		return Result{}
	}

	// SpotiFLAC prints fatal setup problems as plain Error:/Warning: lines.
	if strings.HasPrefix(line, "Error:") || strings.HasPrefix(line, "Warning: Invalid output directory") {
		return Result{ErrorMark: true}
	}

	return Result{}
}

// Downloaded reports how many tracks completed so far.
func (p *SpotiFLACProfile) Downloaded() int { return p.downloaded }

// Skipped reports how many tracks already existed on disk.
func (p *SpotiFLACProfile) Skipped() int { return p.skipped }

// Total reports the track count announced by SpotiFLAC, 0 until known.
func (p *SpotiFLACProfile) Total() int { return p.total }

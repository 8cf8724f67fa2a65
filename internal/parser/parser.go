// Package parser turns raw output lines from acquisition tools into
// structured signals. Matching is line-local; a line that fits no known shape
// is raw log only, and malformed structured payloads degrade the same way.
// The parser never fails.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// metaPrefix marks a structured-metadata line emitted by a tool: the prefix
// followed by a JSON object matching the meta frame schema.
const metaPrefix = "@meta "

// errorGlyph is the glyph acquisition tools (and our own banners) use to mark
// a failed item.
const errorGlyph = "❌"

var bareProgressRe = regexp.MustCompile(`^(\d+)/(\d+)$`)

// Result is the outcome of consuming one line. The original line is always
// retained as raw log by the caller regardless of what was recognized here.
type Result struct {
	Signal    *Signal // nil when the line carried no structured signal
	ErrorMark bool    // line carried the per-item error marker
}

// Profile supplies tool-specific line shapes on top of the base rules.
// Implementations may keep simple running state (counters, seen-flags) but
// never look at more than the current line.
type Profile interface {
	Consume(line string) Result
}

// Parser applies the provider-independent rules first, then defers to the
// profile. One Parser instance serves exactly one job.
type Parser struct {
	profile Profile
}

func New(profile Profile) *Parser {
	return &Parser{profile: profile}
}

// Profile returns the tool-specific profile this parser was built with.
func (p *Parser) Profile() Profile {
	return p.profile
}

// Consume inspects one output line and reports at most one structured signal.
func (p *Parser) Consume(line string) Result {
	// Structured metadata wins over everything else.
	if payload, ok := strings.CutPrefix(line, metaPrefix); ok {
		var sig Signal
		if err := sig.UnmarshalJSON([]byte(payload)); err == nil {
			return Result{Signal: &sig}
		}
		return Result{} // malformed payload: raw log only
	}

	if m := bareProgressRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		current, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		return Result{Signal: &Signal{Type: SignalProgress, Current: current, Total: total}}
	}

	var res Result
	if p.profile != nil {
		res = p.profile.Consume(line)
	}
	if IsErrorMarker(line) {
		res.ErrorMark = true
	}
	return res
}

// IsErrorMarker reports whether a line carries the per-item failure marker:
// the fixed error token at line start or the error glyph anywhere.
func IsErrorMarker(line string) bool {
	return strings.HasPrefix(line, "ERROR:") || strings.Contains(line, errorGlyph)
}

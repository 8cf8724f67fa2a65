package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SignalType discriminates the closed set of structured signals a tool's
// output can carry. The values double as the wire "type" field of meta frames.
type SignalType string

const (
	SignalJobID    SignalType = "job_id"
	SignalTitle    SignalType = "title"
	SignalThumb    SignalType = "thumb"
	SignalProgress SignalType = "progress"
)

// Signal is one structured event derived from a single output line.
type Signal struct {
	Type    SignalType
	Value   string // job_id, title
	URL     string // thumb
	Current int    // progress
	Total   int    // progress
}

// MarshalJSON emits only the fields that belong to the signal's kind, matching
// the meta frame payloads: {type, value?, url?, current?, total?}.
func (s Signal) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{"type": s.Type}
	switch s.Type {
	case SignalJobID, SignalTitle:
		m["value"] = s.Value
	case SignalThumb:
		m["url"] = s.URL
	case SignalProgress:
		m["current"] = s.Current
		m["total"] = s.Total
	}
	return json.Marshal(m)
}

// UnmarshalJSON validates the payload against the recognized signal kinds.
// An unknown or missing type is an error; callers degrade such lines to raw log.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    SignalType `json:"type"`
		Value   string     `json:"value"`
		URL     string     `json:"url"`
		Current int        `json:"current"`
		Total   int        `json:"total"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case SignalJobID, SignalTitle:
		if strings.TrimSpace(raw.Value) == "" {
			return fmt.Errorf("signal %q requires a value", raw.Type)
		}
	case SignalThumb:
		if strings.TrimSpace(raw.URL) == "" {
			return fmt.Errorf("signal %q requires a url", raw.Type)
		}
	case SignalProgress:
		if raw.Current < 0 || raw.Total < 0 {
			return fmt.Errorf("signal %q requires non-negative counters", raw.Type)
		}
	default:
		return fmt.Errorf("unknown signal type %q", raw.Type)
	}

	*s = Signal{
		Type:    raw.Type,
		Value:   raw.Value,
		URL:     raw.URL,
		Current: raw.Current,
		Total:   raw.Total,
	}
	return nil
}

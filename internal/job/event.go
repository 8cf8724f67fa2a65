package job

import "dromeport/internal/parser"

// EventKind discriminates the events flowing through a job's broadcast.
type EventKind int

const (
	// EventLine carries one raw output line (possibly empty).
	EventLine EventKind = iota
	// EventSignal carries a structured signal derived from the output.
	EventSignal
	// EventStatus carries the run's success flag, emitted once near the end.
	EventStatus
	// EventDone is the terminal sentinel, emitted exactly once, always last.
	EventDone
)

// Event is one entry in a job's ordered event log.
type Event struct {
	Kind    EventKind
	Line    string        // EventLine
	Signal  parser.Signal // EventSignal
	Success bool          // EventStatus
}

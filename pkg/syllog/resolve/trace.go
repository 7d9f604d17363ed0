package resolve

import "github.com/cognicore/syllog/pkg/syllog/term"

// EventKind identifies a search step
type EventKind int

const (
	// EventCall: a goal list is about to be resolved.
	EventCall EventKind = iota
	// EventMatch: a rule head unified with the goal.
	EventMatch
	// EventCycle: the goal list repeats an ancestor and the branch is dropped.
	EventCycle
	// EventSyllogism: the universal-chaining shortcut answered the goal.
	EventSyllogism
	// EventRefute: a rule of opposite polarity established the goal.
	EventRefute
	// EventExit: every alternative for the goal has been tried.
	EventExit
)

func (k EventKind) String() string {
	switch k {
	case EventCall:
		return "call"
	case EventMatch:
		return "match"
	case EventCycle:
		return "cycle"
	case EventSyllogism:
		return "syllogism"
	case EventRefute:
		return "refute"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Event describes one search step. Rule is the zero value for call, cycle
// and exit events.
type Event struct {
	Kind  EventKind
	Depth int
	Goal  term.Literal
	Rule  term.Rule
}

// Tracer observes a search as it runs. Trace is called synchronously from the
// goroutine pulling answers.
type Tracer interface {
	Trace(Event)
}

// TracerFunc adapts a function to Tracer
type TracerFunc func(Event)

// Trace calls f
func (f TracerFunc) Trace(e Event) { f(e) }

package trace

// Trace is the finished, ordered event stream of one traced execution
// (a transaction or a block replay). It is populated entirely by the
// producing tracer and is read-only afterwards, so it can be shared
// between readers without locking.
type Trace struct {
	events []Event
}

// NewTrace wraps the given events into a finished trace. The slice is
// copied, later changes to it do not leak into the trace.
func NewTrace(events []Event) *Trace {
	copied := make([]Event, len(events))
	copy(copied, events)

	return &Trace{events: copied}
}

// Events returns the event stream in execution order.
// Callers must not modify the returned slice.
func (t *Trace) Events() []Event {
	if t == nil {
		return nil
	}

	return t.events
}

// Len returns the number of events in the trace
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}

	return len(t.events)
}

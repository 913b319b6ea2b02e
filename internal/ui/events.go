package ui

// Event is something a panel asks the application to do.
type Event interface {
	isEvent()
}

// KeyPress is a key the panel did not consume.
type KeyPress struct {
	Key string
}

// StatusUpdate replaces the status line.
type StatusUpdate struct {
	Message string
}

// Select appends a path selector to the expression.
type Select struct {
	Selector string
}

// AppendFilter appends a filter as a new pipe segment.
type AppendFilter struct {
	Filter string
}

// Quit ends the session.
type Quit struct{}

func (KeyPress) isEvent()     {}
func (StatusUpdate) isEvent() {}
func (Select) isEvent()       {}
func (AppendFilter) isEvent() {}
func (Quit) isEvent()         {}

// InteractionError is an action invoked where it does not apply. It is shown
// as a status message and otherwise ignored.
type InteractionError struct {
	Msg string
}

func (e *InteractionError) Error() string { return e.Msg }

// events wraps a single event, or none when ev is nil.
func events(ev Event) []Event {
	if ev == nil {
		return nil
	}
	return []Event{ev}
}

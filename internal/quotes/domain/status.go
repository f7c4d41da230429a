// Package domain provides the pure lifecycle rules for the quotes bounded
// context.
package domain

// Status is the sales-pipeline state of a quote. The pipeline is free-form:
// any status may be set directly from any other. Only the side effect of
// entering a terminal status is enforced, never the path.
type Status string

const (
	StatusPendiente  Status = "pendiente"
	StatusContactado Status = "contactado"
	StatusInteresado Status = "interesado"
	StatusCerrada    Status = "cerrada"
	StatusPerdida    Status = "perdida"
)

// AllStatuses lists every valid quote status in pipeline order.
func AllStatuses() []Status {
	return []Status{StatusPendiente, StatusContactado, StatusInteresado, StatusCerrada, StatusPerdida}
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPendiente, StatusContactado, StatusInteresado, StatusCerrada, StatusPerdida:
		return Status(raw), true
	}
	return "", false
}

// IsTerminal reports whether no further reminder activity should exist for a
// quote in this status.
func (s Status) IsTerminal() bool {
	return s == StatusCerrada || s == StatusPerdida
}

func (s Status) String() string {
	return string(s)
}

// Action is the remote side effect a status transition requires.
type Action int

const (
	ActionNone Action = iota
	ActionCancelEvents
)

// TransitionAction is the single place that decides which remote side effect
// a quote transition carries. Entering a terminal status cancels the pending
// reminder events regardless of the previous status; re-entering a terminal
// status repeats the idempotent cancellation.
func TransitionAction(from, to Status) Action {
	if to.IsTerminal() {
		return ActionCancelEvents
	}
	return ActionNone
}

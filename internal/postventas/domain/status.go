// Package domain holds the postventa lifecycle vocabulary.
package domain

// Status is the lifecycle state of a postventa visit.
type Status string

const (
	StatusPendiente Status = "pendiente"
	StatusRealizada Status = "realizada"
	StatusCancelada Status = "cancelada"
)

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPendiente, StatusRealizada, StatusCancelada}
}

// ParseStatus maps raw input onto the closed status set.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPendiente, StatusRealizada, StatusCancelada:
		return Status(raw), true
	}
	return "", false
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the visit accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusRealizada || s == StatusCancelada
}

// CancelsEvent reports whether reaching s tears down the remote reminder.
// A visit marked realizada keeps its event; only cancelada cleans up.
func (s Status) CancelsEvent() bool {
	return s == StatusCancelada
}

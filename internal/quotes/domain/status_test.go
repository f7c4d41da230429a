package domain

import "testing"

func TestParseStatusAcceptsEveryPipelineStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		parsed, ok := ParseStatus(string(s))
		if !ok {
			t.Fatalf("expected %q to parse", s)
		}
		if parsed != s {
			t.Fatalf("expected %q, got %q", s, parsed)
		}
	}
}

func TestParseStatusRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "Pendiente", "cerrado", "won", "CERRADA"} {
		if _, ok := ParseStatus(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPendiente:  false,
		StatusContactado: false,
		StatusInteresado: false,
		StatusCerrada:    true,
		StatusPerdida:    true,
	}
	for s, want := range terminal {
		if s.IsTerminal() != want {
			t.Fatalf("expected IsTerminal(%q)=%v", s, want)
		}
	}
}

func TestTransitionActionCancelsOnAnyEntryToTerminal(t *testing.T) {
	for _, from := range AllStatuses() {
		for _, to := range []Status{StatusCerrada, StatusPerdida} {
			if TransitionAction(from, to) != ActionCancelEvents {
				t.Fatalf("expected cancel action for %q -> %q", from, to)
			}
		}
	}
}

func TestTransitionActionLeavesCalendarAloneOtherwise(t *testing.T) {
	for _, from := range AllStatuses() {
		for _, to := range []Status{StatusPendiente, StatusContactado, StatusInteresado} {
			if TransitionAction(from, to) != ActionNone {
				t.Fatalf("expected no action for %q -> %q", from, to)
			}
		}
	}
}

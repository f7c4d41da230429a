package calendar

import (
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	loc := time.FixedZone("ART", -3*60*60)
	return time.Date(2024, 3, 15, 10, 0, 0, 0, loc)
}

func TestFollowupPlanBuildsBothHorizons(t *testing.T) {
	now := fixedNow()
	q := QuoteDetails{
		QuoteNumber: "0001-00000042",
		ClientName:  "ACME SA",
		Seller:      "Laura",
		IssueDate:   "15/03/2024",
		Total:       "1.234,56",
	}

	planned := FollowupPlan(q, now)

	if len(planned) != 2 {
		t.Fatalf("expected 2 planned events, got %d", len(planned))
	}
	if planned[0].Tag != "48h" || planned[1].Tag != "72h" {
		t.Fatalf("expected tags 48h and 72h, got %q and %q", planned[0].Tag, planned[1].Tag)
	}
	if !planned[0].Start.Equal(now.Add(48 * time.Hour)) {
		t.Fatalf("expected 48h start %v, got %v", now.Add(48*time.Hour), planned[0].Start)
	}
	if !planned[1].Start.Equal(now.Add(72 * time.Hour)) {
		t.Fatalf("expected 72h start %v, got %v", now.Add(72*time.Hour), planned[1].Start)
	}

	first := planned[0].Event
	if first.Summary != "Seguimiento 48h - Cotización 0001-00000042 - ACME SA" {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}
	if first.Start.DateTime != "2024-03-17T10:00:00-03:00" {
		t.Fatalf("unexpected start: %q", first.Start.DateTime)
	}
	if first.End.DateTime != "2024-03-17T10:10:00-03:00" {
		t.Fatalf("unexpected end: %q", first.End.DateTime)
	}
	if first.Start.Date != "" || first.End.Date != "" {
		t.Fatalf("expected timed event, got all-day date fields")
	}
	if first.Reminders.UseDefault {
		t.Fatalf("expected useDefault=false")
	}
	if len(first.Reminders.Overrides) != 1 || first.Reminders.Overrides[0].Method != "popup" || first.Reminders.Overrides[0].Minutes != 0 {
		t.Fatalf("expected a single immediate popup override, got %+v", first.Reminders.Overrides)
	}
}

func TestFollowupPlanDescriptionCarriesExtractedFields(t *testing.T) {
	q := QuoteDetails{
		QuoteNumber: "0001-00000042",
		ClientName:  "ACME SA",
		Seller:      "Laura",
		IssueDate:   "15/03/2024",
		Total:       "1.234,56",
	}

	planned := FollowupPlan(q, fixedNow())

	want := "Cliente: ACME SA\nVendedor: Laura\nFecha emisión: 15/03/2024\nTotal: 1.234,56\n\nAcción: contactar y avanzar cierre."
	if planned[0].Event.Description != want {
		t.Fatalf("unexpected description:\n%q\nwant:\n%q", planned[0].Event.Description, want)
	}
	if planned[1].Event.Description != want {
		t.Fatalf("expected both horizons to share the description")
	}
}

func TestFollowupPlanFallsBackToPlaceholders(t *testing.T) {
	planned := FollowupPlan(QuoteDetails{}, fixedNow())

	if planned[0].Event.Summary != "Seguimiento 48h - Cotización S/N - Cliente" {
		t.Fatalf("unexpected summary: %q", planned[0].Event.Summary)
	}
}

func TestPostventaPlanBuildsAllDayEvent(t *testing.T) {
	day := time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)
	p := PostventaDetails{
		ClientName: "ACME SA",
		Phone:      "+5491155550000",
		SaleDate:   "15/03/2024",
		Type:       "postventa",
		Notes:      "Revisar instalación.",
		Day:        day,
	}

	planned := PostventaPlan(p)

	if planned.Tag != "postventa" {
		t.Fatalf("expected tag postventa, got %q", planned.Tag)
	}
	if !planned.Start.Equal(day) {
		t.Fatalf("expected start %v, got %v", day, planned.Start)
	}

	evt := planned.Event
	if evt.Summary != "Postventa: ACME SA" {
		t.Fatalf("unexpected summary: %q", evt.Summary)
	}
	if evt.Start.Date != "2024-03-22" || evt.End.Date != "2024-03-22" {
		t.Fatalf("expected all-day bounds 2024-03-22, got %q / %q", evt.Start.Date, evt.End.Date)
	}
	if evt.Start.DateTime != "" || evt.End.DateTime != "" {
		t.Fatalf("expected all-day event, got dateTime fields")
	}
	if len(evt.Reminders.Overrides) != 1 || evt.Reminders.Overrides[0].Minutes != 540 {
		t.Fatalf("expected a 540 minute popup, got %+v", evt.Reminders.Overrides)
	}

	wantDesc := "Tipo: postventa\nCliente: ACME SA\nTel: +5491155550000\nFecha venta/instalación: 15/03/2024\n\nNotas:\nRevisar instalación."
	if evt.Description != wantDesc {
		t.Fatalf("unexpected description:\n%q\nwant:\n%q", evt.Description, wantDesc)
	}
}

func TestPostventaPlanTrimsTrailingEmptyNotes(t *testing.T) {
	planned := PostventaPlan(PostventaDetails{
		Type: "postventa",
		Day:  time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC),
	})

	if planned.Event.Summary != "Postventa: Cliente" {
		t.Fatalf("unexpected summary: %q", planned.Event.Summary)
	}
	if strings.HasSuffix(planned.Event.Description, "\n") {
		t.Fatalf("expected trimmed description, got %q", planned.Event.Description)
	}
	if !strings.HasSuffix(planned.Event.Description, "Notas:") {
		t.Fatalf("expected description to end at the notes header, got %q", planned.Event.Description)
	}
}

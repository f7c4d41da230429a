package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Event is the calendar API payload for a single event.
type Event struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Reminders   Reminders `json:"reminders"`
}

// EventTime carries either a timed dateTime or an all-day date, never both.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

type Reminders struct {
	UseDefault bool               `json:"useDefault"`
	Overrides  []ReminderOverride `json:"overrides"`
}

type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// QuoteDetails carries the extracted quote fields the follow-up events embed.
type QuoteDetails struct {
	QuoteNumber string
	ClientName  string
	Seller      string
	IssueDate   string
	Total       string
}

// PostventaDetails carries the fields the all-day service visit event embeds.
// Day is the date of the visit; SaleDate is shown as-is in the description.
type PostventaDetails struct {
	ClientName string
	Phone      string
	SaleDate   string
	Type       string
	Notes      string
	Day        time.Time
}

// PlannedEvent pairs an event payload with the tag its reference is stored
// under and the start the reference records.
type PlannedEvent struct {
	Tag   string
	Start time.Time
	Event *Event
}

var followupOffsets = []struct {
	hours int
	tag   string
}{
	{48, "48h"},
	{72, "72h"},
}

// FollowupPlan builds the reminder events for a freshly ingested quote: one
// per horizon, ten minutes long, with an immediate popup so the vendor sees
// it the moment it fires.
func FollowupPlan(q QuoteDetails, now time.Time) []PlannedEvent {
	quoteNumber := q.QuoteNumber
	if quoteNumber == "" {
		quoteNumber = "S/N"
	}
	clientName := q.ClientName
	if clientName == "" {
		clientName = "Cliente"
	}

	description := fmt.Sprintf(
		"Cliente: %s\nVendedor: %s\nFecha emisión: %s\nTotal: %s\n\nAcción: contactar y avanzar cierre.",
		q.ClientName, q.Seller, q.IssueDate, q.Total,
	)

	planned := make([]PlannedEvent, 0, len(followupOffsets))
	for _, offset := range followupOffsets {
		start := now.Add(time.Duration(offset.hours) * time.Hour)
		end := start.Add(10 * time.Minute)

		planned = append(planned, PlannedEvent{
			Tag:   offset.tag,
			Start: start,
			Event: &Event{
				Summary:     fmt.Sprintf("Seguimiento %s - Cotización %s - %s", offset.tag, quoteNumber, clientName),
				Description: description,
				Start:       EventTime{DateTime: start.Format(time.RFC3339)},
				End:         EventTime{DateTime: end.Format(time.RFC3339)},
				Reminders: Reminders{
					Overrides: []ReminderOverride{{Method: "popup", Minutes: 0}},
				},
			},
		})
	}
	return planned
}

// PostventaPlan builds the all-day event for a service visit. The popup fires
// nine hours into the day, at nine in the morning for an all-day event.
func PostventaPlan(p PostventaDetails) PlannedEvent {
	clientName := p.ClientName
	if clientName == "" {
		clientName = "Cliente"
	}

	lines := []string{
		"Tipo: " + p.Type,
		"Cliente: " + p.ClientName,
		"Tel: " + p.Phone,
		"Fecha venta/instalación: " + p.SaleDate,
		"",
		"Notas:",
		p.Notes,
	}

	day := p.Day.Format("2006-01-02")
	return PlannedEvent{
		Tag:   "postventa",
		Start: p.Day,
		Event: &Event{
			Summary:     "Postventa: " + clientName,
			Description: strings.TrimSpace(strings.Join(lines, "\n")),
			Start:       EventTime{Date: day},
			End:         EventTime{Date: day},
			Reminders: Reminders{
				Overrides: []ReminderOverride{{Method: "popup", Minutes: 9 * 60}},
			},
		},
	}
}

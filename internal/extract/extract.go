// Package extract pulls the flat quote record out of a source document's
// text. The document layout is fixed enough that anchored regular
// expressions do the job; missing fields fall back to neutral placeholders.
package extract

import (
	"regexp"
	"strings"
)

const (
	// DefaultQuoteNumber marks a document with no recognizable number.
	DefaultQuoteNumber = "S/N"
	// DefaultClientName marks a document with no recognizable client.
	DefaultClientName = "Cliente"
)

var (
	reQuoteNumber = regexp.MustCompile(`Número\s+([0-9]{4}-[0-9]{8})`)
	reIssueDate   = regexp.MustCompile(`Fecha de Emisión\s+([0-9]{2}/[0-9]{2}/[0-9]{4})`)
	reSeller      = regexp.MustCompile(`Vendedor:\s*(.+)`)
	reTotal       = regexp.MustCompile(`\bTOTAL\b\s*([\d.,]+)`)

	// The client name usually closes that line in uppercase.
	reClientName = regexp.MustCompile(`(?m)Apellido y Nombre / Razón Social:.*\s([A-ZÁÉÍÓÚÑ0-9]+)\s*$`)
)

// Fields is the flat record extracted from a quote document. Empty strings
// mean the field was not found.
type Fields struct {
	QuoteNumber string `json:"quote_number"`
	IssueDate   string `json:"issue_date"`
	Seller      string `json:"seller"`
	ClientName  string `json:"client_name"`
	Total       string `json:"total"`
}

// Parse scans the document text and returns the extracted record, with
// placeholder defaults for the quote number and client name.
func Parse(text string) Fields {
	f := Fields{
		QuoteNumber: firstGroup(reQuoteNumber, text),
		IssueDate:   firstGroup(reIssueDate, text),
		Seller:      firstGroup(reSeller, text),
		ClientName:  firstGroup(reClientName, text),
		Total:       firstGroup(reTotal, text),
	}
	if f.QuoteNumber == "" {
		f.QuoteNumber = DefaultQuoteNumber
	}
	if f.ClientName == "" {
		f.ClientName = DefaultClientName
	}
	return f
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

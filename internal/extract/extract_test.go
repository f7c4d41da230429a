package extract

import "testing"

const sampleDocument = `PRESUPUESTO
Número 0001-00000042
Fecha de Emisión 15/03/2024
Apellido y Nombre / Razón Social: ACME
Vendedor: Laura Pérez
Cantidad Descripción Precio
1 Panel solar 550W 480.000,00
TOTAL 1.234.567,89
`

func TestParseExtractsAllFields(t *testing.T) {
	f := Parse(sampleDocument)

	if f.QuoteNumber != "0001-00000042" {
		t.Fatalf("expected quote number 0001-00000042, got %q", f.QuoteNumber)
	}
	if f.IssueDate != "15/03/2024" {
		t.Fatalf("expected issue date 15/03/2024, got %q", f.IssueDate)
	}
	if f.Seller != "Laura Pérez" {
		t.Fatalf("expected seller Laura Pérez, got %q", f.Seller)
	}
	if f.ClientName != "ACME" {
		t.Fatalf("expected client ACME, got %q", f.ClientName)
	}
	if f.Total != "1.234.567,89" {
		t.Fatalf("expected total 1.234.567,89, got %q", f.Total)
	}
}

func TestParseAppliesPlaceholdersWhenFieldsMissing(t *testing.T) {
	f := Parse("documento sin campos reconocibles")

	if f.QuoteNumber != DefaultQuoteNumber {
		t.Fatalf("expected placeholder quote number, got %q", f.QuoteNumber)
	}
	if f.ClientName != DefaultClientName {
		t.Fatalf("expected placeholder client, got %q", f.ClientName)
	}
	if f.IssueDate != "" || f.Seller != "" || f.Total != "" {
		t.Fatalf("expected empty optional fields, got %+v", f)
	}
}

func TestParseIgnoresMalformedQuoteNumber(t *testing.T) {
	f := Parse("Número 12-345\nFecha de Emisión 01/02/2024")

	if f.QuoteNumber != DefaultQuoteNumber {
		t.Fatalf("expected placeholder for malformed number, got %q", f.QuoteNumber)
	}
	if f.IssueDate != "01/02/2024" {
		t.Fatalf("expected issue date to still parse, got %q", f.IssueDate)
	}
}

func TestParseClientNameTakesTrailingUppercaseToken(t *testing.T) {
	f := Parse("Apellido y Nombre / Razón Social: Sr. GÓMEZ\n")

	if f.ClientName != "GÓMEZ" {
		t.Fatalf("expected GÓMEZ, got %q", f.ClientName)
	}
}

func TestParseTotalTakesFirstTotalLine(t *testing.T) {
	f := Parse("SUBTOTAL 100,00\nTOTAL 121,00\nTOTAL CON IVA 121,00")

	if f.Total != "121,00" {
		t.Fatalf("expected 121,00, got %q", f.Total)
	}
}

package reports

import (
	"testing"
	"time"
)

func TestBuildWorkbookShape(t *testing.T) {
	when := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	items := []AdminItem{
		{
			Date:       when,
			Kind:       "cotizacion",
			VendorID:   "v@x.com",
			ClientName: "ACME SRL",
			Ref:        "0001-00000042",
			Status:     "cerrada",
			Total:      "$ 1.234.567,89",
			Summary:    "equipo split 3000fg",
		},
	}

	file, err := buildWorkbook(items)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if len(file.Sheets) != 1 || file.Sheets[0].Name != exportSheet {
		t.Fatalf("unexpected sheet layout: %+v", file.Sheets)
	}

	sheet := file.Sheets[0]
	if len(sheet.Rows) != 2 {
		t.Fatalf("expected header plus one data row, got %d", len(sheet.Rows))
	}

	for i, want := range exportHeader {
		if got := sheet.Rows[0].Cells[i].Value; got != want {
			t.Fatalf("header column %d: got %q, want %q", i, got, want)
		}
	}

	row := sheet.Rows[1]
	wantCells := []string{
		when.Format(time.RFC3339),
		"cotizacion",
		"v@x.com",
		"ACME SRL",
		"0001-00000042",
		"cerrada",
		"$ 1.234.567,89",
		"equipo split 3000fg",
	}
	for i, want := range wantCells {
		if got := row.Cells[i].Value; got != want {
			t.Fatalf("data column %d: got %q, want %q", i, got, want)
		}
	}
}

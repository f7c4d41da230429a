package reports

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx/v2"
)

const (
	exportFilename = "reporte_admin.xlsx"
	exportSheet    = "Panel"
)

var exportHeader = []string{"date", "kind", "vendor_id", "client_name", "ref", "status", "total", "summary"}

// buildWorkbook renders admin items into a single-sheet workbook.
func buildWorkbook(items []AdminItem) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("add export sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, col := range exportHeader {
		header.AddCell().SetString(col)
	}

	for _, it := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(it.Date.Format(time.RFC3339))
		row.AddCell().SetString(it.Kind)
		row.AddCell().SetString(it.VendorID)
		row.AddCell().SetString(it.ClientName)
		row.AddCell().SetString(it.Ref)
		row.AddCell().SetString(it.Status)
		row.AddCell().SetString(it.Total)
		row.AddCell().SetString(it.Summary)
	}

	return file, nil
}

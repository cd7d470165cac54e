package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/customerdesk/internal/domain"
)

const sheetName = "Customers"

// XLSX exporta las mismas columnas que CSV como planilla.
func XLSX(items []domain.Customer, now time.Time) (Artifact, error) {
	if len(items) == 0 {
		return Artifact{}, ErrNothingToExport
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return Artifact{}, fmt.Errorf("xlsx: %w", err)
	}
	header := make([]interface{}, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return Artifact{}, fmt.Errorf("xlsx encabezado: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "F1", bold)
	}
	_ = f.SetColWidth(sheetName, "A", "E", 24)

	for i, c := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return Artifact{}, err
		}
		row := []interface{}{c.CustomerID, c.CompanyName, c.Address, c.ContactNo, c.Username, c.UserID}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return Artifact{}, fmt.Errorf("xlsx fila %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Artifact{}, fmt.Errorf("xlsx: %w", err)
	}
	return Artifact{
		Filename:    filename(now, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

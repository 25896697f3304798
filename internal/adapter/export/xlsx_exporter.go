package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

const (
	SheetName   = "Inventory"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	TimeLayout  = "02/01/2006 15:04:05"
)

var header = []any{"#", "Code", "Name", "Scanned at"}

type XLSXExporter struct {
	loc *time.Location
}

func NewXLSXExporter(loc *time.Location) *XLSXExporter {
	if loc == nil {
		loc = time.Local
	}
	return &XLSXExporter{loc: loc}
}

// Write renders materials as a single-sheet workbook, one row per material in order.
func (e *XLSXExporter) Write(w io.Writer, materials []domain.Material) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, m := range materials {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := []any{i + 1, m.Code, m.Name, m.ScannedAt.In(e.loc).Format(TimeLayout)}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(SheetName, "B", "C", 28)
	_ = f.SetColWidth(SheetName, "D", "D", 22)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

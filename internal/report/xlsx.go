package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exports.
const (
	SheetTransposed = "Datos Procesados Transpuestos"
	SheetRaw        = "Datos Procesados"
)

const defaultSheet = "Sheet1"

// WriteXLSX writes t to w as a workbook. A1 is empty, the first row holds
// the visit indices and every following row holds a field and its values.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetTransposed); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}

	for v := 0; v < t.Visits(); v++ {
		if err := setCell(f, SheetTransposed, v+2, 1, v); err != nil {
			return fmt.Errorf("WriteXLSX: %w", err)
		}
	}
	for i := range t.Fields {
		label, values := t.Row(i)
		if err := setCell(f, SheetTransposed, 1, i+2, label); err != nil {
			return fmt.Errorf("WriteXLSX: %w", err)
		}
		for v, val := range values {
			if val == nil {
				continue
			}
			if err := setCell(f, SheetTransposed, v+2, i+2, *val); err != nil {
				return fmt.Errorf("WriteXLSX: %w", err)
			}
		}
	}
	if err := f.SetColWidth(SheetTransposed, "A", "A", 45); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: writing workbook: %w", err)
	}
	return nil
}

// WriteRawXLSX writes the batch frame with one header row and one row per
// visit.
func WriteRawXLSX(w io.Writer, fr *Frame) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetRaw); err != nil {
		return fmt.Errorf("WriteRawXLSX: %w", err)
	}
	for c, name := range fr.Columns {
		if err := setCell(f, SheetRaw, c+1, 1, name); err != nil {
			return fmt.Errorf("WriteRawXLSX: %w", err)
		}
	}
	for r, row := range fr.Rows {
		for c, name := range fr.Columns {
			val, ok := row.Get(name)
			if !ok {
				continue
			}
			if err := setCell(f, SheetRaw, c+1, r+2, val); err != nil {
				return fmt.Errorf("WriteRawXLSX: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteRawXLSX: writing workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

// XLSXFilename names the export of the report src.
func XLSXFilename(src string) string {
	return "procesado_transpuesto_" + stem(src) + ".xlsx"
}

// RawXLSXFilename names a batch export.
func RawXLSXFilename(dir string) string {
	name := stem(strings.TrimRight(dir, `/\`))
	if name == "" || name == "." {
		name = "lote"
	}
	return "procesado_" + name + ".xlsx"
}

func stem(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"medmaster/internal"
)

// ExportMedicinesToXLSX writes a catalogue snapshot for operators and the
// desktop frontend.
func ExportMedicinesToXLSX(rows []internal.MedicineRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"id", "medicine_name", "company_name", "category",
		"dosage_mg", "dosage_form", "description", "is_pediatric", "created_at",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.ID)
		set(2, row.MedicineName)
		set(3, row.CompanyName)
		set(4, row.Category)
		set(5, row.DosageMg)
		set(6, row.DosageForm)
		set(7, row.Description)
		set(8, row.IsPediatric)
		set(9, row.CreatedAt)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

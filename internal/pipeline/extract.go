package pipeline

import (
	"fmt"

	"medmaster/internal"
	"medmaster/internal/util"
)

// ExtractRecord turns one source row into a canonical record using the
// run's column mapping. The second return value is false when the row is
// skipped (structurally fine but no medicine name); an error marks the row
// as failed (a mapped column fell off a short row).
func ExtractRecord(m ColumnMapping, cells []string) (internal.MedicineRecord, bool, error) {
	name, err := cellAt(cells, m.MedicineName)
	if err != nil {
		return internal.MedicineRecord{}, false, err
	}
	if name == "" {
		return internal.MedicineRecord{}, false, nil
	}

	rec := internal.MedicineRecord{MedicineName: name}

	if rec.CompanyName, err = cellAt(cells, m.CompanyName); err != nil {
		return internal.MedicineRecord{}, false, err
	}
	if rec.Category, err = cellAt(cells, m.Category); err != nil {
		return internal.MedicineRecord{}, false, err
	}
	if rec.DosageMg, err = cellAt(cells, m.DosageMg); err != nil {
		return internal.MedicineRecord{}, false, err
	}
	if rec.DosageForm, err = cellAt(cells, m.DosageForm); err != nil {
		return internal.MedicineRecord{}, false, err
	}
	if rec.Description, err = cellAt(cells, m.Description); err != nil {
		return internal.MedicineRecord{}, false, err
	}

	pediatric, err := cellAt(cells, m.IsPediatric)
	if err != nil {
		return internal.MedicineRecord{}, false, err
	}
	rec.IsPediatric = util.ParseBoolFlag(pediatric)

	return rec, true, nil
}

func cellAt(cells []string, ref ColumnRef) (string, error) {
	if !ref.Mapped() {
		return "", nil
	}
	if ref.Index >= len(cells) {
		return "", fmt.Errorf("row has %d columns, mapped column %q is #%d", len(cells), ref.Name, ref.Index+1)
	}
	return util.CleanCell(cells[ref.Index]), nil
}

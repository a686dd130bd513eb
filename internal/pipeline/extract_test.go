package pipeline

import "testing"

func TestExtractRecordTypicalRow(t *testing.T) {
	m := MapColumns([]string{"Product_Name", "Manufacturer", "Category", "Dosage", "Form"})
	rec, ok, err := ExtractRecord(m, []string{"Paracetamol", "ABC Pharma", "Pain", "500mg", "Tablet"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("row unexpectedly skipped")
	}
	if rec.MedicineName != "Paracetamol" || rec.CompanyName != "ABC Pharma" ||
		rec.Category != "Pain" || rec.DosageMg != "500mg" || rec.DosageForm != "Tablet" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.IsPediatric != 0 {
		t.Fatalf("pediatric defaulted to %d", rec.IsPediatric)
	}
}

func TestExtractRecordSkipsEmptyName(t *testing.T) {
	m := MapColumns([]string{"name", "brand"})
	for _, name := range []string{"", "   "} {
		_, ok, err := ExtractRecord(m, []string{name, "BrandX"})
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatalf("row with name %q not skipped", name)
		}
	}
}

func TestExtractRecordShortRowFails(t *testing.T) {
	m := MapColumns([]string{"name", "company", "category", "dosage", "form"})
	_, _, err := ExtractRecord(m, []string{"Paracetamol", "ABC"})
	if err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestExtractRecordPediatricValues(t *testing.T) {
	m := MapColumns([]string{"name", "pediatric"})

	for _, value := range []string{"Yes", "TRUE", "1", "y", "Y"} {
		rec, ok, err := ExtractRecord(m, []string{"Calpol", value})
		if err != nil || !ok {
			t.Fatalf("value %q: ok=%v err=%v", value, ok, err)
		}
		if rec.IsPediatric != 1 {
			t.Fatalf("value %q: pediatric=%d", value, rec.IsPediatric)
		}
	}

	for _, value := range []string{"", "0", "no", "false", "maybe"} {
		rec, ok, err := ExtractRecord(m, []string{"Calpol", value})
		if err != nil || !ok {
			t.Fatalf("value %q: ok=%v err=%v", value, ok, err)
		}
		if rec.IsPediatric != 0 {
			t.Fatalf("value %q: pediatric=%d", value, rec.IsPediatric)
		}
	}
}

func TestExtractRecordUnmappedPediatricDefaultsToZero(t *testing.T) {
	m := MapColumns([]string{"name"})
	rec, ok, err := ExtractRecord(m, []string{"Calpol"})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if rec.IsPediatric != 0 {
		t.Fatalf("pediatric=%d", rec.IsPediatric)
	}
}

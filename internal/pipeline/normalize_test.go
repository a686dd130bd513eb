package pipeline

import (
	"testing"

	"medmaster/internal"
)

func TestExtractDosage(t *testing.T) {
	if got := ExtractDosage("Paracetamol (500mg)"); got != "500mg" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractDosage("Amoxicillin (125mg/5ml)"); got != "125mg/5ml" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractDosage("Paracetamol (325mg) + Caffeine (30mg)"); got != "325mg + 30mg" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractDosage("no strength here"); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeForm(t *testing.T) {
	if got := NormalizeForm("strip of 10 tablets"); got != "Tablet" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeForm("bottle of 60 ml Syrup"); got != "Syrup" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeForm("sachet"); got != "sachet" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeForm("  "); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestLooksPediatric(t *testing.T) {
	if !LooksPediatric("Calpol Junior", "syrup") {
		t.Fatal("syrup not flagged")
	}
	if LooksPediatric("Metformin", "Tablet") {
		t.Fatal("tablet wrongly flagged")
	}
}

func TestEnrichRecordFillsBlanks(t *testing.T) {
	rec := internal.MedicineRecord{
		MedicineName: "Crocin Advance",
		Description:  "Paracetamol (500mg)",
		DosageForm:   "strip of 15 tablets",
	}
	EnrichRecord(&rec)
	if rec.DosageMg != "500mg" {
		t.Fatalf("dosage %q", rec.DosageMg)
	}
	if rec.DosageForm != "Tablet" {
		t.Fatalf("form %q", rec.DosageForm)
	}
	if rec.IsPediatric != 0 {
		t.Fatalf("pediatric %d", rec.IsPediatric)
	}
}

func TestEnrichRecordKeepsExistingValues(t *testing.T) {
	rec := internal.MedicineRecord{
		MedicineName: "Paracetamol",
		DosageMg:     "650mg",
		Description:  "Paracetamol (500mg)",
	}
	EnrichRecord(&rec)
	if rec.DosageMg != "650mg" {
		t.Fatalf("existing dosage overwritten: %q", rec.DosageMg)
	}
}

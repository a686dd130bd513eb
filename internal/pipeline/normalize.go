package pipeline

import (
	"regexp"
	"strings"

	"medmaster/internal"
)

// Dataset enrichment: vendor exports often bury the strength inside a
// composition text and the form inside a pack-size label. These helpers fill
// blank canonical fields from whatever text the row did carry. Opt-in via
// the importer's Enrich flag; the default pipeline passes values through
// untouched.

var dosagePattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:mg|ml|mcg|g|IU|%)\s*(?:/\s*\d+\s*(?:mg|ml|mcg|g))?`)

var formKeywords = []struct {
	keyword string
	form    string
}{
	{"tablet", "Tablet"},
	{"capsule", "Capsule"},
	{"syrup", "Syrup"},
	{"injectable", "Injection"},
	{"injection", "Injection"},
	{"ointment", "Cream"},
	{"cream", "Cream"},
	{"drops", "Drops"},
	{"suspension", "Suspension"},
	{"powder", "Powder"},
	{"inhaler", "Inhaler"},
	{"gel", "Gel"},
	{"spray", "Spray"},
}

var pediatricKeywords = []string{"kid", "child", "pediatric", "paediatric", "infant", "baby", "drops", "syrup"}

// ExtractDosage pulls strength descriptors out of free composition text,
// e.g. "Paracetamol (500mg)" -> "500mg", compound salts joined with " + ".
func ExtractDosage(compositions ...string) string {
	parts := []string{}
	for _, c := range compositions {
		for _, match := range dosagePattern.FindAllString(c, -1) {
			parts = append(parts, strings.TrimSpace(match))
		}
	}
	return strings.Join(parts, " + ")
}

// NormalizeForm maps a pack-size label to a canonical dosage form, or returns
// the label unchanged when no keyword matches.
func NormalizeForm(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	for _, fk := range formKeywords {
		if strings.Contains(lower, fk.keyword) {
			return fk.form
		}
	}
	return trimmed
}

// LooksPediatric applies the keyword heuristic over the texts a row carries.
func LooksPediatric(texts ...string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, kw := range pediatricKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// EnrichRecord fills blank fields in place and canonicalizes the form.
func EnrichRecord(rec *internal.MedicineRecord) {
	if rec.DosageMg == "" {
		rec.DosageMg = ExtractDosage(rec.Description, rec.DosageForm)
	}
	rec.DosageForm = NormalizeForm(rec.DosageForm)
	if rec.IsPediatric == 0 && LooksPediatric(rec.MedicineName, rec.DosageForm, rec.Description) {
		rec.IsPediatric = 1
	}
}

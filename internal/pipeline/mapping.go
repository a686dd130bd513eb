package pipeline

import (
	"strings"

	"medmaster/internal/util"
)

// ColumnRef points a canonical field at the source column supplying it.
// Index -1 means no column was assigned.
type ColumnRef struct {
	Name  string
	Index int
}

func (r ColumnRef) Mapped() bool { return r.Index >= 0 }

// ColumnMapping assigns at most one source column to each canonical field.
// Built once from the header row of an import run and never mutated after.
type ColumnMapping struct {
	MedicineName ColumnRef
	CompanyName  ColumnRef
	Category     ColumnRef
	DosageMg     ColumnRef
	DosageForm   ColumnRef
	Description  ColumnRef
	IsPediatric  ColumnRef
}

// headerRule is one predicate over a lower-cased, trimmed header cell.
type headerRule func(header string) bool

// Per-field rule tables, evaluated top to bottom; the first rule matching any
// header wins, and ties between headers go to file column order. Fields are
// matched in a fixed priority order (medicine name first) but do not exclude
// each other's columns: an ambiguous header may serve two fields.
var (
	medicineNameRules = []headerRule{
		exact("product_name", "medicine_name", "drug_name", "name"),
		containsAll("medicine", "name"),
		containsAll("product", "name"),
		exact("medicine", "drug", "medication"),
		func(h string) bool { return strings.Contains(h, "name") && !strings.Contains(h, "company") },
	}

	companyNameRules = []headerRule{
		exact("product_manufactured", "manufacturer", "company_name", "company", "maker", "brand"),
		containsAll("company", "name"),
		containsAny("manufactured", "manufacturer"),
	}

	categoryRules = []headerRule{
		exact("sub_category", "category", "type", "class", "classification", "drug_category"),
		containsAny("category"),
	}

	// Strength-like headers feed dosage_mg unless they name the form;
	// any remaining "form" header feeds dosage_form.
	dosageMgRules = []headerRule{
		exact("salt_composition", "dosage", "dose", "strength"),
		func(h string) bool { return hasStrengthWord(h) && !strings.Contains(h, "form") },
	}

	dosageFormRules = []headerRule{
		func(h string) bool { return hasStrengthWord(h) && strings.Contains(h, "form") },
		containsAny("form"),
	}

	descriptionRules = []headerRule{
		exact("medicine_desc", "description", "desc", "details", "notes", "remarks"),
		containsAny("desc"),
	}

	pediatricRules = []headerRule{
		exact("pediatric", "paediatric", "child", "children", "is_pediatric", "pediatric_use"),
	}
)

// MapColumns builds the mapping for one import run from the raw header row.
// If nothing matched for the medicine name, the first column is force-assigned
// so the run always has an identity field.
func MapColumns(headers []string) ColumnMapping {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = util.CleanHeader(h)
	}

	m := ColumnMapping{
		MedicineName: firstMatch(headers, cleaned, medicineNameRules),
		CompanyName:  firstMatch(headers, cleaned, companyNameRules),
		Category:     firstMatch(headers, cleaned, categoryRules),
		DosageMg:     firstMatch(headers, cleaned, dosageMgRules),
		DosageForm:   firstMatch(headers, cleaned, dosageFormRules),
		Description:  firstMatch(headers, cleaned, descriptionRules),
		IsPediatric:  firstMatch(headers, cleaned, pediatricRules),
	}

	if !m.MedicineName.Mapped() && len(headers) > 0 {
		m.MedicineName = ColumnRef{Name: headers[0], Index: 0}
	}

	return m
}

func firstMatch(raw, cleaned []string, rules []headerRule) ColumnRef {
	for _, rule := range rules {
		for i, h := range cleaned {
			if rule(h) {
				return ColumnRef{Name: raw[i], Index: i}
			}
		}
	}
	return ColumnRef{Index: -1}
}

func exact(names ...string) headerRule {
	set := map[string]struct{}{}
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(h string) bool {
		_, ok := set[h]
		return ok
	}
}

func containsAll(subs ...string) headerRule {
	return func(h string) bool {
		for _, sub := range subs {
			if !strings.Contains(h, sub) {
				return false
			}
		}
		return true
	}
}

func containsAny(subs ...string) headerRule {
	return func(h string) bool {
		for _, sub := range subs {
			if strings.Contains(h, sub) {
				return true
			}
		}
		return false
	}
}

func hasStrengthWord(h string) bool {
	return strings.Contains(h, "dosage") || strings.Contains(h, "dose") || strings.Contains(h, "strength")
}

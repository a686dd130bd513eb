package mailimport

import "strings"

type DetectResult struct {
	IsCatalogue bool
	Score       float64
	Reason      string
}

var catalogueKeywords = []string{"catalog", "catalogue", "price list", "pricelist", "formulary", "medicine", "medication", "stock list", "product list", "rate list"}

// DetectCatalogueMail scores a vendor mail for catalogue content. Subject
// keywords weigh more than body keywords; a spreadsheet-like attachment or an
// HTML table is the strongest single signal, since vendors rarely announce a
// price list without one.
func DetectCatalogueMail(subject, text, html string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)
	html = strings.ToLower(html)

	score := 0.0
	for _, kw := range catalogueKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
		if strings.Contains(text, kw) || strings.Contains(html, kw) {
			score += 0.1
		}
	}

	for _, name := range attachmentNames {
		ln := strings.ToLower(name)
		if strings.HasSuffix(ln, ".csv") || strings.HasSuffix(ln, ".tsv") ||
			strings.HasSuffix(ln, ".txt") ||
			strings.HasSuffix(ln, ".xlsx") || strings.HasSuffix(ln, ".xls") {
			score += 0.35
			break
		}
	}

	if strings.Contains(html, "<table") {
		score += 0.25
	}
	if score > 1 {
		score = 1
	}

	isCatalogue := score >= 0.45
	reason := "rules_negative"
	if isCatalogue {
		reason = "rules_positive"
	}

	return DetectResult{IsCatalogue: isCatalogue, Score: score, Reason: reason}
}

func hasTableExtension(name string) bool {
	ln := strings.ToLower(name)
	for _, ext := range []string{".csv", ".tsv", ".txt", ".xlsx", ".xls"} {
		if strings.HasSuffix(ln, ext) {
			return true
		}
	}
	return false
}

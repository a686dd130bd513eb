package catalog

import (
	"medmaster/internal"
	"medmaster/internal/util"
)

// Index holds the in-memory lookup structures for fuzzy catalogue search:
// exact normalized-name buckets plus an inverted token index used to narrow
// the candidate set before scoring.
type Index struct {
	RowsByID           map[int]internal.MedicineRow
	ByName             map[string][]internal.MedicineRow
	TokenToIDs         map[string]map[int]struct{}
	NormalizedNameByID map[int]string
}

func BuildIndex(rows []internal.MedicineRow) *Index {
	idx := &Index{
		RowsByID:           map[int]internal.MedicineRow{},
		ByName:             map[string][]internal.MedicineRow{},
		TokenToIDs:         map[string]map[int]struct{}{},
		NormalizedNameByID: map[int]string{},
	}

	for _, row := range rows {
		idx.RowsByID[row.ID] = row
		norm := util.NormalizeName(row.MedicineName)
		idx.NormalizedNameByID[row.ID] = norm
		idx.ByName[norm] = append(idx.ByName[norm], row)

		for _, token := range util.Tokenize(row.MedicineName) {
			if _, ok := idx.TokenToIDs[token]; !ok {
				idx.TokenToIDs[token] = map[int]struct{}{}
			}
			idx.TokenToIDs[token][row.ID] = struct{}{}
		}
	}

	return idx
}

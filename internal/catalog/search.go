package catalog

import (
	"sort"

	"medmaster/internal"
	"medmaster/internal/util"
)

// candidateScanCap bounds the fallback scan when no token of the query hits
// the inverted index.
const candidateScanCap = 1500

// Search ranks catalogue entries against a free-text query. An exact
// normalized-name hit short-circuits with score 1; otherwise candidates from
// the token index are scored by bigram overlap blended with token overlap.
func (idx *Index) Search(query string, limit int) []internal.SearchHit {
	if limit <= 0 {
		limit = 20
	}

	norm := util.NormalizeName(query)
	if exact, ok := idx.ByName[norm]; ok {
		hits := make([]internal.SearchHit, 0, len(exact))
		for _, row := range exact {
			hits = append(hits, internal.SearchHit{Medicine: row, Score: 1})
		}
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits
	}

	queryTokens := util.Tokenize(query)
	ids := map[int]struct{}{}
	for _, token := range queryTokens {
		for id := range idx.TokenToIDs[token] {
			ids[id] = struct{}{}
		}
	}

	if len(ids) == 0 {
		i := 0
		for id := range idx.RowsByID {
			ids[id] = struct{}{}
			i++
			if i >= candidateScanCap {
				break
			}
		}
	}

	hits := make([]internal.SearchHit, 0, len(ids))
	for id := range ids {
		candidate := idx.NormalizedNameByID[id]
		score := scoreName(norm, candidate, queryTokens, util.Tokenize(candidate))
		hits = append(hits, internal.SearchHit{Medicine: idx.RowsByID[id], Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Medicine.ID < hits[j].Medicine.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func scoreName(query, candidate string, queryTokens, candidateTokens []string) float64 {
	dice := util.DiceCoefficient(query, candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range candidateTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}

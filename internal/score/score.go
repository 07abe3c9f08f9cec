// Package score computes relevance scores for ranked search results. Scores
// are bounded to [0,1] and combine a pseudo-semantic signal (embedding
// cosine), lexical keyword hits, and recency.
package score

import (
	"strings"
	"time"

	"burrow/internal/embedding"
)

// Signal weights. Keyword bonuses are uncapped per hit; only the final
// clamp bounds the total.
const (
	weightCosine  = 0.5
	weightNameHit = 0.3
	weightContent = 0.2
	weightRecency = 0.1
	recencyWindow = 7 * 24 * time.Hour
	transientCap  = 0.9
	transientName = 0.4
)

// Keywords splits a query into lowercase whitespace-delimited tokens.
func Keywords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Score rates how well a file matches a query. name and content are the
// file's name and cached content sample (content may be empty for entries
// without one), modTime its last modification time, and qvec/fvec the query
// and file embeddings. The result is clamped to 1.0.
func Score(query, name, content string, modTime time.Time, qvec, fvec []float64) float64 {
	// Negative cosine is floored at zero so a pseudo-embedding mismatch can
	// never eat into lexical hits.
	cos := embedding.Cosine(qvec, fvec)
	if cos < 0 {
		cos = 0
	}
	s := cos * weightCosine

	lowerName := strings.ToLower(name)
	lowerContent := strings.ToLower(content)
	for _, kw := range Keywords(query) {
		if strings.Contains(lowerName, kw) {
			s += weightNameHit
		}
		if lowerContent != "" && strings.Contains(lowerContent, kw) {
			s += weightContent
		}
	}

	if time.Since(modTime) < recencyWindow {
		s += weightRecency
	}

	if s > 1.0 {
		s = 1.0
	}
	if s < 0 {
		s = 0
	}
	return s
}

// ScoreTransient rates a recently-seen file that is not in the index, from
// its name and the time it was last seen. A name with no keyword hit scores
// zero regardless of age; recency alone is not relevance. The cap sits
// deliberately below 1.0 so fully-scored indexed entries can always outrank
// transient ones in a merged result set.
func ScoreTransient(query, name string, seen time.Time) float64 {
	var s float64
	lowerName := strings.ToLower(name)
	for _, kw := range Keywords(query) {
		if strings.Contains(lowerName, kw) {
			s += transientName
		}
	}
	if s == 0 {
		return 0
	}

	switch age := time.Since(seen); {
	case age <= time.Hour:
		s += 0.3
	case age <= 6*time.Hour:
		s += 0.2
	case age <= 24*time.Hour:
		s += 0.1
	}

	if s > transientCap {
		s = transientCap
	}
	return s
}

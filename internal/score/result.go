package score

import "sort"

// Result is one ranked search hit. Relevance is in [0,1]; Summary and
// Excerpt are optional.
type Result struct {
	Path      string
	Relevance float64
	Summary   string
	Excerpt   string
}

// SortResults orders results by descending relevance. Ties break by path so
// identical input state always yields the same ordering.
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Path < results[j].Path
	})
}

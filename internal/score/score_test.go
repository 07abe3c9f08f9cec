package score

import (
	"testing"
	"time"

	"burrow/internal/embedding"

	"github.com/stretchr/testify/assert"
)

var old = time.Now().Add(-30 * 24 * time.Hour)

func TestScoreNameHit(t *testing.T) {
	s := Score("budget", "budget.txt", "", old, nil, nil)
	assert.InDelta(t, 0.3, s, 1e-9)
}

func TestScoreContentHit(t *testing.T) {
	s := Score("budget", "notes.txt", "spring budget plans", old, nil, nil)
	assert.InDelta(t, 0.2, s, 1e-9)
}

func TestScoreNoContentNoContribution(t *testing.T) {
	// A file without a content sample can't collect content bonuses.
	s := Score("budget", "report.pdf", "", old, nil, nil)
	assert.Zero(t, s)
}

func TestScoreRecencyBonus(t *testing.T) {
	fresh := Score("budget", "report.pdf", "", time.Now(), nil, nil)
	assert.InDelta(t, 0.1, fresh, 1e-9)
}

func TestScoreMultipleKeywordsUncapped(t *testing.T) {
	// Three keywords each hit name (0.3) and content (0.2); only the final
	// clamp bounds the sum.
	s := Score("tax budget plan", "tax-budget-plan.txt", "tax budget plan", old, nil, nil)
	assert.Equal(t, 1.0, s)
}

func TestScoreCaseInsensitive(t *testing.T) {
	s := Score("BUDGET", "Budget.TXT", "", old, nil, nil)
	assert.InDelta(t, 0.3, s, 1e-9)
}

func TestScoreCosineContribution(t *testing.T) {
	v := embedding.Vector("identical")
	s := Score("zzz", "unrelated.bin", "", old, v, v)
	assert.InDelta(t, 0.5, s, 1e-9)
}

func TestScoreClampsToOne(t *testing.T) {
	v := embedding.Vector("q")
	s := Score("report", "report.txt", "report report", time.Now(), v, v)
	assert.Equal(t, 1.0, s)
}

func TestScoreTransientRecency(t *testing.T) {
	tests := []struct {
		name string
		seen time.Time
		want float64
	}{
		{"within the hour", time.Now().Add(-10 * time.Minute), 0.4 + 0.3},
		{"within six hours", time.Now().Add(-3 * time.Hour), 0.4 + 0.2},
		{"within a day", time.Now().Add(-12 * time.Hour), 0.4 + 0.1},
		{"older than a day", time.Now().Add(-48 * time.Hour), 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreTransient("invoice", "invoice.pdf", tt.seen)
			assert.InDelta(t, tt.want, s, 1e-9)
		})
	}
}

func TestScoreTransientRequiresNameHit(t *testing.T) {
	// A brand-new file whose name carries no query keyword is irrelevant;
	// recency alone earns nothing.
	s := ScoreTransient("tax invoice", "screenshot.png", time.Now())
	assert.Zero(t, s)
}

func TestScoreTransientCappedBelowIndexed(t *testing.T) {
	// Every keyword matches and the file is brand new; the cap keeps the
	// transient score below a fully-scored indexed entry.
	s := ScoreTransient("tax invoice scan", "tax-invoice-scan.pdf", time.Now())
	assert.Equal(t, 0.9, s)
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"two", "words"}, Keywords("  TWO   words "))
	assert.Empty(t, Keywords("   "))
}

func TestSortResultsOrderAndTieBreak(t *testing.T) {
	results := []Result{
		{Path: "b.txt", Relevance: 0.5},
		{Path: "a.txt", Relevance: 0.5},
		{Path: "c.txt", Relevance: 0.9},
	}
	SortResults(results)

	assert.Equal(t, "c.txt", results[0].Path)
	assert.Equal(t, "a.txt", results[1].Path)
	assert.Equal(t, "b.txt", results[2].Path)
}

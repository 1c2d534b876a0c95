package app

import (
	"math/rand"
	"testing"

	"ham-practice/internal/domain"
)

func TestShufflerProducesBijection(t *testing.T) {
	shuffler := NewShuffler(rand.New(rand.NewSource(42)))
	q := domain.Question{ID: "q1", Options: map[string]string{"A": "1", "B": "2", "C": "3", "D": "4", "E": "5"}, Answer: "A"}

	for i := 0; i < 20; i++ {
		q.ID = string(rune('a' + i))
		m := shuffler.For(q)
		if len(m.DisplayToOriginal) != len(q.Options) || len(m.OriginalToDisplay) != len(q.Options) {
			t.Fatalf("mapping not total: %+v", m)
		}
		for display, original := range m.DisplayToOriginal {
			if !q.HasLabel(display) || !q.HasLabel(original) {
				t.Fatalf("label outside option set: %s -> %s", display, original)
			}
			if m.OriginalToDisplay[original] != display {
				t.Fatalf("maps are not inverse: %s -> %s -> %s", display, original, m.OriginalToDisplay[original])
			}
		}
	}
}

func TestShufflerIsStablePerQuestion(t *testing.T) {
	shuffler := NewShuffler(rand.New(rand.NewSource(1)))
	q := domain.Question{ID: "q1", Options: map[string]string{"A": "1", "B": "2", "C": "3", "D": "4"}, Answer: "C"}

	first := shuffler.For(q)
	for i := 0; i < 10; i++ {
		again := shuffler.For(q)
		for k, v := range first.DisplayToOriginal {
			if again.DisplayToOriginal[k] != v {
				t.Fatalf("mapping changed on call %d", i)
			}
		}
	}
}

func TestShuffleScenarioOriginalAShownAsB(t *testing.T) {
	// a draw of 0 swaps the two labels
	shuffler := NewShuffler(&seqSource{vals: []float64{0}})
	q := domain.Question{ID: "q1", Options: map[string]string{"A": "x", "B": "y"}, Answer: "A"}

	m := shuffler.For(q)
	if m.OriginalToDisplay["A"] != "B" || m.DisplayToOriginal["B"] != "A" {
		t.Fatalf("expected A shown as B, got %+v", m)
	}
	if got := m.ToDisplay("A"); got != "B" {
		t.Fatalf("ToDisplay(A) = %q, want B", got)
	}
}

func TestShuffleHandlesEdgeDraws(t *testing.T) {
	items := []int{1, 2, 3, 4}
	// a draw of 1.0 must not index past the slice
	shuffle[int](&seqSource{vals: []float64{0.999999999, 1}}, items)
	seen := map[int]bool{}
	for _, v := range items {
		seen[v] = true
	}
	if len(seen) != 4 {
		t.Fatalf("shuffle lost elements: %v", items)
	}
}

func TestCryptoSourceRange(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 1000; i++ {
		if v := src.Float64(); v < 0 || v >= 1 {
			t.Fatalf("draw out of range: %v", v)
		}
	}
}

package app

import "ham-practice/internal/domain"

// Shuffler hands out one option permutation per question ID for the lifetime of a
// session. A question never re-shuffles between being shown and being checked.
type Shuffler struct {
	src  RandomSource
	maps map[string]domain.ShuffleMap
}

func NewShuffler(src RandomSource) *Shuffler {
	return &Shuffler{src: src, maps: make(map[string]domain.ShuffleMap)}
}

// For returns the mapping for q, generating it on first use.
func (s *Shuffler) For(q domain.Question) domain.ShuffleMap {
	if m, ok := s.maps[q.ID]; ok {
		return m
	}

	display := q.Labels()
	originals := append([]string(nil), display...)
	shuffle(s.src, originals)

	m := domain.ShuffleMap{
		DisplayToOriginal: make(map[string]string, len(display)),
		OriginalToDisplay: make(map[string]string, len(display)),
	}
	for i, label := range display {
		m.DisplayToOriginal[label] = originals[i]
		m.OriginalToDisplay[originals[i]] = label
	}
	s.maps[q.ID] = m
	return m
}

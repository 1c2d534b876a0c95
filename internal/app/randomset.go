package app

import (
	"sort"

	"ham-practice/internal/domain"
)

// defaultSampleSize is the size of an unstratified random set.
const defaultSampleSize = 30

// Quotas maps a bank ID to the composition of its random set.
type Quotas map[string]domain.Quota

// DefaultQuotas mirrors the official exam composition of the a/b/c banks.
func DefaultQuotas() Quotas {
	return Quotas{
		"a": {Single: 32, Multi: 8},
		"b": {Single: 45, Multi: 15},
		"c": {Single: 70, Multi: 20},
	}
}

// Merge returns a copy of q with overrides applied on top.
func (q Quotas) Merge(overrides map[string]domain.Quota) Quotas {
	out := make(Quotas, len(q)+len(overrides))
	for id, quota := range q {
		out[id] = quota
	}
	for id, quota := range overrides {
		out[id] = quota
	}
	return out
}

// Build picks a random subset of questions for bankID. Banks with a quota get a
// stratified set (singles and multis drawn separately, topped up from the leftovers
// when a group runs short); other banks get min(30, len) questions drawn uniformly.
// The result keeps the bank's original relative order.
func (q Quotas) Build(bankID string, questions []domain.Question, src RandomSource) []domain.Question {
	quota, ok := q[bankID]
	if !ok {
		return sample(questions, min(defaultSampleSize, len(questions)), src)
	}

	var singles, multis []int
	for i, question := range questions {
		if question.IsMulti() {
			multis = append(multis, i)
		} else {
			singles = append(singles, i)
		}
	}
	shuffle(src, singles)
	shuffle(src, multis)

	takeSingle := clamp(quota.Single, 0, len(singles))
	takeMulti := clamp(quota.Multi, 0, len(multis))

	chosen := make([]int, 0, quota.Total())
	chosen = append(chosen, singles[:takeSingle]...)
	chosen = append(chosen, multis[:takeMulti]...)

	if target := max(quota.Total(), 0); len(chosen) < target {
		rest := make([]int, 0, len(singles)-takeSingle+len(multis)-takeMulti)
		rest = append(rest, singles[takeSingle:]...)
		rest = append(rest, multis[takeMulti:]...)
		shuffle(src, rest)
		need := min(target-len(chosen), len(rest))
		chosen = append(chosen, rest[:need]...)
	}

	return pick(questions, chosen)
}

func sample(questions []domain.Question, n int, src RandomSource) []domain.Question {
	indices := make([]int, len(questions))
	for i := range indices {
		indices[i] = i
	}
	shuffle(src, indices)
	return pick(questions, indices[:n])
}

// pick returns the questions at indices in ascending index order.
func pick(questions []domain.Question, indices []int) []domain.Question {
	sort.Ints(indices)
	out := make([]domain.Question, 0, len(indices))
	for _, i := range indices {
		out = append(out, questions[i])
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package app

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"ham-practice/internal/domain"
	"ham-practice/internal/metrics"
)

// Mode is the kind of practice set a session was built from.
type Mode string

const (
	ModeBank   Mode = "bank"
	ModeWrong  Mode = "wrong"
	ModeRandom Mode = "random"
)

// State is the coarse session state.
type State string

const (
	StateEmpty     State = "empty"     // no bank loaded
	StateLoaded    State = "loaded"    // non-empty list, valid index
	StateExhausted State = "exhausted" // a bank is loaded but the list is empty
)

// ProgressRecorder receives the session transitions that outlive the session.
type ProgressRecorder interface {
	SavePosition(bankID, questionID string, index int)
	MarkWrong(bankID, questionID string)
	ClearWrong(bankID, questionID string)
}

type nopRecorder struct{}

func (nopRecorder) SavePosition(string, string, int) {}
func (nopRecorder) MarkWrong(string, string)         {}
func (nopRecorder) ClearWrong(string, string)        {}

type labelSet map[string]struct{}

// Session owns one active question list: its position, selections and revealed result.
// It is replaced wholesale whenever the bank or mode changes. Every operation on an
// empty or exhausted session is a no-op.
type Session struct {
	bankID    string
	source    string
	mode      Mode
	questions []domain.Question
	index     int

	shuffler *Shuffler
	// selections is keyed by question ID. Outside random sets it holds at most the
	// current question.
	selections map[string]labelSet
	revealed   *domain.CheckResult
	score      *domain.Score

	progress ProgressRecorder
}

func newEmptySession() *Session {
	return &Session{selections: make(map[string]labelSet)}
}

// newSession copies questions so removals in wrong mode never touch cached bank data.
func newSession(bankID, source string, mode Mode, questions []domain.Question, start int, src RandomSource, progress ProgressRecorder) *Session {
	if progress == nil {
		progress = nopRecorder{}
	}
	s := &Session{
		bankID:     bankID,
		source:     source,
		mode:       mode,
		questions:  append([]domain.Question(nil), questions...),
		index:      clamp(start, 0, max(len(questions)-1, 0)),
		shuffler:   NewShuffler(src),
		selections: make(map[string]labelSet),
		progress:   progress,
	}
	s.recordPosition()
	return s
}

// restoreIndex resolves a saved position against a freshly loaded list: the saved
// question's index when present, else the saved numeric index clamped into range.
func restoreIndex(questions []domain.Question, pos domain.SavedPosition, ok bool) int {
	if !ok || len(questions) == 0 {
		return 0
	}
	for i, q := range questions {
		if q.ID == pos.QuestionID {
			return i
		}
	}
	return clamp(pos.Index, 0, len(questions)-1)
}

// State reports the coarse state of the session.
func (s *Session) State() State {
	switch {
	case s.bankID == "":
		return StateEmpty
	case len(s.questions) == 0:
		return StateExhausted
	default:
		return StateLoaded
	}
}

func (s *Session) BankID() string { return s.bankID }
func (s *Session) Mode() Mode     { return s.mode }
func (s *Session) Index() int     { return s.index }
func (s *Session) Len() int       { return len(s.questions) }

// Current returns the question at the current index.
func (s *Session) Current() (domain.Question, bool) {
	if s.State() != StateLoaded {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// Select applies a display label to the current question: single-answer questions
// replace the selection, multi-answer questions toggle the label. Any revealed
// result is cleared. Labels outside the question's option set are ignored.
func (s *Session) Select(label string) bool {
	q, ok := s.Current()
	if !ok {
		return false
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	if !q.HasLabel(label) {
		return false
	}

	chosen := s.selections[q.ID]
	if chosen == nil || !q.IsMulti() {
		chosen = make(labelSet)
		s.selections[q.ID] = chosen
	}
	if _, on := chosen[label]; on && q.IsMulti() {
		delete(chosen, label)
	} else {
		chosen[label] = struct{}{}
	}
	s.revealed = nil
	return true
}

// Reset clears the current question's selection and revealed result.
func (s *Session) Reset() {
	q, ok := s.Current()
	if !ok {
		return
	}
	delete(s.selections, q.ID)
	s.revealed = nil
}

// Check scores the current selection against the canonical answer and records the
// outcome in the wrong set. In wrong mode a correct answer drops the question from
// the list.
func (s *Session) Check() (domain.CheckResult, bool) {
	q, ok := s.Current()
	if !ok {
		return domain.CheckResult{}, false
	}
	result := s.evaluate(q)
	metrics.ObserveCheck(result.Correct)

	if result.Correct {
		s.progress.ClearWrong(s.bankID, q.ID)
	} else {
		s.progress.MarkWrong(s.bankID, q.ID)
	}

	if result.Correct && s.mode == ModeWrong {
		s.removeCurrent()
		return result, true
	}
	s.revealed = &result
	return result, true
}

// Submit scores a complete random set. Every question needs at least one selection.
func (s *Session) Submit() (domain.Score, error) {
	if s.State() == StateEmpty {
		return domain.Score{}, domain.ErrNoSession
	}
	if s.mode != ModeRandom {
		return domain.Score{}, domain.ErrNotRandomSession
	}
	for _, q := range s.questions {
		if len(s.selections[q.ID]) == 0 {
			return domain.Score{}, domain.ErrIncompleteSubmission
		}
	}

	score := domain.Score{Total: len(s.questions), Results: make([]domain.CheckResult, 0, len(s.questions))}
	for _, q := range s.questions {
		result := s.evaluate(q)
		metrics.ObserveCheck(result.Correct)
		if result.Correct {
			score.Correct++
			s.progress.ClearWrong(s.bankID, q.ID)
		} else {
			s.progress.MarkWrong(s.bankID, q.ID)
		}
		score.Results = append(score.Results, result)
	}
	s.score = &score
	return score, nil
}

// Jump moves to a 1-based question number (clamped into range) or to a question ID.
// Any other token leaves the position untouched and returns ErrInvalidTarget.
func (s *Session) Jump(token string) error {
	if s.State() != StateLoaded {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidTarget
	}
	if isDigits(token) {
		target := len(s.questions) - 1
		if n, err := strconv.Atoi(token); err == nil {
			target = n - 1
		}
		s.moveTo(clamp(target, 0, len(s.questions)-1))
		return nil
	}
	for i, q := range s.questions {
		if q.ID == token {
			s.moveTo(i)
			return nil
		}
	}
	return domain.ErrInvalidTarget
}

// Next moves forward one question without wrapping.
func (s *Session) Next() {
	if s.State() != StateLoaded {
		return
	}
	s.moveTo(min(s.index+1, len(s.questions)-1))
}

// Previous moves back one question without wrapping.
func (s *Session) Previous() {
	if s.State() != StateLoaded {
		return
	}
	s.moveTo(max(s.index-1, 0))
}

// ShuffleFor exposes the session's mapping for q.
func (s *Session) ShuffleFor(q domain.Question) domain.ShuffleMap {
	return s.shuffler.For(q)
}

func (s *Session) evaluate(q domain.Question) domain.CheckResult {
	answer := s.shuffler.For(q).ToDisplay(q.Answer)
	selected := s.selectedLabels(q.ID)

	correct := false
	if answer == "" {
		log.Printf("question %s/%s: answer %q matches none of its options", s.bankID, q.ID, q.Answer)
	} else {
		correct = sameLabels(answer, selected)
	}
	return domain.CheckResult{
		QuestionID: q.ID,
		Correct:    correct,
		Answer:     answer,
		Selected:   selected,
		Summary:    summarize(correct, answer, selected),
	}
}

func (s *Session) selectedLabels(questionID string) []string {
	chosen := s.selections[questionID]
	labels := make([]string, 0, len(chosen))
	for label := range chosen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (s *Session) moveTo(i int) {
	if i == s.index {
		return
	}
	s.index = i
	s.questionChanged()
}

// questionChanged drops per-question state and persists the resume point.
func (s *Session) questionChanged() {
	s.revealed = nil
	if s.mode != ModeRandom {
		s.selections = make(map[string]labelSet)
	}
	s.recordPosition()
}

func (s *Session) removeCurrent() {
	removed := s.questions[s.index]
	s.questions = append(s.questions[:s.index:s.index], s.questions[s.index+1:]...)
	delete(s.selections, removed.ID)
	s.index = clamp(s.index, 0, max(len(s.questions)-1, 0))
	s.questionChanged()
}

func (s *Session) recordPosition() {
	if s.mode != ModeBank {
		return
	}
	if q, ok := s.Current(); ok {
		s.progress.SavePosition(s.bankID, q.ID, s.index)
	}
}

func sameLabels(answer string, selected []string) bool {
	if len(answer) != len(selected) {
		return false
	}
	for _, label := range selected {
		if !strings.Contains(answer, label) {
			return false
		}
	}
	return true
}

func summarize(correct bool, answer string, selected []string) string {
	shown := answer
	if shown == "" {
		shown = "unknown"
	}
	if correct {
		return fmt.Sprintf("Correct (answer: %s)", shown)
	}
	choice := strings.Join(selected, "")
	if choice == "" {
		choice = "none"
	}
	return fmt.Sprintf("Incorrect (answer: %s; your choice: %s)", shown, choice)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

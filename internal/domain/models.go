package domain

import (
	"sort"
	"strings"
	"time"
)

// BankSummary is the catalogue entry for a question bank.
type BankSummary struct {
	ID            string `json:"id" yaml:"id"`
	Label         string `json:"label" yaml:"label"`
	HasQuestions  bool   `json:"hasQuestions" yaml:"hasQuestions"`
	QuestionCount int    `json:"questionCount" yaml:"questionCount"`
	PDFURL        string `json:"pdfUrl" yaml:"pdfUrl"`
}

// Bank is the question payload of a single bank as delivered by the provider.
type Bank struct {
	Source    string     `json:"source"`
	Count     int        `json:"count"`
	Questions []Question `json:"questions"`
}

// Question is a multiple-choice question keyed by original option labels.
type Question struct {
	ID      string            `json:"id"`
	Prompt  string            `json:"q"`
	Options map[string]string `json:"options"`
	Answer  string            `json:"answer"` // one or more original labels, order-insensitive
}

// IsMulti reports whether the question expects more than one label.
func (q Question) IsMulti() bool {
	return len(q.Answer) > 1
}

// Labels returns the original option labels in sorted order.
func (q Question) Labels() []string {
	labels := make([]string, 0, len(q.Options))
	for label := range q.Options {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// HasLabel reports whether label is one of the question's option labels.
func (q Question) HasLabel(label string) bool {
	_, ok := q.Options[label]
	return ok
}

// ShuffleMap is the bijection between display labels and original labels for one question.
type ShuffleMap struct {
	DisplayToOriginal map[string]string `json:"displayToOriginal"`
	OriginalToDisplay map[string]string `json:"originalToDisplay"`
}

// ToDisplay converts an answer in original labels into its canonical display form:
// uppercased, mapped through OriginalToDisplay, unmapped characters dropped, sorted.
func (m ShuffleMap) ToDisplay(originalAnswer string) string {
	letters := make([]string, 0, len(originalAnswer))
	for _, r := range strings.ToUpper(originalAnswer) {
		if display, ok := m.OriginalToDisplay[string(r)]; ok {
			letters = append(letters, display)
		}
	}
	sort.Strings(letters)
	return strings.Join(letters, "")
}

// SavedPosition is the last viewed question of a full-bank session.
type SavedPosition struct {
	BankID     string `json:"bankId"`
	QuestionID string `json:"questionId"`
	Index      int    `json:"index"`
	SavedAt    int64  `json:"savedAt"` // unix milliseconds
}

// SavedTime returns SavedAt as a time.
func (p SavedPosition) SavedTime() time.Time {
	return time.UnixMilli(p.SavedAt)
}

// Quota is the number of single- and multi-answer questions in a random set.
type Quota struct {
	Single int `json:"single" yaml:"single"`
	Multi  int `json:"multi" yaml:"multi"`
}

// Total is the target size of a set built from the quota.
func (q Quota) Total() int {
	return q.Single + q.Multi
}

// CheckResult is the outcome of checking one question.
type CheckResult struct {
	QuestionID string   `json:"questionId"`
	Correct    bool     `json:"correct"`
	Answer     string   `json:"answer"`   // canonical display answer
	Selected   []string `json:"selected"` // sorted display labels
	Summary    string   `json:"summary"`
}

// Score summarizes a submitted random set.
type Score struct {
	Correct int           `json:"correct"`
	Total   int           `json:"total"`
	Results []CheckResult `json:"results"`
}

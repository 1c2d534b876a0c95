package app

import "ham-practice/internal/domain"

// View is a read-only rendering of a session.
type View struct {
	SelectedBank string              `json:"selectedBank"`
	BankID       string              `json:"bankId"`
	Source       string              `json:"source"`
	Mode         Mode                `json:"mode"`
	State        State               `json:"state"`
	Index        int                 `json:"index"`
	Total        int                 `json:"total"`
	Question     *QuestionView       `json:"question,omitempty"`
	Revealed     *domain.CheckResult `json:"revealed,omitempty"`
	Score        *domain.Score       `json:"score,omitempty"`
	WrongCount   int                 `json:"wrongCount"`
}

// QuestionView is the current question with options in display order.
type QuestionView struct {
	ID       string       `json:"id"`
	Prompt   string       `json:"prompt"`
	Multi    bool         `json:"multi"`
	Options  []OptionView `json:"options"`
	Selected []string     `json:"selected"`
}

// OptionView is one displayed option. Correct and Wrong are only set once revealed.
type OptionView struct {
	Label    string `json:"label"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
	Correct  bool   `json:"correct,omitempty"`
	Wrong    bool   `json:"wrong,omitempty"`
}

func (s *Session) view() View {
	v := View{
		BankID: s.bankID,
		Source: s.source,
		Mode:   s.mode,
		State:  s.State(),
		Index:  s.index,
		Total:  len(s.questions),
		Score:  s.score,
	}
	q, ok := s.Current()
	if !ok {
		return v
	}

	m := s.shuffler.For(q)
	selected := s.selectedLabels(q.ID)
	chosen := s.selections[q.ID]
	answer := make(map[string]bool)
	if s.revealed != nil {
		for _, r := range s.revealed.Answer {
			answer[string(r)] = true
		}
	}

	qv := &QuestionView{ID: q.ID, Prompt: q.Prompt, Multi: q.IsMulti(), Selected: selected}
	for _, label := range q.Labels() {
		_, on := chosen[label]
		opt := OptionView{
			Label:    label,
			Text:     q.Options[m.DisplayToOriginal[label]],
			Selected: on,
		}
		if s.revealed != nil {
			opt.Correct = answer[label]
			opt.Wrong = on && !answer[label]
		}
		qv.Options = append(qv.Options, opt)
	}
	v.Question = qv
	v.Revealed = s.revealed
	return v
}

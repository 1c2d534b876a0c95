package app

import (
	"context"
	"errors"
	"sync"

	"ham-practice/internal/domain"
)

// BankRepository resolves bank identifiers to payloads (cached, with at most one
// fetch in flight per identifier) and lists the catalogue.
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.Bank, error)
	ListBanks(ctx context.Context) ([]domain.BankSummary, error)
}

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	Quotas      Quotas
	Fallback    []domain.BankSummary
	DefaultBank string
	Random      RandomSource
}

// DefaultFallback is the catalogue shown when the provider cannot be reached.
func DefaultFallback() []domain.BankSummary {
	return []domain.BankSummary{
		{ID: "a", Label: "Class A", HasQuestions: true, PDFURL: "/api/pdfs/a"},
		{ID: "b", Label: "Class B", HasQuestions: true, PDFURL: "/api/pdfs/b"},
		{ID: "c", Label: "Class C", HasQuestions: true, PDFURL: "/api/pdfs/c"},
		{ID: "all", Label: "All questions", HasQuestions: true, PDFURL: "/api/pdfs/all"},
		{ID: "all_img", Label: "All questions (figures)", HasQuestions: false, PDFURL: "/api/pdfs/all_img"},
	}
}

// Engine is one learner's practice engine: it owns the active Session and routes
// its transitions to the progress Tracker.
type Engine struct {
	banks    BankRepository
	progress *Tracker
	quotas   Quotas
	random   RandomSource
	fallback []domain.BankSummary
	defBank  string

	mu       sync.Mutex
	selected string
	session  *Session
}

func NewEngine(banks BankRepository, progress *Tracker, opts Options) *Engine {
	if opts.Quotas == nil {
		opts.Quotas = DefaultQuotas()
	}
	if opts.Fallback == nil {
		opts.Fallback = DefaultFallback()
	}
	if opts.DefaultBank == "" {
		opts.DefaultBank = "a"
	}
	if opts.Random == nil {
		opts.Random = NewCryptoSource()
	}
	return &Engine{
		banks:    banks,
		progress: progress,
		quotas:   opts.Quotas,
		random:   opts.Random,
		fallback: opts.Fallback,
		defBank:  opts.DefaultBank,
		session:  newEmptySession(),
	}
}

// ListBanks returns the provider catalogue. On failure it returns the fallback
// catalogue together with the error.
func (e *Engine) ListBanks(ctx context.Context) ([]domain.BankSummary, error) {
	banks, err := e.banks.ListBanks(ctx)
	if err != nil {
		return append([]domain.BankSummary(nil), e.fallback...), domain.AsFetchError("", err)
	}
	return banks, nil
}

// SelectBank records bankID as the learner's current bank.
func (e *Engine) SelectBank(bankID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selectLocked(bankID)
}

func (e *Engine) selectLocked(bankID string) {
	if bankID == "" || bankID == e.selected {
		return
	}
	e.selected = bankID
	e.progress.SetLastBank(bankID)
}

// InitialBank picks the bank to open on start: the last selected bank, else the bank
// of the most recent saved position, else the default.
func (e *Engine) InitialBank() string {
	if id, ok := e.progress.LastBank(); ok {
		return id
	}
	if pos, ok := e.progress.LatestPosition(); ok {
		return pos.BankID
	}
	return e.defBank
}

// Resume loads the initial bank as a full-bank session. When the provider no longer
// knows that bank, the latest position's bank and then the default are tried.
func (e *Engine) Resume(ctx context.Context) error {
	var err error
	for _, bankID := range e.resumeCandidates() {
		err = e.LoadBank(ctx, bankID)
		if !errors.Is(err, domain.ErrBankNotFound) {
			return err
		}
	}
	return err
}

func (e *Engine) resumeCandidates() []string {
	ids := []string{e.InitialBank()}
	if pos, ok := e.progress.LatestPosition(); ok {
		ids = append(ids, pos.BankID)
	}
	ids = append(ids, e.defBank)

	out := ids[:0]
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// LoadBank starts a full-bank session, resuming at the saved position when one exists.
// A failed fetch leaves the previous session in place.
func (e *Engine) LoadBank(ctx context.Context, bankID string) error {
	e.SelectBank(bankID)
	bank, err := e.fetch(ctx, bankID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.progress.SavedPosition(bankID)
	start := restoreIndex(bank.Questions, pos, ok)
	e.session = newSession(bankID, bank.Source, ModeBank, bank.Questions, start, e.random, e.progress)
	return nil
}

// LoadWrong starts a session over the bank's wrong questions, in bank order.
func (e *Engine) LoadWrong(ctx context.Context, bankID string) error {
	e.SelectBank(bankID)
	bank, err := e.fetch(ctx, bankID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	wrong := make(map[string]struct{})
	for _, id := range e.progress.WrongIDs(bankID) {
		wrong[id] = struct{}{}
	}
	questions := make([]domain.Question, 0, len(wrong))
	for _, q := range bank.Questions {
		if _, ok := wrong[q.ID]; ok {
			questions = append(questions, q)
		}
	}
	e.session = newSession(bankID, bank.Source, ModeWrong, questions, 0, e.random, e.progress)
	return nil
}

// BuildRandom starts a random-set session drawn from the bank's quota.
func (e *Engine) BuildRandom(ctx context.Context, bankID string) error {
	e.SelectBank(bankID)
	bank, err := e.fetch(ctx, bankID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	questions := e.quotas.Build(bankID, bank.Questions, e.random)
	e.session = newSession(bankID, bank.Source, ModeRandom, questions, 0, e.random, e.progress)
	return nil
}

func (e *Engine) fetch(ctx context.Context, bankID string) (domain.Bank, error) {
	bank, err := e.banks.GetBank(ctx, bankID)
	if err != nil {
		return domain.Bank{}, domain.AsFetchError(bankID, err)
	}
	return bank, nil
}

// Select applies a display label to the current question.
func (e *Engine) Select(label string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Select(label)
}

// Check evaluates the current question.
func (e *Engine) Check() (domain.CheckResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Check()
}

// SubmitRandom scores the whole random set.
func (e *Engine) SubmitRandom() (domain.Score, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Submit()
}

// Jump moves to a question number or ID.
func (e *Engine) Jump(token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Jump(token)
}

func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Next()
}

func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Previous()
}

// Reset clears the current question's selection and result.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Reset()
}

// Snapshot renders the session for a UI.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	view := e.session.view()
	view.SelectedBank = e.selected
	if view.BankID != "" {
		view.WrongCount = len(e.progress.WrongIDs(view.BankID))
	}
	return view
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"ham-practice/internal/domain"
)

// KVStore abstracts durable string storage (memory, Redis, SQLite).
// Get returns domain.ErrKeyNotFound for absent keys.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

const (
	keyWrongByBank    = "ham:wrongByBank:v1"
	keyPositions      = "ham:quizPositions:v2"
	keyLegacyPosition = "ham:lastQuizPosition:v1"
	keyLastBank       = "ham:lastSelectedBank:v1"
)

// Tracker persists the wrong set, saved positions and last selected bank of one learner.
// Every read tolerates missing or corrupt data and every write failure is logged and dropped.
type Tracker struct {
	store     KVStore
	namespace string
	now       func() time.Time
}

// NewTracker scopes all keys under namespace (may be empty).
func NewTracker(store KVStore, namespace string) *Tracker {
	return NewTrackerWithClock(store, namespace, time.Now)
}

// NewTrackerWithClock is used by tests for deterministic timestamps.
func NewTrackerWithClock(store KVStore, namespace string, now func() time.Time) *Tracker {
	return &Tracker{store: store, namespace: namespace, now: now}
}

func (t *Tracker) key(name string) string {
	if t.namespace == "" {
		return name
	}
	return t.namespace + ":" + name
}

// WrongIDs returns the wrong question IDs of bankID in insertion order.
func (t *Tracker) WrongIDs(bankID string) []string {
	return t.readWrong()[bankID]
}

// MarkWrong adds questionID to the wrong set of bankID; existing members are left alone.
func (t *Tracker) MarkWrong(bankID, questionID string) {
	if bankID == "" || questionID == "" {
		return
	}
	wrong := t.readWrong()
	for _, id := range wrong[bankID] {
		if id == questionID {
			return
		}
	}
	wrong[bankID] = append(wrong[bankID], questionID)
	t.writeJSON(keyWrongByBank, wrong)
}

// ClearWrong removes questionID from the wrong set of bankID. Removing a non-member is a no-op.
func (t *Tracker) ClearWrong(bankID, questionID string) {
	if bankID == "" || questionID == "" {
		return
	}
	wrong := t.readWrong()
	ids := wrong[bankID]
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != questionID {
			next = append(next, id)
		}
	}
	if len(next) == len(ids) {
		return
	}
	if len(next) == 0 {
		delete(wrong, bankID)
	} else {
		wrong[bankID] = next
	}
	t.writeJSON(keyWrongByBank, wrong)
}

// SavedPosition returns the saved position of bankID, consulting the legacy
// single-position key when the per-bank map has no entry.
func (t *Tracker) SavedPosition(bankID string) (domain.SavedPosition, bool) {
	if pos, ok := t.readPositions()[bankID]; ok {
		return pos, true
	}
	if legacy, ok := t.readLegacyPosition(); ok && legacy.BankID == bankID {
		return legacy, true
	}
	return domain.SavedPosition{}, false
}

// LatestPosition returns the most recently saved position across all banks.
func (t *Tracker) LatestPosition() (domain.SavedPosition, bool) {
	var latest domain.SavedPosition
	found := false
	for _, pos := range t.readPositions() {
		if !found || pos.SavedAt > latest.SavedAt {
			latest, found = pos, true
		}
	}
	if found {
		return latest, true
	}
	return t.readLegacyPosition()
}

// SavePosition records questionID at index as the resume point of bankID.
func (t *Tracker) SavePosition(bankID, questionID string, index int) {
	if bankID == "" || questionID == "" {
		return
	}
	positions := t.readPositions()
	positions[bankID] = domain.SavedPosition{
		BankID:     bankID,
		QuestionID: questionID,
		Index:      max(index, 0),
		SavedAt:    t.now().UnixMilli(),
	}
	t.writeJSON(keyPositions, positions)
}

// LastBank returns the last selected bank ID.
func (t *Tracker) LastBank() (string, bool) {
	raw, ok := t.read(keyLastBank)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// SetLastBank records bankID as the last selected bank.
func (t *Tracker) SetLastBank(bankID string) {
	if bankID == "" {
		return
	}
	t.write(keyLastBank, bankID)
}

func (t *Tracker) readWrong() map[string][]string {
	out := make(map[string][]string)
	raw, ok := t.read(keyWrongByBank)
	if !ok {
		return out
	}
	entries, err := decodeObject(raw)
	if err != nil {
		log.Printf("progress: %s: %v", keyWrongByBank, err)
		return out
	}
	for bankID, entry := range entries {
		ids, err := decodeIDList(entry)
		if err != nil {
			log.Printf("progress: %s[%s]: %v", keyWrongByBank, bankID, err)
			continue
		}
		if len(ids) > 0 {
			out[bankID] = ids
		}
	}
	return out
}

func (t *Tracker) readPositions() map[string]domain.SavedPosition {
	out := make(map[string]domain.SavedPosition)
	raw, ok := t.read(keyPositions)
	if !ok {
		return out
	}
	entries, err := decodeObject(raw)
	if err != nil {
		log.Printf("progress: %s: %v", keyPositions, err)
		return out
	}
	for bankID, entry := range entries {
		pos, err := decodePosition(entry, t.now())
		if err != nil || pos.BankID != bankID {
			continue
		}
		out[bankID] = pos
	}
	return out
}

func (t *Tracker) readLegacyPosition() (domain.SavedPosition, bool) {
	raw, ok := t.read(keyLegacyPosition)
	if !ok {
		return domain.SavedPosition{}, false
	}
	pos, err := decodePosition(json.RawMessage(raw), t.now())
	if err != nil {
		return domain.SavedPosition{}, false
	}
	return pos, true
}

func (t *Tracker) read(name string) (string, bool) {
	raw, err := t.store.Get(context.Background(), t.key(name))
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			log.Printf("progress: read %s: %v", name, err)
		}
		return "", false
	}
	return raw, true
}

func (t *Tracker) write(name, value string) {
	if err := t.store.Set(context.Background(), t.key(name), value); err != nil {
		log.Printf("progress: write %s: %v", name, err)
	}
}

func (t *Tracker) writeJSON(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("progress: encode %s: %v", name, err)
		return
	}
	t.write(name, string(data))
}

func decodeObject(raw string) (map[string]json.RawMessage, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: not an object", domain.ErrStorageCorrupt)
	}
	return entries, nil
}

// decodeIDList accepts a JSON array of strings, dropping blanks and duplicates.
func decodeIDList(raw json.RawMessage) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// decodePosition requires string bankId and questionId; index and savedAt fall back
// to 0 and now when absent or not numeric.
func decodePosition(raw json.RawMessage, now time.Time) (domain.SavedPosition, error) {
	fields, err := decodeObject(string(raw))
	if err != nil {
		return domain.SavedPosition{}, err
	}
	var pos domain.SavedPosition
	if err := json.Unmarshal(fields["bankId"], &pos.BankID); err != nil || pos.BankID == "" {
		return domain.SavedPosition{}, fmt.Errorf("%w: bankId", domain.ErrStorageCorrupt)
	}
	if err := json.Unmarshal(fields["questionId"], &pos.QuestionID); err != nil || pos.QuestionID == "" {
		return domain.SavedPosition{}, fmt.Errorf("%w: questionId", domain.ErrStorageCorrupt)
	}

	var index float64
	if err := json.Unmarshal(fields["index"], &index); err == nil && index > 0 {
		pos.Index = int(index)
	}
	pos.SavedAt = now.UnixMilli()
	var savedAt float64
	if err := json.Unmarshal(fields["savedAt"], &savedAt); err == nil {
		pos.SavedAt = int64(savedAt)
	}
	return pos, nil
}

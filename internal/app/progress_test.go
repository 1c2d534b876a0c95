package app

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestTrackerWrongSet(t *testing.T) {
	tracker := NewTracker(newMapStore(), "")

	tracker.MarkWrong("a", "q1")
	tracker.MarkWrong("a", "q1")
	tracker.MarkWrong("a", "q2")
	if got := tracker.WrongIDs("a"); !reflect.DeepEqual(got, []string{"q1", "q2"}) {
		t.Fatalf("expected [q1 q2], got %v", got)
	}

	tracker.ClearWrong("a", "q1")
	tracker.ClearWrong("a", "q9")
	if got := tracker.WrongIDs("a"); !reflect.DeepEqual(got, []string{"q2"}) {
		t.Fatalf("expected [q2], got %v", got)
	}

	tracker.ClearWrong("a", "q2")
	if got := tracker.WrongIDs("a"); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestTrackerToleratesCorruptWrongSet(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[string][]string
	}{
		{"not json", "{oops", map[string][]string{}},
		{"array", `["q1"]`, map[string][]string{}},
		{"null", `null`, map[string][]string{}},
		{"bad entry", `{"a":"q1","b":["q2","q2",""]}`, map[string][]string{"b": {"q2"}}},
		{"mixed entry", `{"a":["q1",3],"c":["q3"]}`, map[string][]string{"c": {"q3"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMapStore()
			store.values[keyWrongByBank] = tc.raw
			tracker := NewTracker(store, "")
			for _, bank := range []string{"a", "b", "c"} {
				if got := tracker.WrongIDs(bank); !reflect.DeepEqual(got, tc.want[bank]) {
					t.Fatalf("bank %s: expected %v, got %v", bank, tc.want[bank], got)
				}
			}
			// the next write replaces the corrupt value
			tracker.MarkWrong("a", "q7")
			if got := tracker.WrongIDs("a"); !reflect.DeepEqual(got, []string{"q7"}) {
				t.Fatalf("expected [q7] after write, got %v", got)
			}
		})
	}
}

func TestTrackerPositions(t *testing.T) {
	store := newMapStore()
	now := int64(1_000)
	tracker := NewTrackerWithClock(store, "", func() time.Time { return time.UnixMilli(now) })

	tracker.SavePosition("a", "q3", 2)
	now = 2_000
	tracker.SavePosition("b", "q9", 8)

	pos, ok := tracker.SavedPosition("a")
	if !ok || pos.QuestionID != "q3" || pos.Index != 2 || pos.SavedAt != 1_000 {
		t.Fatalf("unexpected position %+v", pos)
	}
	latest, ok := tracker.LatestPosition()
	if !ok || latest.BankID != "b" {
		t.Fatalf("expected latest in b, got %+v", latest)
	}
	if _, ok := tracker.SavedPosition("c"); ok {
		t.Fatalf("expected no position for c")
	}
}

func TestTrackerDropsMalformedPositions(t *testing.T) {
	store := newMapStore()
	store.values[keyPositions] = `{
		"a": {"bankId":"a","questionId":"q1","index":"x"},
		"b": {"bankId":"b"},
		"c": {"bankId":"other","questionId":"q2","index":1,"savedAt":5},
		"d": 42
	}`
	tracker := NewTrackerWithClock(store, "", fixedClock(77))

	pos, ok := tracker.SavedPosition("a")
	if !ok || pos.Index != 0 || pos.SavedAt != 77 {
		t.Fatalf("expected lenient position for a, got %+v ok=%v", pos, ok)
	}
	for _, bank := range []string{"b", "c", "d"} {
		if _, ok := tracker.SavedPosition(bank); ok {
			t.Fatalf("expected malformed entry %s to be dropped", bank)
		}
	}
}

func TestTrackerLegacyPositionFallback(t *testing.T) {
	store := newMapStore()
	store.values[keyLegacyPosition] = `{"bankId":"a","questionId":"q5","index":4,"savedAt":10}`
	tracker := NewTracker(store, "")

	pos, ok := tracker.SavedPosition("a")
	if !ok || pos.QuestionID != "q5" || pos.Index != 4 {
		t.Fatalf("expected legacy position, got %+v", pos)
	}
	if _, ok := tracker.SavedPosition("b"); ok {
		t.Fatalf("legacy position must only answer for its own bank")
	}
	if latest, ok := tracker.LatestPosition(); !ok || latest.BankID != "a" {
		t.Fatalf("expected legacy latest, got %+v", latest)
	}

	// a v2 entry wins over the legacy key
	tracker.SavePosition("a", "q1", 0)
	if pos, _ := tracker.SavedPosition("a"); pos.QuestionID != "q1" {
		t.Fatalf("expected v2 position, got %+v", pos)
	}
}

func TestTrackerNamespacesKeys(t *testing.T) {
	store := newMapStore()
	alice := NewTracker(store, "learner:alice")
	bob := NewTracker(store, "learner:bob")

	alice.SetLastBank("b")
	alice.MarkWrong("b", "q1")
	if _, ok := bob.LastBank(); ok {
		t.Fatalf("bob must not see alice's bank")
	}
	if len(bob.WrongIDs("b")) != 0 {
		t.Fatalf("bob must not see alice's wrong set")
	}
	if store.values["learner:alice:"+keyLastBank] != "b" {
		t.Fatalf("unexpected keys %v", store.values)
	}
}

func TestTrackerSwallowsStorageFailures(t *testing.T) {
	store := newMapStore()
	store.err = errors.New("quota exceeded")
	tracker := NewTracker(store, "")

	tracker.MarkWrong("a", "q1")
	tracker.SavePosition("a", "q1", 0)
	tracker.SetLastBank("a")
	if ids := tracker.WrongIDs("a"); len(ids) != 0 {
		t.Fatalf("expected empty wrong set, got %v", ids)
	}
	if _, ok := tracker.LastBank(); ok {
		t.Fatalf("expected no last bank")
	}
}

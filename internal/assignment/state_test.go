package assignment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduce(t *testing.T, s State, a Action) State {
	t.Helper()
	a.Now = now
	next, err := Reduce(s, a, Options{})
	require.NoError(t, err)
	return next
}

func TestReduce_AddRejectsDuplicateTitle(t *testing.T) {
	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Essay", Due: now.Add(24 * time.Hour)})

	next, err := Reduce(s, Action{Kind: ActionAdd, ID: "2", Title: "essay", Due: now.Add(11 * 24 * time.Hour), Now: now}, Options{})
	assert.ErrorIs(t, err, ErrDuplicateTitle)
	assert.Equal(t, s, next)
	assert.Len(t, next.Records, 1)
}

func TestReduce_AddValidates(t *testing.T) {
	_, err := Reduce(State{}, Action{Kind: ActionAdd, ID: "1", Title: "   ", Due: now}, Options{})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = Reduce(State{}, Action{Kind: ActionAdd, ID: "1", Title: "Essay"}, Options{})
	assert.ErrorIs(t, err, ErrMissingDue)

	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Essay", Due: now})
	_, err = Reduce(s, Action{Kind: ActionAdd, ID: "1", Title: "Other", Due: now}, Options{})
	assert.Error(t, err, "ids are never reused")
}

func TestReduce_AddThenRemoveRestoresState(t *testing.T) {
	base := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Lab", Due: now.Add(72 * time.Hour)})

	added := reduce(t, base, Action{Kind: ActionAdd, ID: "2", Title: "Quiz", Due: now.Add(96 * time.Hour)})
	removed := reduce(t, added, Action{Kind: ActionRemove, ID: "2"})

	assert.Equal(t, base.Records, removed.Records)
	assert.Equal(t, base.Reminder, removed.Reminder)
	assert.Len(t, added.Records, 2, "input state must not be mutated")
}

func TestReduce_RemoveIsIdempotent(t *testing.T) {
	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Lab", Due: now.Add(72 * time.Hour)})
	once := reduce(t, s, Action{Kind: ActionRemove, ID: "1"})
	twice := reduce(t, once, Action{Kind: ActionRemove, ID: "1"})
	assert.Empty(t, twice.Records)
	assert.Equal(t, once, twice)
}

func TestReduce_RemoveClearsEditTarget(t *testing.T) {
	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Lab", Due: now.Add(72 * time.Hour)})
	s = reduce(t, s, Action{Kind: ActionBeginEdit, ID: "1"})
	require.True(t, s.Session.Editing())

	s = reduce(t, s, Action{Kind: ActionRemove, ID: "1"})
	assert.False(t, s.Session.Editing())
	assert.Equal(t, Session{}, s.Session)
}

func TestReduce_UpdateKeepsIDAndPosition(t *testing.T) {
	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Lab", Due: now.Add(72 * time.Hour)})
	s = reduce(t, s, Action{Kind: ActionAdd, ID: "2", Title: "Quiz", Due: now.Add(96 * time.Hour)})

	s = reduce(t, s, Action{Kind: ActionUpdate, ID: "1", Title: "Lab 2", Due: now.Add(6 * time.Hour)})
	require.Len(t, s.Records, 2)
	assert.Equal(t, Record{ID: "1", Title: "Lab 2", Due: now.Add(6 * time.Hour)}, s.Records[0])
	assert.Equal(t, "Quiz", s.Records[1].Title)
	assert.True(t, s.Reminder)
}

func TestReduce_UpdateMissingRecord(t *testing.T) {
	_, err := Reduce(State{}, Action{Kind: ActionUpdate, ID: "nope", Title: "x", Due: now}, Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReduce_UpdateTitleRecheck(t *testing.T) {
	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Lab", Due: now.Add(72 * time.Hour)})
	s = reduce(t, s, Action{Kind: ActionAdd, ID: "2", Title: "Quiz", Due: now.Add(96 * time.Hour)})
	clash := Action{Kind: ActionUpdate, ID: "2", Title: "LAB", Due: now.Add(96 * time.Hour), Now: now}

	t.Run("off by default", func(t *testing.T) {
		next, err := Reduce(s, clash, Options{})
		require.NoError(t, err)
		assert.Equal(t, "LAB", next.Records[1].Title)
	})

	t.Run("enabled rejects other records", func(t *testing.T) {
		_, err := Reduce(s, clash, Options{RecheckTitleOnUpdate: true})
		assert.ErrorIs(t, err, ErrDuplicateTitle)
	})

	t.Run("enabled allows self rename", func(t *testing.T) {
		self := Action{Kind: ActionUpdate, ID: "1", Title: "lab", Due: now.Add(72 * time.Hour), Now: now}
		next, err := Reduce(s, self, Options{RecheckTitleOnUpdate: true})
		require.NoError(t, err)
		assert.Equal(t, "lab", next.Records[0].Title)
	})
}

func TestReduce_BeginEditUnknownStaysIdle(t *testing.T) {
	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "1", Title: "Lab", Due: now.Add(72 * time.Hour)})
	next, err := Reduce(s, Action{Kind: ActionBeginEdit, ID: "ghost"}, Options{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, next.Session.Editing())
}

func TestReduce_SubmitRoutesBySession(t *testing.T) {
	due := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	s := reduce(t, State{}, Action{Kind: ActionSubmit, ID: "A", Title: "HW1", Due: now.Add(12 * time.Hour)})
	require.Len(t, s.Records, 1)
	assert.True(t, s.Reminder)

	s = reduce(t, s, Action{Kind: ActionBeginEdit, ID: "A"})
	assert.Equal(t, Session{TargetID: "A", Title: "HW1", Due: s.Records[0].DueString()}, s.Session)

	s = reduce(t, s, Action{Kind: ActionSubmit, ID: "B", Title: "HW1-revised", Due: due})
	require.Len(t, s.Records, 1)
	assert.Equal(t, Record{ID: "A", Title: "HW1-revised", Due: due}, s.Records[0])
	assert.False(t, s.Session.Editing())
	assert.False(t, s.Reminder)
}

func TestReduce_FailedSubmitKeepsSession(t *testing.T) {
	s := reduce(t, State{}, Action{Kind: ActionAdd, ID: "A", Title: "HW1", Due: now.Add(48 * time.Hour)})
	s = reduce(t, s, Action{Kind: ActionBeginEdit, ID: "A"})

	next, err := Reduce(s, Action{Kind: ActionSubmit, ID: "B", Title: "", Due: now, Now: now}, Options{})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Equal(t, "A", next.Session.TargetID)
}

func TestReduce_LoadRecomputesReminder(t *testing.T) {
	stale := State{Reminder: true, Session: Session{TargetID: "gone"}}
	s := reduce(t, stale, Action{Kind: ActionLoad, Records: []Record{
		{ID: "1", Title: "Lab", Due: now.Add(72 * time.Hour)},
	}})
	assert.False(t, s.Reminder)
	assert.False(t, s.Session.Editing())
	assert.Len(t, s.Records, 1)
}

func TestReduce_NoDuplicateTitlesAcrossSequences(t *testing.T) {
	titles := []string{"Essay", "ESSAY", "Lab", "essay ", "lab", "Quiz"}
	s := State{}
	for i, title := range titles {
		next, err := Reduce(s, Action{Kind: ActionAdd, ID: string(rune('a' + i)), Title: title, Due: now.Add(time.Duration(i) * time.Hour), Now: now}, Options{})
		if err == nil {
			s = next
		}
		if i == 3 {
			s = reduce(t, s, Action{Kind: ActionRemove, ID: "a"})
		}
	}
	seen := map[string]bool{}
	for _, r := range s.Records {
		key := strings.ToLower(strings.TrimSpace(r.Title))
		assert.False(t, seen[key], "duplicate %q", r.Title)
		seen[key] = true
	}
}

func TestSorted_StableOnTies(t *testing.T) {
	same := now.Add(48 * time.Hour)
	records := []Record{
		{ID: "1", Title: "late", Due: now.Add(96 * time.Hour)},
		{ID: "2", Title: "tie-first", Due: same},
		{ID: "3", Title: "early", Due: now.Add(time.Hour)},
		{ID: "4", Title: "tie-second", Due: same},
	}
	got := Sorted(records)
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"3", "2", "4", "1"}, ids)
	assert.Equal(t, "1", records[0].ID, "input untouched")
}

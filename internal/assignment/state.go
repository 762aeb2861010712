package assignment

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Session is the edit-session tracker. It is Idle when TargetID is empty.
type Session struct {
	TargetID string
	Title    string
	Due      string
}

func (s Session) Editing() bool {
	return s.TargetID != ""
}

// State is everything the controller owns. Records keep insertion order;
// List sorts a copy by due date.
type State struct {
	Records  []Record
	Session  Session
	Reminder bool
}

func (s State) find(id string) int {
	return slices.IndexFunc(s.Records, func(r Record) bool { return r.ID == id })
}

func (s State) titleTaken(title, exceptID string) bool {
	return slices.ContainsFunc(s.Records, func(r Record) bool {
		return r.ID != exceptID && sameTitle(r.Title, title)
	})
}

// Options toggles behaviour the original program left ambiguous.
type Options struct {
	// RecheckTitleOnUpdate rejects an update whose title matches a
	// different record. Renaming a record to its own title is always
	// allowed.
	RecheckTitleOnUpdate bool
}

type ActionKind int

const (
	ActionAdd ActionKind = iota
	ActionUpdate
	ActionRemove
	ActionBeginEdit
	ActionCancelEdit
	ActionSubmit
	ActionLoad
)

func (k ActionKind) String() string {
	switch k {
	case ActionAdd:
		return "add"
	case ActionUpdate:
		return "update"
	case ActionRemove:
		return "remove"
	case ActionBeginEdit:
		return "begin-edit"
	case ActionCancelEdit:
		return "cancel-edit"
	case ActionSubmit:
		return "submit"
	case ActionLoad:
		return "load"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action carries everything a transition needs, including the identifier
// for a new record and the clock reading, so Reduce stays pure.
type Action struct {
	Kind    ActionKind
	ID      string
	Title   string
	Due     time.Time
	Records []Record
	Now     time.Time
}

// Reduce applies a to s and returns the next state. s is never modified.
// On error the returned state equals s.
func Reduce(s State, a Action, opts Options) (State, error) {
	switch a.Kind {
	case ActionAdd:
		return reduceAdd(s, a)
	case ActionUpdate:
		return reduceUpdate(s, a, opts)
	case ActionRemove:
		return reduceRemove(s, a), nil
	case ActionBeginEdit:
		i := s.find(a.ID)
		if i < 0 {
			return s, fmt.Errorf("begin edit %q: %w", a.ID, ErrNotFound)
		}
		r := s.Records[i]
		s.Session = Session{TargetID: r.ID, Title: r.Title, Due: r.DueString()}
		return s, nil
	case ActionCancelEdit:
		s.Session = Session{}
		return s, nil
	case ActionSubmit:
		if !s.Session.Editing() {
			return reduceAdd(s, a)
		}
		next, err := reduceUpdate(s, Action{
			Kind:  ActionUpdate,
			ID:    s.Session.TargetID,
			Title: a.Title,
			Due:   a.Due,
			Now:   a.Now,
		}, opts)
		if err != nil {
			return s, err
		}
		next.Session = Session{}
		return next, nil
	case ActionLoad:
		s.Records = slices.Clone(a.Records)
		if s.Session.Editing() && s.find(s.Session.TargetID) < 0 {
			s.Session = Session{}
		}
		s.Reminder = HasUpcomingReminder(s.Records, a.Now)
		return s, nil
	}
	return s, fmt.Errorf("unknown action %v", a.Kind)
}

func validate(title string, due time.Time) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if due.IsZero() {
		return "", ErrMissingDue
	}
	return title, nil
}

func reduceAdd(s State, a Action) (State, error) {
	title, err := validate(a.Title, a.Due)
	if err != nil {
		return s, err
	}
	if s.titleTaken(title, "") {
		return s, fmt.Errorf("%q: %w", title, ErrDuplicateTitle)
	}
	if a.ID == "" || s.find(a.ID) >= 0 {
		return s, fmt.Errorf("add %q: missing or reused id %q", title, a.ID)
	}
	records := make([]Record, 0, len(s.Records)+1)
	records = append(records, s.Records...)
	s.Records = append(records, Record{ID: a.ID, Title: title, Due: a.Due})
	s.Reminder = HasUpcomingReminder(s.Records, a.Now)
	return s, nil
}

func reduceUpdate(s State, a Action, opts Options) (State, error) {
	title, err := validate(a.Title, a.Due)
	if err != nil {
		return s, err
	}
	i := s.find(a.ID)
	if i < 0 {
		return s, fmt.Errorf("update %q: %w", a.ID, ErrNotFound)
	}
	if opts.RecheckTitleOnUpdate && s.titleTaken(title, a.ID) {
		return s, fmt.Errorf("%q: %w", title, ErrDuplicateTitle)
	}
	s.Records = slices.Clone(s.Records)
	s.Records[i].Title = title
	s.Records[i].Due = a.Due
	if s.Session.TargetID == a.ID {
		s.Session = Session{}
	}
	s.Reminder = HasUpcomingReminder(s.Records, a.Now)
	return s, nil
}

func reduceRemove(s State, a Action) State {
	if i := s.find(a.ID); i >= 0 {
		s.Records = slices.Delete(slices.Clone(s.Records), i, i+1)
	}
	if s.Session.TargetID == a.ID {
		s.Session = Session{}
	}
	s.Reminder = HasUpcomingReminder(s.Records, a.Now)
	return s
}

// Sorted returns records ordered by due date, earliest first. Equal due
// dates keep insertion order.
func Sorted(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		return a.Due.Compare(b.Due)
	})
	return out
}

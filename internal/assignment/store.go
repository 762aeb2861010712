package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"duetrack/internal/log"
)

// Mirror replays the Store's writes into persistent storage. It holds no
// truth of its own; List is only consulted by Load at startup.
type Mirror interface {
	Create(ctx context.Context, r Record) error
	Update(ctx context.Context, r Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
}

type nopMirror struct{}

func (nopMirror) Create(context.Context, Record) error   { return nil }
func (nopMirror) Update(context.Context, Record) error   { return nil }
func (nopMirror) Delete(context.Context, string) error   { return nil }
func (nopMirror) List(context.Context) ([]Record, error) { return nil, nil }

// Store is the single owner of the assignment collection and the edit
// session. Every mutation goes through Reduce under a lock.
type Store struct {
	// writeMu orders mirror writes the same way as local mutations.
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   State

	opts   Options
	mirror Mirror
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type Option func(*Store)

func WithMirror(m Mirror) Option {
	return func(s *Store) {
		if m != nil {
			s.mirror = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithOptions(o Options) Option {
	return func(s *Store) { s.opts = o }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		mirror: nopMirror{},
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: log.NewModuleLogger("assignment", "store"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces the collection with whatever the mirror holds.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.mirror.List(ctx)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, _, err := s.dispatch(Action{Kind: ActionLoad, Records: records}); err != nil {
		return err
	}
	s.logger.Info("assignments loaded", "count", len(records))
	return nil
}

func (s *Store) Add(ctx context.Context, title string, due time.Time) (Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := s.newID()
	_, next, err := s.dispatch(Action{Kind: ActionAdd, ID: id, Title: title, Due: due})
	if err != nil {
		s.logger.Debug("add rejected", "title", title, "error", err)
		return Record{}, err
	}
	r := next.Records[next.find(id)]
	s.logger.Info("assignment added", "id", r.ID, "title", r.Title, "due", r.DueString())
	return r, s.mirrorWrite("create", r.ID, func() error { return s.mirror.Create(ctx, r) })
}

func (s *Store) Update(ctx context.Context, id, title string, due time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, next, err := s.dispatch(Action{Kind: ActionUpdate, ID: id, Title: title, Due: due})
	if err != nil {
		s.logUpdateError(id, err)
		return err
	}
	r := next.Records[next.find(id)]
	s.logger.Info("assignment updated", "id", r.ID, "title", r.Title, "due", r.DueString())
	return s.mirrorWrite("update", r.ID, func() error { return s.mirror.Update(ctx, r) })
}

// Remove is idempotent: removing an unknown id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev, _, err := s.dispatch(Action{Kind: ActionRemove, ID: id})
	if err != nil {
		return err
	}
	if prev.find(id) < 0 {
		return nil
	}
	s.logger.Info("assignment removed", "id", id)
	return s.mirrorWrite("delete", id, func() error { return s.mirror.Delete(ctx, id) })
}

// BeginEdit moves the session to Editing with the record's fields. An
// unknown id leaves the session Idle.
func (s *Store) BeginEdit(id string) (Session, error) {
	_, next, err := s.dispatch(Action{Kind: ActionBeginEdit, ID: id})
	if err != nil {
		s.logger.Warn("assignment not found for editing", "id", id)
		return Session{}, err
	}
	return next.Session, nil
}

func (s *Store) CancelEdit() {
	s.dispatch(Action{Kind: ActionCancelEdit})
}

// Submit creates a record when Idle, or updates the edit target and
// returns to Idle. A failed submit leaves the session untouched.
func (s *Store) Submit(ctx context.Context, title string, due time.Time) (Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := s.newID()
	prev, next, err := s.dispatch(Action{Kind: ActionSubmit, ID: id, Title: title, Due: due})
	if err != nil {
		if prev.Session.Editing() {
			s.logUpdateError(prev.Session.TargetID, err)
		}
		return Record{}, err
	}
	if prev.Session.Editing() {
		r := next.Records[next.find(prev.Session.TargetID)]
		s.logger.Info("assignment updated", "id", r.ID, "title", r.Title, "due", r.DueString())
		return r, s.mirrorWrite("update", r.ID, func() error { return s.mirror.Update(ctx, r) })
	}
	r := next.Records[next.find(id)]
	s.logger.Info("assignment added", "id", r.ID, "title", r.Title, "due", r.DueString())
	return r, s.mirrorWrite("create", r.ID, func() error { return s.mirror.Create(ctx, r) })
}

// List returns the records sorted by due date.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Sorted(s.state.Records)
}

func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.find(id); i >= 0 {
		return s.state.Records[i], true
	}
	return Record{}, false
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Session
}

// Reminder is the value computed at the last mutation.
func (s *Store) Reminder() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Reminder
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Records = Sorted(st.Records)
	return st
}

func (s *Store) dispatch(a Action) (prev, next State, err error) {
	a.Now = s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.state
	next, err = Reduce(prev, a, s.opts)
	if err != nil {
		return prev, prev, err
	}
	s.state = next
	return prev, next, nil
}

func (s *Store) mirrorWrite(op, id string, write func() error) error {
	if err := write(); err != nil {
		s.logger.Error("mirror write failed", "op", op, "id", id, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrMirror, op, id, err)
	}
	return nil
}

func (s *Store) logUpdateError(id string, err error) {
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("update target vanished", "id", id)
		return
	}
	s.logger.Debug("update rejected", "id", id, "error", err)
}

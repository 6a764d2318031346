package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/pkg/cache"
)

// Op names a long-running action a session can have in flight.
type Op string

const (
	OpRecommend Op = "recommend"
	OpLogin     Op = "login"
)

// ownerView is the view an op belongs to. Leaving that view cancels it.
func (o Op) ownerView() models.View {
	switch o {
	case OpRecommend:
		return models.ViewRecommend
	case OpLogin:
		return models.ViewAccount
	}
	return ""
}

func (o Op) busyKey() string {
	if o == OpLogin {
		return "auth.inProgress"
	}
	return string(o) + ".inProgress"
}

type pendingOp struct {
	cancel context.CancelFunc
}

// sessionState is the live, mutable state of one session.
type sessionState struct {
	mu      sync.Mutex
	s       models.Session
	pending map[Op]*pendingOp
}

// SessionStore keeps every session in memory with a sliding idle TTL.
//
// Each session has its own mutex; the store never holds one session's lock
// while touching another, so unrelated sessions do not contend.
type SessionStore struct {
	sessions *cache.TTLCache[string, *sessionState]
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl without
// access. Expired sessions have their pending ops cancelled.
func NewSessionStore(ttl time.Duration) *SessionStore {
	cleanup := ttl / 4
	if cleanup > time.Minute {
		cleanup = time.Minute
	}
	if cleanup <= 0 {
		cleanup = time.Second
	}

	return &SessionStore{
		sessions: cache.New[string, *sessionState](ttl, cleanup,
			cache.WithEvictCallback(func(_ string, st *sessionState) {
				st.cancelAll()
			}),
		),
		now: time.Now,
	}
}

// Close stops the expiry janitor.
func (st *SessionStore) Close() {
	st.sessions.Close()
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep.
func (st *SessionStore) Len() int {
	return st.sessions.Len()
}

// Create starts a session in the default view.
func (st *SessionStore) Create(lang string) models.Session {
	now := st.now().UTC()
	state := &sessionState{
		s: models.Session{
			ID:         uuid.NewString(),
			View:       models.DefaultView,
			Language:   lang,
			History:    []models.HistoryEntry{},
			CreatedAt:  now,
			LastSeenAt: now,
		},
		pending: make(map[Op]*pendingOp),
	}
	st.sessions.Set(state.s.ID, state)
	return state.s.Clone()
}

// Snapshot returns a copy of the session and refreshes its TTL.
func (st *SessionStore) Snapshot(id string) (models.Session, error) {
	return st.Mutate(id, func(*models.Session) {})
}

// Mutate runs fn on the live session under its lock and returns a copy of
// the result. fn must not block.
func (st *SessionStore) Mutate(id string, fn func(s *models.Session)) (models.Session, error) {
	state, err := st.lookup(id)
	if err != nil {
		return models.Session{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.s.LastSeenAt = st.now().UTC()
	fn(&state.s)
	return state.s.Clone(), nil
}

// SetView switches the session to view. Leaving a view cancels the pending
// ops it owns; selecting the current view again leaves them running.
// changed is false when the session was already on view.
func (st *SessionStore) SetView(id string, view models.View) (snap models.Session, changed bool, err error) {
	return st.SwitchView(id, view, nil)
}

// SwitchView is SetView with a hook. onChange, when non-nil, runs under the
// session lock after a real change, so observers see view changes in the
// order they were committed. onChange must not call back into the store.
func (st *SessionStore) SwitchView(id string, view models.View, onChange func(models.Session)) (snap models.Session, changed bool, err error) {
	state, err := st.lookup(id)
	if err != nil {
		return models.Session{}, false, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.s.LastSeenAt = st.now().UTC()
	if state.s.View == view {
		return state.s.Clone(), false, nil
	}
	state.s.View = view

	for op, p := range state.pending {
		if op.ownerView() != view {
			p.cancel()
			delete(state.pending, op)
		}
	}

	snap = state.s.Clone()
	if onChange != nil {
		onChange(snap)
	}
	return snap, true, nil
}

// WithView runs fn with the current view under the session lock. View
// changes made through SwitchView cannot interleave with fn.
func (st *SessionStore) WithView(id string, fn func(models.View)) error {
	state, err := st.lookup(id)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.s.LastSeenAt = st.now().UTC()
	fn(state.s.View)
	return nil
}

// BeginOp registers op as in flight for the session. The returned context
// is cancelled when parent is, when the session leaves the op's view, or
// when done is called. done must always be called.
//
// A second BeginOp for the same op while the first is pending fails with a
// Notice wrapping pkg.ErrConflict.
func (st *SessionStore) BeginOp(parent context.Context, id string, op Op) (context.Context, func(), error) {
	state, err := st.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if _, busy := state.pending[op]; busy {
		return nil, nil, pkg.NewNotice(pkg.ErrConflict, op.busyKey())
	}

	ctx, cancel := context.WithCancel(parent)
	p := &pendingOp{cancel: cancel}
	state.pending[op] = p

	done := func() {
		cancel()

		state.mu.Lock()
		defer state.mu.Unlock()
		if state.pending[op] == p {
			delete(state.pending, op)
		}
	}
	return ctx, done, nil
}

// Pending reports whether op is in flight for the session.
func (st *SessionStore) Pending(id string, op Op) bool {
	state, err := st.lookup(id)
	if err != nil {
		return false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	_, ok := state.pending[op]
	return ok
}

func (st *SessionStore) lookup(id string) (*sessionState, error) {
	state, ok := st.sessions.Touch(id)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", pkg.ErrNotFound, id)
	}
	return state, nil
}

func (s *sessionState) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for op, p := range s.pending {
		p.cancel()
		delete(s.pending, op)
	}
}

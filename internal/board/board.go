// Package board keeps a client-side copy of the request collection in step
// with the server. Every mutation is applied locally first, then persisted,
// and rolled back if the persist fails.
package board

import (
	"context"
	"log/slog"
	"sync"

	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/schedule"
)

// Persister is the server side of the board. restclient.Client implements it
// over HTTP; tests use fakes.
type Persister interface {
	List(ctx context.Context) ([]request.Request, error)
	Create(ctx context.Context, dto request.CreateRequestDTO) (*request.Request, error)
	UpdateStatus(ctx context.Context, id int64, status request.Status) (*request.Request, error)
	Delete(ctx context.Context, id int64) error
}

type Option func(*Synchronizer)

// WithPolicy checks moves against the transition policy before anything is
// applied. Without it every move is attempted.
func WithPolicy(policy request.TransitionPolicy, role coreUser.Role) Option {
	return func(s *Synchronizer) {
		s.policy = policy
		s.role = role
	}
}

// WithOnChange registers a callback that receives a snapshot after every
// local change, including rollbacks.
func WithOnChange(fn func([]request.Request)) Option {
	return func(s *Synchronizer) {
		s.onChange = fn
	}
}

// WithTempID overrides the provisional id generator.
func WithTempID(fn func() string) Option {
	return func(s *Synchronizer) {
		s.newTempID = fn
	}
}

type Synchronizer struct {
	persister Persister
	logger    *slog.Logger

	policy    request.TransitionPolicy
	role      coreUser.Role
	onChange  func([]request.Request)
	newTempID func() string

	mu    sync.Mutex
	items []request.Request
}

func NewSynchronizer(persister Persister, logger *slog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		persister: persister,
		logger:    logger,
		newTempID: newTempID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the local collection.
func (s *Synchronizer) Snapshot() []request.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() []request.Request {
	out := make([]request.Request, len(s.items))
	copy(out, s.items)
	return out
}

// Board groups the local collection into kanban columns.
func (s *Synchronizer) Board() schedule.Board {
	return schedule.Kanban(s.Snapshot())
}

// Find looks up a request by its board key.
func (s *Synchronizer) Find(key string) (request.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(key); i >= 0 {
		return s.items[i], true
	}
	return request.Request{}, false
}

// Replace swaps the whole local copy for a fresh server fetch. There is no
// merge: the last full fetch wins.
func (s *Synchronizer) Replace(reqs []request.Request) {
	s.mu.Lock()
	s.items = make([]request.Request, len(reqs))
	copy(s.items, reqs)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("board replaced", "count", len(reqs))
	s.notify(snap)
}

// Refresh fetches the collection and replaces the local copy with it.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	reqs, err := s.persister.List(ctx)
	if err != nil {
		s.logger.Error("board refresh failed", "error", err)
		return err
	}
	s.Replace(reqs)
	return nil
}

func (s *Synchronizer) indexLocked(key string) int {
	for i := range s.items {
		if s.items[i].Key() == key {
			return i
		}
	}
	return -1
}

func (s *Synchronizer) notify(snap []request.Request) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

// Package store keeps the planner's view of the backend's events and turns
// drafts into create, update and delete calls.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/rbright/waybar-weekfitter/internal/session"
)

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrUploadFailed    = errors.New("file upload failed")
	ErrNotFound        = errors.New("event not found")

	// ErrStale reports a mutation the backend accepted whose follow-up reload
	// failed; the cache still holds the previous events.
	ErrStale = errors.New("events could not be reloaded")
)

// Backend is the subset of the weekfitter client the store needs.
type Backend interface {
	ListEvents(ctx context.Context, owner string) ([]planner.Record, error)
	CreateEvent(ctx context.Context, owner string, record planner.Record) (planner.Record, error)
	UpdateEvent(ctx context.Context, owner, id string, record planner.Record) (planner.Record, error)
	DeleteEvent(ctx context.Context, id, owner string) error
	UploadFile(ctx context.Context, path string) (string, error)
}

type Options struct {
	Location *time.Location
	// DeleteWithOwner sends the owner e-mail along with deletes.
	DeleteWithOwner bool
	Logger          *zap.Logger
}

type Store struct {
	backend Backend
	session session.Session
	loc     *time.Location
	scoped  bool
	logger  *zap.Logger

	mu     sync.Mutex
	events []planner.Event
}

func New(backend Backend, current session.Session, opts Options) *Store {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		session: current,
		loc:     loc,
		scoped:  opts.DeleteWithOwner,
		logger:  logger,
	}
}

// Events returns a copy of the cached events.
func (s *Store) Events() []planner.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Restore seeds the cache from a snapshot written by an earlier process.
func (s *Store) Restore(events []planner.Event) {
	restored := slices.Clone(events)
	planner.SortEvents(restored)

	s.mu.Lock()
	s.events = restored
	s.mu.Unlock()
}

// Load replaces the cache with the owner's events. Records with unparseable
// times are dropped. Without a signed-in user it returns an empty list and
// ErrUnauthenticated.
func (s *Store) Load(ctx context.Context) ([]planner.Event, error) {
	owner := s.session.Owner()
	if owner == "" {
		s.mu.Lock()
		s.events = nil
		s.mu.Unlock()
		return []planner.Event{}, ErrUnauthenticated
	}

	records, err := s.backend.ListEvents(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	events := make([]planner.Event, 0, len(records))
	dropped := 0
	for _, record := range records {
		event, ok := planner.Normalize(record, s.loc)
		if !ok {
			dropped++
			continue
		}
		events = append(events, event)
	}
	if dropped > 0 {
		s.logger.Debug("dropped events with invalid times", zap.Int("count", dropped))
	}
	planner.SortEvents(events)

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()

	return slices.Clone(events), nil
}

// Save creates or updates the draft's event, uploading its pending file
// first. The draft itself is never modified; on any failure the caller still
// holds it unchanged.
func (s *Store) Save(ctx context.Context, draft *planner.Draft) error {
	if draft == nil {
		return fmt.Errorf("save event: %w", planner.ErrInvalidDraft)
	}
	owner := s.session.Owner()
	if owner == "" {
		return ErrUnauthenticated
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	staged := *draft
	if pending := strings.TrimSpace(draft.PendingFile); pending != "" {
		stored, err := s.backend.UploadFile(ctx, pending)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		staged.FilePath = stored
		staged.PendingFile = ""
	}

	record := staged.Record()
	if staged.IsNew() {
		if _, err := s.backend.CreateEvent(ctx, owner, record); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		s.logger.Info("event created", zap.String("title", staged.Title))
	} else {
		if _, err := s.backend.UpdateEvent(ctx, owner, staged.ID, record); err != nil {
			return fmt.Errorf("update event %s: %w", staged.ID, err)
		}
		s.logger.Info("event updated", zap.String("id", staged.ID))
	}

	return s.reload(ctx)
}

// Delete removes the event and reloads. On failure the cache is untouched.
func (s *Store) Delete(ctx context.Context, id string) error {
	owner := s.session.Owner()
	if owner == "" {
		return ErrUnauthenticated
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ErrNotFound
	}

	scope := ""
	if s.scoped {
		scope = owner
	}
	if err := s.backend.DeleteEvent(ctx, trimmed, scope); err != nil {
		return fmt.Errorf("delete event %s: %w", trimmed, err)
	}
	s.logger.Info("event deleted", zap.String("id", trimmed))

	return s.reload(ctx)
}

// Reschedule moves or resizes a cached event. The cache is patched before
// the request; success keeps the patch, failure restores the prior events.
func (s *Store) Reschedule(ctx context.Context, id string, start, end time.Time) error {
	owner := s.session.Owner()
	if owner == "" {
		return ErrUnauthenticated
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end before start", planner.ErrInvalidDraft)
	}

	s.mu.Lock()
	snapshot := slices.Clone(s.events)
	index := slices.IndexFunc(s.events, func(event planner.Event) bool {
		return event.ID == strings.TrimSpace(id)
	})
	if index < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	patched := s.events[index]
	patched.Start = start
	patched.End = end
	s.events[index] = patched
	planner.SortEvents(s.events)
	s.mu.Unlock()

	draft := planner.DraftFromEvent(patched)
	if _, err := s.backend.UpdateEvent(ctx, owner, patched.ID, draft.Record()); err != nil {
		s.mu.Lock()
		s.events = snapshot
		s.mu.Unlock()
		s.logger.Warn("reschedule rolled back", zap.String("id", patched.ID), zap.Error(err))
		return fmt.Errorf("reschedule event %s: %w", patched.ID, err)
	}
	return nil
}

func (s *Store) reload(ctx context.Context) error {
	if _, err := s.Load(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	return nil
}

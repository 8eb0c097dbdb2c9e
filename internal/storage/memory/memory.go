// Package memory is a process-local record store used by tests and by
// DATA_BACKEND=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"momo/internal/core"
	"momo/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	loc    *time.Location
	nextID int64
	items  []core.Record
}

var _ storage.RecordStore = (*Store)(nil)

// New returns an empty store. Calendar-day filters are evaluated in loc.
func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{loc: loc}
}

// Create stores the record under the next id.
func (s *Store) Create(_ context.Context, r core.Record) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	s.items = append(s.items, r)
	return r.ID, nil
}

func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	return s.remove(func(r core.Record) bool { return r.ID == id }), nil
}

func (s *Store) DeleteByAgent(_ context.Context, id int64, agent string) (bool, error) {
	return s.remove(func(r core.Record) bool { return r.ID == id && r.Agent == agent }), nil
}

func (s *Store) remove(match func(core.Record) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.items {
		if match(r) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) Get(_ context.Context, id int64) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return core.Record{}, core.ErrNotFound
}

// List returns matching records ordered by date then id, both descending.
func (s *Store) List(_ context.Context, f core.Filter) ([]core.Record, error) {
	s.mu.Lock()
	var out []core.Record
	for _, r := range s.items {
		if f.Matches(r, s.loc) {
			out = append(out, r)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) DistinctAgents(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, r := range s.items {
		if _, ok := seen[r.Agent]; ok {
			continue
		}
		seen[r.Agent] = struct{}{}
		out = append(out, r.Agent)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Summarize(ctx context.Context, f core.Filter) (core.Summary, error) {
	records, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return core.Summarize(records), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

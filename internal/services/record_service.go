package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"momo/internal/auth"
	"momo/internal/core"
	"momo/internal/export"
	"momo/internal/storage"
)

// EventPublisher announces committed record changes.
type EventPublisher interface {
	PublishRecordCreated(ctx context.Context, id int64) error
	PublishRecordDeleted(ctx context.Context, id int64) error
}

// RecordService orchestrates record operations across the store and the
// event publisher.
type RecordService struct {
	store          storage.RecordStore
	publisher      EventPublisher
	loc            *time.Location
	restrictDelete bool
	now            func() time.Time
}

// Option configures a RecordService.
type Option func(*RecordService)

// WithPublisher enables event publication after each committed change.
func WithPublisher(p EventPublisher) Option {
	return func(s *RecordService) { s.publisher = p }
}

// WithLocation sets the location used for record dates and export filenames.
func WithLocation(loc *time.Location) Option {
	return func(s *RecordService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithOwnerOnlyDelete limits deletion to the agent who created the record.
func WithOwnerOnlyDelete(enabled bool) Option {
	return func(s *RecordService) { s.restrictDelete = enabled }
}

func NewRecordService(store storage.RecordStore, opts ...Option) *RecordService {
	s := &RecordService{
		store: store,
		loc:   time.UTC,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates input, attributes it to the session agent and stores it.
func (s *RecordService) Create(ctx context.Context, sess auth.Session, in core.NewRecord) (core.Record, error) {
	rec, err := in.Build(sess.Username, s.now().In(s.loc).Truncate(time.Second))
	if err != nil {
		return core.Record{}, err
	}

	id, err := s.store.Create(ctx, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}
	rec.ID = id

	slog.InfoContext(ctx, "Record created",
		"id", id,
		"agent", rec.Agent,
		"type", rec.Type,
		"amount", core.FormatAmount(rec.Amount))

	if s.publisher != nil {
		if err := s.publisher.PublishRecordCreated(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish record event", "id", id, "error", err)
		}
	}

	return rec, nil
}

// Delete removes the record. It reports whether a row was removed; a missing
// id is not an error.
func (s *RecordService) Delete(ctx context.Context, sess auth.Session, id int64) (bool, error) {
	var (
		deleted bool
		err     error
	)
	if s.restrictDelete {
		deleted, err = s.store.DeleteByAgent(ctx, id, sess.Username)
	} else {
		deleted, err = s.store.Delete(ctx, id)
	}
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Record delete requested",
		"id", id,
		"agent", sess.Username,
		"deleted", deleted,
		"owner_only", s.restrictDelete)

	if deleted && s.publisher != nil {
		if err := s.publisher.PublishRecordDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish record event", "id", id, "error", err)
		}
	}
	return deleted, nil
}

func (s *RecordService) List(ctx context.Context, f core.Filter) ([]core.Record, error) {
	return s.store.List(ctx, f)
}

func (s *RecordService) Agents(ctx context.Context) ([]string, error) {
	return s.store.DistinctAgents(ctx)
}

// Summary aggregates matching records per type.
func (s *RecordService) Summary(ctx context.Context, f core.Filter) (core.Summary, error) {
	return s.store.Summarize(ctx, f)
}

// Export writes matching records as CSV and returns the attachment filename.
// export.ErrNoRecords is returned, with nothing written, when no record matches.
func (s *RecordService) Export(ctx context.Context, w io.Writer, f core.Filter) (string, error) {
	records, err := s.store.List(ctx, f)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", export.ErrNoRecords
	}
	if err := export.WriteCSV(w, records, s.loc); err != nil {
		return "", err
	}
	return export.Filename(s.now().In(s.loc)), nil
}

// Location is the configured business timezone.
func (s *RecordService) Location() *time.Location { return s.loc }

// Ready pings the store.
func (s *RecordService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes the store.
func (s *RecordService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close record service: %w", err)
	}
	return nil
}

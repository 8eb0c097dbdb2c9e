package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"momo/internal/amqp"
	"momo/internal/core"
	"momo/internal/sheets"
	"momo/internal/storage"
)

// SyncWorker mirrors record events from the records table into a spreadsheet.
type SyncWorker struct {
	records storage.RecordReader
	mirror  sheets.RecordMirror
}

func NewSyncWorker(records storage.RecordReader, mirror sheets.RecordMirror) *SyncWorker {
	return &SyncWorker{records: records, mirror: mirror}
}

// HandleEvent applies one record event to the mirror. Returned errors ask
// for redelivery unless they wrap amqp.ErrDiscard.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	switch ev.Kind {
	case amqp.KindRecordCreated:
		return w.handleCreated(ctx, ev.ID)
	case amqp.KindRecordDeleted:
		return w.handleDeleted(ctx, ev.ID)
	default:
		return fmt.Errorf("event kind %q: %w", ev.Kind, amqp.ErrDiscard)
	}
}

func (w *SyncWorker) handleCreated(ctx context.Context, id int64) error {
	rec, err := w.records.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it; the delete event follows.
		slog.InfoContext(ctx, "Record gone before mirroring, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record %d: %w", id, err)
	}

	if err := w.mirror.AppendRecord(ctx, rec); err != nil {
		return fmt.Errorf("mirror record %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Record synced to sheet", "id", id, "agent", rec.Agent)
	return nil
}

func (w *SyncWorker) handleDeleted(ctx context.Context, id int64) error {
	if err := w.mirror.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("remove record %d from sheet: %w", id, err)
	}
	slog.InfoContext(ctx, "Record removed from sheet", "id", id)
	return nil
}

// Reconcile appends every stored record missing from the mirror. It recovers
// from events lost while the worker was down.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	records, err := w.records.List(ctx, core.Filter{})
	if err != nil {
		return fmt.Errorf("list records for reconcile: %w", err)
	}

	synced, failed := 0, 0
	// Oldest first so the sheet keeps insertion order.
	for i := len(records) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror.AppendRecord(ctx, records[i]); err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile record", "id", records[i].ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Reconcile completed",
		"total", len(records),
		"synced", synced,
		"errors", failed)
	return nil
}

package storage

import (
	"context"

	"momo/internal/core"
)

// Ports implemented by the record store backends.
type (
	// RecordWriter creates and removes records.
	RecordWriter interface {
		Create(ctx context.Context, r core.Record) (int64, error)
		// Delete removes a record by id. Deleting a missing id is not an error.
		Delete(ctx context.Context, id int64) (bool, error)
		// DeleteByAgent removes a record only when it was created by agent.
		DeleteByAgent(ctx context.Context, id int64, agent string) (bool, error)
	}

	// RecordReader reads records.
	RecordReader interface {
		Get(ctx context.Context, id int64) (core.Record, error)
		// List returns the matching records, most recent first.
		List(ctx context.Context, f core.Filter) ([]core.Record, error)
		// DistinctAgents returns every agent that owns at least one record, sorted.
		DistinctAgents(ctx context.Context) ([]string, error)
	}

	// SummaryReader aggregates records per transaction type.
	SummaryReader interface {
		Summarize(ctx context.Context, f core.Filter) (core.Summary, error)
	}

	// RecordStore is the full contract of a record store backend.
	RecordStore interface {
		RecordWriter
		RecordReader
		SummaryReader
		Ping(ctx context.Context) error
		Close() error
	}
)

package sheets

import (
	"context"

	"momo/internal/core"
)

// Ports for the spreadsheet mirror of the records table.
type (
	// RecordMirror keeps a spreadsheet in step with the records table.
	RecordMirror interface {
		// AppendRecord adds a row for r unless one with the same id exists.
		AppendRecord(ctx context.Context, r core.Record) error
		// DeleteRecord removes the row for id. A missing row is not an error.
		DeleteRecord(ctx context.Context, id int64) error
	}

	// HeaderWriter prepares an empty sheet.
	HeaderWriter interface {
		EnsureHeader(ctx context.Context) error
	}
)

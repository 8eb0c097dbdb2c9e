// Package export renders record listings as CSV downloads.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"momo/internal/core"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("no records found")

// Header is the fixed first row of every export.
var Header = []string{"id", "date", "phone", "type", "amount", "agent", "reference"}

// Row returns the CSV columns for r, in Header order. Dates are rendered in loc.
func Row(r core.Record, loc *time.Location) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Date.In(loc).Format(core.TimestampLayout),
		r.Phone,
		r.Type,
		core.FormatAmount(r.Amount),
		r.Agent,
		r.Reference,
	}
}

// WriteCSV writes the header followed by one row per record, preserving order.
// An empty slice yields ErrNoRecords and nothing is written.
func WriteCSV(w io.Writer, records []core.Record, loc *time.Location) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	if loc == nil {
		loc = time.UTC
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(Row(r, loc)); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename is the attachment name for an export made at now.
func Filename(now time.Time) string {
	return "momo-report-" + now.Format("20060102") + ".csv"
}

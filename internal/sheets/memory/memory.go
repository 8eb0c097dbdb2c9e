// Package memory is an in-process stand-in for the spreadsheet mirror.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"momo/internal/core"
	"momo/internal/export"
	ports "momo/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	loc  *time.Location
	rows [][]string
}

var (
	_ ports.RecordMirror = (*Mirror)(nil)
	_ ports.HeaderWriter = (*Mirror)(nil)
)

func New(loc *time.Location) *Mirror {
	if loc == nil {
		loc = time.UTC
	}
	return &Mirror{loc: loc}
}

func (m *Mirror) EnsureHeader(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) == 0 {
		m.rows = append(m.rows, append([]string(nil), export.Header...))
	}
	return nil
}

func (m *Mirror) AppendRecord(_ context.Context, r core.Record) error {
	row := export.Row(r, m.loc)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(row[0]) >= 0 {
		return nil
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *Mirror) DeleteRecord(_ context.Context, id int64) error {
	key := strconv.FormatInt(id, 10)
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(key); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the sheet contents, header included.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (m *Mirror) indexOf(id string) int {
	for i, r := range m.rows {
		if len(r) > 0 && r[0] == id {
			return i
		}
	}
	return -1
}

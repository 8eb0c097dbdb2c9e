package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"momo/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the relational record store.
type SQLiteRepository struct {
	db  *sql.DB
	loc *time.Location
}

var _ RecordStore = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating when needed) the database at dbPath,
// applies migrations and returns a ready store. Timestamps are stored as
// wall-clock text in loc.
func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewSQLiteRepositoryFromDB(db, loc), nil
}

// NewSQLiteRepositoryFromDB wraps an already-migrated database handle.
func NewSQLiteRepositoryFromDB(db *sql.DB, loc *time.Location) *SQLiteRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SQLiteRepository{db: db, loc: loc}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return &core.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Create validates and inserts rec, returning the assigned id.
func (r *SQLiteRepository) Create(ctx context.Context, rec core.Record) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var reference sql.NullString
	if rec.Reference != "" {
		reference = sql.NullString{String: rec.Reference, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (date, phone, type, amount_cents, agent, reference, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.formatTime(rec.Date),
		rec.Phone,
		rec.Type,
		core.ToCents(rec.Amount),
		rec.Agent,
		reference,
		r.formatTime(rec.CreatedAt),
	)
	if err != nil {
		return 0, &core.StoreError{Op: "create record", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Op: "create record", Err: err}
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", id,
		"agent", rec.Agent,
		"type", rec.Type,
		"amount", core.FormatAmount(rec.Amount))

	return id, nil
}

// Delete removes the record with id. A missing id is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return false, &core.StoreError{Op: "delete record", Err: err}
	}
	return rowsAffected(res, "delete record")
}

// DeleteByAgent removes the record with id only when agent created it.
func (r *SQLiteRepository) DeleteByAgent(ctx context.Context, id int64, agent string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND agent = ?`, id, agent)
	if err != nil {
		return false, &core.StoreError{Op: "delete record", Err: err}
	}
	return rowsAffected(res, "delete record")
}

func rowsAffected(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, &core.StoreError{Op: op, Err: err}
	}
	return n > 0, nil
}

// Get returns a single record by id.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Record, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	rec, err := r.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, &core.StoreError{Op: "get record", Err: err}
	}
	return rec, nil
}

// List returns the records matching f, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, f core.Filter) ([]core.Record, error) {
	query, args := listQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "list records", Err: err}
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, &core.StoreError{Op: "scan record", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "list records", Err: err}
	}
	return out, nil
}

// DistinctAgents returns every agent owning at least one record, sorted.
func (r *SQLiteRepository) DistinctAgents(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT agent FROM records ORDER BY agent`)
	if err != nil {
		return nil, &core.StoreError{Op: "list agents", Err: err}
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var agent string
		if err := rows.Scan(&agent); err != nil {
			return nil, &core.StoreError{Op: "scan agent", Err: err}
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "list agents", Err: err}
	}
	return agents, nil
}

// Summarize aggregates the records matching f per transaction type.
func (r *SQLiteRepository) Summarize(ctx context.Context, f core.Filter) (core.Summary, error) {
	query, args := summaryQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "summarize records", Err: err}
	}
	defer rows.Close()

	summary := core.Summary{}
	for rows.Next() {
		var (
			typ   string
			count int64
			cents int64
		)
		if err := rows.Scan(&typ, &count, &cents); err != nil {
			return nil, &core.StoreError{Op: "scan summary", Err: err}
		}
		summary[typ] = core.TypeTotals{Count: count, Total: core.FromCents(cents)}
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "summarize records", Err: err}
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanRecord(s rowScanner) (core.Record, error) {
	var (
		rec       core.Record
		date      string
		cents     int64
		reference sql.NullString
		createdAt string
	)
	if err := s.Scan(&rec.ID, &date, &rec.Phone, &rec.Type, &cents, &rec.Agent, &reference, &createdAt); err != nil {
		return core.Record{}, err
	}

	var err error
	if rec.Date, err = time.ParseInLocation(core.TimestampLayout, date, r.loc); err != nil {
		return core.Record{}, fmt.Errorf("parse date of record %d: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = time.ParseInLocation(core.TimestampLayout, createdAt, r.loc); err != nil {
		return core.Record{}, fmt.Errorf("parse created_at of record %d: %w", rec.ID, err)
	}
	rec.Amount = core.FromCents(cents)
	rec.Reference = reference.String
	return rec, nil
}

func (r *SQLiteRepository) formatTime(t time.Time) string {
	return t.In(r.loc).Format(core.TimestampLayout)
}

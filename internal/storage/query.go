package storage

import (
	"strings"

	"momo/internal/core"
)

const recordColumns = "id, date, phone, type, amount_cents, agent, reference, created_at"

// whereClause renders the conjunction of the supplied filter criteria as a
// parameterised WHERE clause. An empty filter yields an empty clause.
func whereClause(f core.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Agent != "" {
		conds = append(conds, "agent = ?")
		args = append(args, f.Agent)
	}
	if f.FromDate != "" {
		conds = append(conds, "date(date) >= ?")
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		conds = append(conds, "date(date) <= ?")
		args = append(args, f.ToDate)
	}
	if f.Search != "" {
		needle := core.FoldASCII(f.Search)
		conds = append(conds, "(instr(lower(phone), ?) > 0 OR instr(lower(coalesce(reference, '')), ?) > 0 OR instr(lower(agent), ?) > 0)")
		args = append(args, needle, needle, needle)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// listQuery selects matching records, most recent first.
func listQuery(f core.Filter) (string, []any) {
	where, args := whereClause(f)
	return "SELECT " + recordColumns + " FROM records" + where + " ORDER BY date DESC, id DESC", args
}

// summaryQuery groups matching records by type.
func summaryQuery(f core.Filter) (string, []any) {
	where, args := whereClause(f)
	return "SELECT type, COUNT(*), SUM(amount_cents) FROM records" + where + " GROUP BY type ORDER BY type", args
}

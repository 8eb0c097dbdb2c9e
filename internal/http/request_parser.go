package http

import (
	"net/http"
	"net/url"
	"strconv"

	"momo/internal/core"
)

// ParseFilter reads search, from_date, to_date and agent from q. Missing
// values impose no constraint; malformed dates are a ValidationError.
func ParseFilter(q url.Values) (core.Filter, error) {
	return core.NewFilter(
		sanitizeInput(q.Get("search")),
		q.Get("from_date"),
		q.Get("to_date"),
		sanitizeInput(q.Get("agent")),
	)
}

// ParseRecordForm reads the add-record form fields.
func ParseRecordForm(form url.Values) core.NewRecord {
	return core.NewRecord{
		Phone:     sanitizeInput(form.Get("phone")),
		Type:      sanitizeInput(form.Get("type")),
		Amount:    sanitizeInput(form.Get("amount")),
		Reference: sanitizeInput(form.Get("reference")),
	}
}

// parseRecordID reads the {id} path value. ok is false unless it is a
// positive integer.
func parseRecordID(r *http.Request) (id int64, ok bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

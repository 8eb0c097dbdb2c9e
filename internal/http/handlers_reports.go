package http

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
)

type reportsPage struct {
	AgentName string
	Agents    []string
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	agents, err := s.records.Agents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "reports.html", reportsPage{AgentName: session(r).Name, Agents: agents})
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	summary, err := s.records.Summary(r.Context(), f)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// handleExportCSV buffers the whole file so a failure never leaves a partial
// attachment behind a 200.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	filename, err := s.records.Export(r.Context(), &buf, f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

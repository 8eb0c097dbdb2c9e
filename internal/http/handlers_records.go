package http

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"momo/internal/auth"
	"momo/internal/core"
)

type dashboardPage struct {
	AgentName string
	Filter    core.Filter
	Records   []core.Record
	Agents    []string
}

type addRecordPage struct {
	AgentName string
	Form      core.NewRecord
	Error     string
}

// session is only called behind RequireSession, which guarantees presence.
func session(r *http.Request) auth.Session {
	sess, _ := auth.FromContext(r.Context())
	return sess
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	page := dashboardPage{AgentName: session(r).Name, Filter: f}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		page.Records, err = s.records.List(ctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		page.Agents, err = s.records.Agents(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", page)
}

func (s *Server) handleAddRecordForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "add_record.html", addRecordPage{
		AgentName: session(r).Name,
		Form:      core.NewRecord{Type: core.Deposit},
	})
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "add_record.html", addRecordPage{AgentName: sess.Name, Error: "Invalid request"})
		return
	}

	in := ParseRecordForm(r.PostForm)
	if _, err := s.records.Create(r.Context(), sess, in); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Failed to save record", "agent", sess.Username, "error", err)
		}
		s.render(w, r, status, "add_record.html", addRecordPage{AgentName: sess.Name, Form: in, Error: publicMessage(err)})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRecordID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, err := s.records.Delete(r.Context(), session(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

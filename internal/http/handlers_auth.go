package http

import (
	"errors"
	"log/slog"
	"net/http"

	"momo/internal/auth"
)

type loginPage struct {
	Username string
	Error    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Read(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", loginPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", loginPage{Error: "Invalid request"})
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	agent, err := s.authn.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.ErrorContext(r.Context(), "Authentication failed", "error", err)
		} else {
			slog.InfoContext(r.Context(), "Login rejected", "username", username, "client_ip", s.detector.ClientIP(r))
		}
		s.render(w, r, statusFor(err), "login.html", loginPage{Username: username, Error: publicMessage(err)})
		return
	}

	sess, err := s.sessions.Issue(w, agent)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to issue session", "username", agent.Username, "error", err)
		s.render(w, r, http.StatusInternalServerError, "login.html", loginPage{Username: username, Error: publicMessage(err)})
		return
	}

	slog.InfoContext(r.Context(), "Agent logged in", "agent", sess.Username, "session_id", sess.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusTooManyRequests, "login.html", loginPage{
		Error: "Too many login attempts. Please wait a minute and try again.",
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.sessions.Read(r); err == nil {
		slog.InfoContext(r.Context(), "Agent logged out", "agent", sess.Username)
	}
	s.sessions.Clear(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

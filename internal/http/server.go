// Package http serves the agent-facing pages and the report API.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"momo/internal/auth"
	"momo/internal/core"
	"momo/internal/middleware/ratelimit"
	"momo/internal/middleware/security"
	"momo/internal/middleware/trace"
	"momo/internal/services"
	appweb "momo/web"
)

const loginPath = "/login"

// Deps are the collaborators the server needs.
type Deps struct {
	Records       *services.RecordService
	Authenticator auth.Authenticator
	Sessions      *auth.SessionManager

	// LoginRateLimit is the number of login attempts allowed per client IP
	// per minute.
	LoginRateLimit int
}

type Server struct {
	http.Server
	templates *template.Template
	records   *services.RecordService
	authn     auth.Authenticator
	sessions  *auth.SessionManager
	limiter   *ratelimit.Limiter
	detector  *security.Detector

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, registers every route and returns
// a server ready for ListenAndServe.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Records == nil || deps.Authenticator == nil || deps.Sessions == nil {
		return nil, errors.New("http server: records, authenticator and sessions are required")
	}

	loc := deps.Records.Location()
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"amount":   core.FormatAmount,
		"datetime": func(t time.Time) string { return t.In(loc).Format(core.TimestampLayout) },
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	rl := ratelimit.DefaultConfig()
	if deps.LoginRateLimit > 0 {
		rl.Requests = deps.LoginRateLimit
	}

	s := &Server{
		templates: tmpl,
		records:   deps.Records,
		authn:     deps.Authenticator,
		sessions:  deps.Sessions,
		limiter:   ratelimit.NewLimiter(rl),
		detector:  security.NewDetector(),
	}

	mux := http.NewServeMux()
	gate := deps.Sessions.RequireSession(loginPath)
	protected := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(gate(h))
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.Handle("POST /login", s.limiter.Middleware(s.detector.ClientIP, s.handleLoginLimited)(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /logout", s.handleLogout)

	mux.Handle("GET /dashboard", protected(s.handleDashboard))
	mux.Handle("GET /add-record", protected(s.handleAddRecordForm))
	mux.Handle("POST /add-record", protected(s.handleAddRecord))
	mux.Handle("POST /delete-record/{id}", protected(s.handleDeleteRecord))
	mux.Handle("GET /reports", protected(s.handleReports))
	mux.Handle("GET /api/report-summary", protected(s.handleReportSummary))
	mux.Handle("GET /export-csv", protected(s.handleExportCSV))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServerFS(static))))

	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.detector.ClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes the named template and writes it with status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.records.Ready(ctx); err != nil {
		slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

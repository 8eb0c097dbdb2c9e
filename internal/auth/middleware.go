package auth

import (
	"context"
	"log/slog"
	"net/http"
)

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by RequireSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// RequireSession redirects anonymous requests to loginPath with 303 and
// otherwise exposes the session through the request context.
func (m *SessionManager) RequireSession(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Read(r)
			if err != nil {
				if _, cerr := r.Cookie(CookieName); cerr == nil {
					slog.DebugContext(r.Context(), "Rejected session cookie", "path", r.URL.Path, "error", err)
					m.Clear(w)
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName is the session cookie.
	CookieName = "momo_session"
	// DefaultTTL bounds a session when no SESSION_TTL is configured.
	DefaultTTL = 12 * time.Hour
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// Session is the authenticated state carried by the cookie.
type Session struct {
	ID        string
	Username  string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256-signed session cookies.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager returns a manager signing with secret. A non-positive ttl
// falls back to DefaultTTL.
func NewSessionManager(secret []byte, ttl time.Duration, secureCookie bool) (*SessionManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionManager{secret: secret, ttl: ttl, secure: secureCookie, now: time.Now}, nil
}

// RandomSecret returns 32 random bytes for deployments without SESSION_SECRET.
// Sessions signed with it do not survive a restart.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return b, nil
}

// Issue creates a session for agent and writes it as a cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, agent Agent) (Session, error) {
	now := m.now().Truncate(time.Second)
	s := Session{
		ID:        uuid.NewString(),
		Username:  agent.Username,
		Name:      agent.Name,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Read returns the session carried by r, or ErrNoSession.
func (m *SessionManager) Read(r *http.Request) (Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNoSession
	}
	return m.parse(c.Value)
}

func (m *SessionManager) parse(raw string) (Session, error) {
	var cl claims
	token, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return Session{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if cl.Subject == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrNoSession)
	}

	s := Session{ID: cl.ID, Username: cl.Subject, Name: cl.Name}
	if cl.IssuedAt != nil {
		s.IssuedAt = cl.IssuedAt.Time
	}
	s.ExpiresAt = cl.ExpiresAt.Time
	return s, nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

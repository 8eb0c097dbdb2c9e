// Package auth gates the agent-facing pages behind a signed session.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
// Unknown users and wrong passwords are indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Agent is an identity allowed to log in.
type Agent struct {
	Username string
	Name     string
}

// Authenticator verifies a username/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Agent, error)
}

type credential struct {
	password string
	name     string
}

// StaticRegistry is a fixed, in-memory credential table.
type StaticRegistry struct {
	agents map[string]credential
}

var _ Authenticator = (*StaticRegistry)(nil)

// DefaultAgents is used when no AGENTS value is configured.
const DefaultAgents = "agent1:pass123:Agent One,agent2:pass123:Agent Two"

// ParseAgents builds a registry from "user:password:Display Name" entries
// separated by commas. The display name is optional.
func ParseAgents(spec string) (*StaticRegistry, error) {
	reg := &StaticRegistry{agents: map[string]credential{}}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("agent entry %q: expected user:password[:name]", entry)
		}
		user := strings.TrimSpace(parts[0])
		if user == "" || parts[1] == "" {
			return nil, fmt.Errorf("agent entry %q: empty user or password", entry)
		}
		if len(user) > 50 {
			return nil, fmt.Errorf("agent entry %q: username longer than 50 characters", entry)
		}
		if _, dup := reg.agents[user]; dup {
			return nil, fmt.Errorf("agent %q defined twice", user)
		}
		name := user
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			name = strings.TrimSpace(parts[2])
		}
		reg.agents[user] = credential{password: parts[1], name: name}
	}
	if len(reg.agents) == 0 {
		return nil, errors.New("no agents configured")
	}
	return reg, nil
}

// Authenticate compares the password in constant time.
func (r *StaticRegistry) Authenticate(_ context.Context, username, password string) (Agent, error) {
	c, ok := r.agents[username]
	if !ok {
		// Same work as a real comparison.
		subtle.ConstantTimeCompare([]byte(password), []byte(password))
		return Agent{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) != 1 {
		return Agent{}, ErrInvalidCredentials
	}
	return Agent{Username: username, Name: c.name}, nil
}

// Usernames lists the registered agents, sorted.
func (r *StaticRegistry) Usernames() []string {
	out := make([]string, 0, len(r.agents))
	for u := range r.agents {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

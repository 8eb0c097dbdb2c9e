package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAgents(t *testing.T) {
	reg, err := ParseAgents(DefaultAgents)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent1", "agent2"}, reg.Usernames())

	reg, err = ParseAgents(" alice:s3cret , bob:pw:Bob Builder ,")
	require.NoError(t, err)

	a, err := reg.Authenticate(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, Agent{Username: "alice", Name: "alice"}, a)

	b, err := reg.Authenticate(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Bob Builder", b.Name)
}

func TestParseAgentsErrors(t *testing.T) {
	for _, spec := range []string{
		"",
		"alice",
		":pw",
		"alice:",
		"alice:pw,alice:other",
	} {
		_, err := ParseAgents(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

func TestAuthenticate(t *testing.T) {
	reg, err := ParseAgents(DefaultAgents)
	require.NoError(t, err)
	ctx := context.Background()

	agent, err := reg.Authenticate(ctx, "agent1", "pass123")
	require.NoError(t, err)
	assert.Equal(t, Agent{Username: "agent1", Name: "Agent One"}, agent)

	tests := []struct {
		name     string
		user     string
		password string
	}{
		{"wrong password", "agent1", "nope"},
		{"unknown user", "mallory", "pass123"},
		{"empty", "", ""},
		{"case sensitive", "Agent1", "pass123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Authenticate(ctx, tt.user, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthManager(t *testing.T) {
	t.Run("disabled manager admits everything", func(t *testing.T) {
		auth := NewAuthManager("")
		assert.False(t, auth.Enabled())

		r := httptest.NewRequest("GET", "/ws", nil)
		subject, err := auth.Authenticate(r)
		require.NoError(t, err)
		assert.Empty(t, subject)
	})

	t.Run("issued tokens authenticate", func(t *testing.T) {
		auth := NewAuthManager("test-secret")
		require.True(t, auth.Enabled())

		token, err := auth.IssueToken("dapp-1")
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/ws", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		subject, err := auth.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, "dapp-1", subject)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		auth := NewAuthManager("test-secret")

		r := httptest.NewRequest("GET", "/ws", nil)
		_, err := auth.Authenticate(r)
		require.Error(t, err)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := NewAuthManager("other-secret")
		token, err := other.IssueToken("dapp-1")
		require.NoError(t, err)

		auth := NewAuthManager("test-secret")
		r := httptest.NewRequest("GET", "/ws", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		_, err = auth.Authenticate(r)
		require.Error(t, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		auth := NewAuthManager("test-secret")

		r := httptest.NewRequest("GET", "/ws", nil)
		r.Header.Set("Authorization", "Bearer not.a.token")
		_, err := auth.Authenticate(r)
		require.Error(t, err)
	})

	t.Run("disabled manager cannot issue tokens", func(t *testing.T) {
		auth := NewAuthManager("")
		_, err := auth.IssueToken("dapp-1")
		require.Error(t, err)
	})
}

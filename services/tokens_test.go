package services

import (
	"testing"
	"time"

	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", "myblog", time.Hour)
	user := &models.User{ID: 42, Username: "alice"}

	token, err := tokens.Issue(user)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		id, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, uint(42), id)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens("other", "myblog", time.Hour).Verify(token)
		assert.ErrorIs(t, err, errs.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewTokens("secret", "elsewhere", time.Hour).Verify(token)
		assert.ErrorIs(t, err, errs.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens("secret", "myblog", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(token)
		assert.ErrorIs(t, err, errs.ErrExpiredToken)
		assert.True(t, errs.IsUnauthorized(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Verify("not-a-token")
		assert.ErrorIs(t, err, errs.ErrInvalidToken)
	})
}

func TestTokensFromConfig(t *testing.T) {
	_, err := TokensFromConfig(map[string]string{})
	assert.Error(t, err)

	tokens, err := TokensFromConfig(map[string]string{"JWT_SECRET": "s", "TOKEN_TTL_HOURS": "2"})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, tokens.ttl)
	assert.Equal(t, "myblog", tokens.issuer)
}

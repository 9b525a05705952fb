package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fleetspend/internal/auth"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	accountID := uuid.New()

	token, err := issuer.Issue(accountID, "12345678901234")
	require.NoError(t, err)

	claims, err := issuer.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, "12345678901234", claims.CNPJ)
}

func TestIssuer_Verify(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)

	token, err := issuer.Issue(uuid.New(), "12345678901234")
	require.NoError(t, err)

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := auth.NewIssuer("other", time.Hour).Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Verify("not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := issuer.Verify("Bearer ")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		later := auth.NewIssuer("secret", time.Hour)
		later.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

		_, err := later.Verify(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("123456")
	require.NoError(t, err)

	assert.True(t, auth.CheckPassword("123456", hash))
	assert.False(t, auth.CheckPassword("654321", hash))
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret)

	for _, purpose := range []Purpose{PurposeSession, PurposeEmailVerification, PurposePasswordReset} {
		token, err := svc.Issue(42, purpose, time.Hour)
		require.NoError(t, err)

		claims, err := svc.Verify(token, purpose)
		require.NoError(t, err, string(purpose))
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, string(purpose), claims.Type)
	}
}

func TestTokenPurposeMismatch(t *testing.T) {
	svc := NewTokenService(testSecret)
	token, err := svc.Issue(7, PurposeEmailVerification, 24*time.Hour)
	require.NoError(t, err)

	for _, other := range []Purpose{PurposeSession, PurposePasswordReset} {
		_, err := svc.Verify(token, other)
		assert.ErrorIs(t, err, ErrPurposeMismatch)
	}

	session, err := svc.Issue(7, PurposeSession, time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(session, PurposeEmailVerification)
	assert.ErrorIs(t, err, ErrPurposeMismatch)
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenService(testSecret).WithClock(func() time.Time { return now })

	token, err := issuer.Issue(1, PurposeEmailVerification, 24*time.Hour)
	require.NoError(t, err)

	before := issuer.WithClock(func() time.Time { return now.Add(23 * time.Hour) })
	_, err = before.Verify(token, PurposeEmailVerification)
	require.NoError(t, err)

	after := issuer.WithClock(func() time.Time { return now.Add(24*time.Hour + time.Second) })
	_, err = after.Verify(token, PurposeEmailVerification)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenInvalid(t *testing.T) {
	svc := NewTokenService(testSecret)

	_, err := svc.Verify("not-a-token", PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenService("another-secret").Issue(1, PurposeSession, time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(other, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 非 HS256 签名算法
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(none, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensAreUnique(t *testing.T) {
	svc := NewTokenService(testSecret)
	a, err := svc.Issue(1, PurposeSession, time.Hour)
	require.NoError(t, err)
	b, err := svc.Issue(1, PurposeSession, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

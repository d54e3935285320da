package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/pliu/roomchat/internal/objectid"
)

func TestIssuer_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer, err := NewIssuer([]byte("test-secret"), time.Hour)
	req.NoError(err)

	userID := objectid.New()
	token, err := issuer.Issue(userID)
	req.NoError(err)

	got, err := issuer.Verify(token)
	req.NoError(err)
	req.Equal(userID, got)
}

func TestIssuer_RejectsForeignSignature(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer([]byte("other-secret"), time.Hour)
	require.NoError(t, err)

	token, err := other.Issue(objectid.New())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret"), time.Minute)
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue(objectid.New())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsNonObjectIDSubject(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "42",
		Issuer:    "roomchat",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsGarbage(t *testing.T) {
	issuer, err := NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	_, err = issuer.Verify("123|invalid_signature")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	require.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)
	require.True(t, ComparePassword(hash, "password123"))
	require.False(t, ComparePassword(hash, "wrong"))
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	s := New(Config{Secret: "shh", TokenTTL: time.Hour})

	token, err := s.Sign("pool", "pool-member-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "pool", claims.Purpose)
	assert.Equal(t, "pool-member-1", claims.Subject)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	s1 := New(Config{Secret: "secret-one"})
	s2 := New(Config{Secret: "secret-two"})

	token, err := s1.Sign("ticket", "abc")
	require.NoError(t, err)

	_, err = s2.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	s := New(Config{Secret: "shh", TokenTTL: -time.Minute})

	token, err := s.Sign("ticket", "abc")
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.Error(t, err)
}

func TestVerifyPurposeRejectsMismatch(t *testing.T) {
	s := New(Config{Secret: "shh", TokenTTL: time.Hour})

	token, err := s.Sign("pool", "abc")
	require.NoError(t, err)

	_, err = s.VerifyPurpose(token, "ticket")
	assert.Error(t, err)

	claims, err := s.VerifyPurpose(token, "pool")
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.Subject)
}

func TestNewFallsBackToDefaultsOnZeroValues(t *testing.T) {
	s := New(Config{})
	token, err := s.Sign("pool", "x")
	require.NoError(t, err)
	_, err = s.Verify(token)
	require.NoError(t, err)
}

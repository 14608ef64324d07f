package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "aircrew/pkg/domain-errors"
)

func TestRoundTrip(t *testing.T) {
	svc := New("test-signing-key")

	token, err := svc.GenerateToken("duty-officer", time.Hour)
	require.NoError(t, err)

	subject, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "duty-officer", subject)
}

func TestExpiredToken(t *testing.T) {
	svc := New("test-signing-key")

	token, err := svc.GenerateToken("duty-officer", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnauthorized))
}

func TestWrongKey(t *testing.T) {
	token, err := New("key-one").GenerateToken("duty-officer", time.Hour)
	require.NoError(t, err)

	_, err = New("key-two").ValidateToken(token)
	require.Error(t, err)
	assert.True(t, derrors.Is(err, derrors.CodeUnauthorized))
}

func TestGarbageToken(t *testing.T) {
	_, err := New("key").ValidateToken("not-a-jwt")
	require.Error(t, err)
}

package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "suratdesa")

	token, err := svc.GenerateAccessToken("rt-chair", "rt", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "rt-chair", claims.ActorID)
	assert.Equal(t, "rt", claims.Role)
}

func TestJWTService_RejectsWrongKey(t *testing.T) {
	token, err := NewJWTService("key-one", "suratdesa").GenerateAccessToken("resident-1", "resident", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("key-two", "suratdesa").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "suratdesa")
	token, err := svc.GenerateAccessToken("resident-1", "resident", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "suratdesa")
	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("emp_1", "ana", "manager", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "emp_1", claims.Sub)
	assert.Equal(t, "manager", claims.Role)
}

func TestParseRejects(t *testing.T) {
	tok, err := NewAccessToken("emp_1", "ana", "staff", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok, "other-secret")
	assert.Error(t, err)

	expired, err := NewAccessToken("emp_1", "ana", "staff", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired, "secret")
	assert.Error(t, err)
}

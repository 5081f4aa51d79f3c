package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokenString, err := BuildJWTString("42")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	userCode, err := GetUserCode(tokenString)
	require.NoError(t, err)
	require.Equal(t, "42", userCode)
}

func TestTokenInvalid(t *testing.T) {
	_, err := GetUserCode("not-a-token")
	require.Error(t, err)
}

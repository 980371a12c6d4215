package livekit

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_Claims(t *testing.T) {
	signed, err := AccessToken("key", "secret", "room-1", "agent-1", 30*time.Minute)
	require.NoError(t, err)

	parsed, err := jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "key", claims["iss"])
	assert.Equal(t, "agent-1", claims["sub"])

	video := claims["video"].(map[string]any)
	assert.Equal(t, "room-1", video["room"])
	assert.Equal(t, true, video["roomJoin"])
}

func TestAccessToken_RequiresCredentials(t *testing.T) {
	_, err := AccessToken("", "secret", "room", "id", 0)
	assert.Error(t, err)
	_, err = AccessToken("key", "", "room", "id", 0)
	assert.Error(t, err)
}

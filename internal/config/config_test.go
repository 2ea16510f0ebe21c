package config

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseDefaults(t *testing.T) {
	t.Setenv("POSTGRES_USER", "king")
	t.Setenv("POSTGRES_PASSWORD", "s3cret/&?")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_DB", "kingtiles")

	cfg, err := NewDatabase()
	require.NoError(t, err)
	assert.Equal(t, uint16(5432), cfg.Port, "port defaults when unset")
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t,
		"postgresql://king:s3cret%2F%26%3F@db:5432/kingtiles?sslmode=disable",
		cfg.URL(),
	)
}

func TestDatabaseRejectsBadPort(t *testing.T) {
	t.Setenv("POSTGRES_USER", "king")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "not-a-port")
	t.Setenv("POSTGRES_DB", "kingtiles")

	_, err := NewDatabase()
	assert.Error(t, err)
}

func originRequest(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/game/x/connect", nil)
	r.Header.Set("Origin", origin)
	return r
}

func TestWebSocketOriginPolicy(t *testing.T) {
	t.Setenv("WS_ALLOWED_ORIGINS", "https://play.example.com, https://staging.example.com")

	ws, err := NewWebSocket()
	require.NoError(t, err)
	assert.True(t, ws.Upgrader.CheckOrigin(originRequest("https://play.example.com")))
	assert.True(t, ws.Upgrader.CheckOrigin(originRequest("https://staging.example.com")))
	assert.False(t, ws.Upgrader.CheckOrigin(originRequest("https://evil.example.com")))
}

func TestWebSocketAllowsAnyOriginWhenUnset(t *testing.T) {
	t.Setenv("WS_ALLOWED_ORIGINS", "")

	ws, err := NewWebSocket()
	require.NoError(t, err)
	assert.True(t, ws.Upgrader.CheckOrigin(originRequest("https://anywhere.example.com")))
}

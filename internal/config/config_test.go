package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.RingTimeout)
	assert.Equal(t, 30*time.Second, cfg.NegotiationTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ReaperInterval)
	assert.Equal(t, time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

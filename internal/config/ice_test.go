package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebRTCICEServersDefault(t *testing.T) {
	cfg := &Config{}
	servers := cfg.WebRTCICEServers()
	require.Len(t, servers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, servers[0].URLs)
}

func TestWebRTCICEServersTURNRequiresCredentials(t *testing.T) {
	cfg := &Config{ICEServers: []ICEServerConfig{
		{URLs: []string{"stun:stun.example.com:3478"}},
		{URLs: []string{"turn:turn.example.com:3478"}}, // no credentials
		{URLs: []string{"turn:turn2.example.com:3478"}, Username: "u", Credential: "p"},
	}}
	servers := cfg.WebRTCICEServers()
	require.Len(t, servers, 2)
	assert.Equal(t, []string{"stun:stun.example.com:3478"}, servers[0].URLs)
	assert.Equal(t, "u", servers[1].Username)
	assert.Equal(t, "p", servers[1].Credential)
}

func TestWebRTCICEServersSkipsEmptyEntries(t *testing.T) {
	cfg := &Config{ICEServers: []ICEServerConfig{
		{URLs: []string{"  ", ""}},
	}}
	servers := cfg.WebRTCICEServers()
	require.Len(t, servers, 1, "all-empty config falls back to the default STUN")
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, servers[0].URLs)
}

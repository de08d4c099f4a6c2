package config

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

// defaultSTUN keeps clients working when no ICE servers are configured.
var defaultSTUN = webrtc.ICEServer{URLs: []string{"stun:stun.l.google.com:19302"}}

// WebRTCICEServers converts the configured ICE server list into the form
// clients feed straight into a PeerConnection. Entries without URLs are
// skipped, and TURN entries missing credentials are dropped because they are
// unusable without them.
func (c *Config) WebRTCICEServers() []webrtc.ICEServer {
	if len(c.ICEServers) == 0 {
		return []webrtc.ICEServer{defaultSTUN}
	}
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, s := range c.ICEServers {
		urls := make([]string, 0, len(s.URLs))
		for _, raw := range s.URLs {
			if u := strings.TrimSpace(raw); u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) == 0 {
			continue
		}
		server := webrtc.ICEServer{URLs: urls}
		if hasTURNURL(urls) {
			if strings.TrimSpace(s.Username) == "" || strings.TrimSpace(s.Credential) == "" {
				continue
			}
		}
		if s.Username != "" {
			server.Username = s.Username
		}
		if s.Credential != "" {
			server.Credential = s.Credential
		}
		out = append(out, server)
	}
	if len(out) == 0 {
		return []webrtc.ICEServer{defaultSTUN}
	}
	return out
}

func hasTURNURL(urls []string) bool {
	for _, raw := range urls {
		u := strings.ToLower(strings.TrimSpace(raw))
		if strings.HasPrefix(u, "turn:") || strings.HasPrefix(u, "turns:") {
			return true
		}
	}
	return false
}

package rtc

import (
	"fmt"

	"github.com/dkeye/Talk/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Provider hands browsers the ICE configuration for their mesh peer connections.
// Media never touches the server; this is all it knows about WebRTC.
type Provider struct {
	cfg webrtc.Configuration
}

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func NewProvider(servers []config.ICEServer) *Provider {
	if len(servers) == 0 {
		return &Provider{cfg: DefaultWebRTCConfig()}
	}
	return &Provider{cfg: webrtc.Configuration{
		ICEServers: lo.Map(servers, func(s config.ICEServer, _ int) webrtc.ICEServer {
			srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
			if s.Credential != "" {
				srv.Credential = s.Credential
			}
			return srv
		}),
	}}
}

func (p *Provider) Configuration() webrtc.Configuration { return p.cfg }

// Validate builds a throwaway peer connection so malformed ICE URLs fail at startup.
func (p *Provider) Validate() error {
	pc, err := webrtc.NewPeerConnection(p.cfg)
	if err != nil {
		return fmt.Errorf("ice servers: %w", err)
	}
	if err := pc.Close(); err != nil {
		log.Warn().Err(err).Str("module", "rtc").Msg("close probe connection")
	}
	log.Info().Str("module", "rtc").Int("servers", len(p.cfg.ICEServers)).Msg("ice configuration ok")
	return nil
}

// ClientServers is the RTCIceServer list as browsers expect it.
func (p *Provider) ClientServers() []map[string]any {
	return lo.Map(p.cfg.ICEServers, func(s webrtc.ICEServer, _ int) map[string]any {
		out := map[string]any{"urls": s.URLs}
		if s.Username != "" {
			out["username"] = s.Username
		}
		if s.Credential != "" {
			out["credential"] = s.Credential
		}
		return out
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	req := require.New(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	req.NoError(err)

	req.Equal("release", cfg.Mode)
	req.Equal(8080, cfg.Port)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(32, cfg.SendBuffer)
	req.Equal(5*time.Second, cfg.PersistTimeout)
	req.Equal("disconnect", cfg.Backpressure)
	req.Equal(cfg.Secret, cfg.JWTSecret)
	req.Equal([]string{"*"}, cfg.CORSAllow)
	req.Len(cfg.ICEServers, 1)
	req.Equal([]string{"stun:stun.l.google.com:19302"}, cfg.ICEServers[0].URLs)
}

func TestLoadFile_FileAndEnv(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	req.NoError(os.WriteFile(path, []byte(`
mode: debug
port: 9000
jwt_secret: from-file
backpressure: drop
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: u
    credential: p
`), 0o600))
	t.Setenv("TALK_PORT", "9100")
	t.Setenv("TALK_REDIS_ADDR", "localhost:6379")

	cfg, err := LoadFile(path)
	req.NoError(err)
	req.Equal("debug", cfg.Mode)
	req.Equal(9100, cfg.Port)
	req.Equal("localhost:6379", cfg.RedisAddr)
	req.Equal("from-file", cfg.JWTSecret)
	req.Equal("drop", cfg.Backpressure)
	req.Len(cfg.ICEServers, 1)
	req.Equal("u", cfg.ICEServers[0].Username)
	req.Equal([]string{"turn:turn.example.com:3478"}, cfg.ICEServers[0].URLs)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	c := l.Get()
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 5*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, timer.DefaultSeconds, c.Timer.Seconds())
	assert.Equal(t, time.Second, c.Timer.Tick)
	assert.Equal(t, "P1", c.Tournament.FirstPlayer)
	assert.Equal(t, "Team 1", c.Tournament.TeamNames.P1)
	assert.Equal(t, 16, c.Hub.OutboxSize)
	assert.False(t, c.Broadcast.Redis.Enabled())
	assert.Equal(t, "valdraft:snapshots", c.Broadcast.Redis.Channel)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
log:
  format: console
timer:
  default_seconds: 45
  tick: 500ms
tournament:
  first_player: P2
  team_names:
    p1: Sentinels
    p2: Fnatic
broadcast:
  redis:
    addr: localhost:6379
    db: 2
`)

	l, err := Load(path)
	require.NoError(t, err)

	c := l.Get()
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, 45, c.Timer.Seconds())
	assert.Equal(t, 500*time.Millisecond, c.Timer.Tick)
	assert.True(t, c.Broadcast.Redis.Enabled())
	assert.Equal(t, 2, c.Broadcast.Redis.DB)

	ec := c.Tournament.Engine()
	assert.Equal(t, engine.PlayerTwo, ec.FirstPlayer)
	assert.Equal(t, engine.TeamNames{P1: "Sentinels", P2: "Fnatic"}, ec.TeamNames)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("VALDRAFT_SERVER_ADDR", ":7070")
	t.Setenv("VALDRAFT_TIMER_DEV_MODE", "true")
	t.Setenv("VALDRAFT_TOURNAMENT_FIRST_PLAYER", "P2")

	l, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	c := l.Get()
	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, timer.DevSeconds, c.Timer.Seconds())
	assert.Equal(t, "P2", c.Tournament.FirstPlayer)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Addr: ":8080", ShutdownTimeout: time.Second},
			Log:        LogConfig{Level: "info", Format: "json"},
			Timer:      TimerConfig{DefaultSeconds: 30, Tick: time.Second},
			Tournament: TournamentConfig{FirstPlayer: "P1"},
			Hub:        HubConfig{OutboxSize: 16},
		}
	}
	require.NoError(t, Validate(valid()))

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero timer", func(c *Config) { c.Timer.DefaultSeconds = 0 }},
		{"zero tick", func(c *Config) { c.Timer.Tick = 0 }},
		{"bad first player", func(c *Config) { c.Tournament.FirstPlayer = "P3" }},
		{"zero outbox", func(c *Config) { c.Hub.OutboxSize = 0 }},
		{"negative redis db", func(c *Config) { c.Broadcast.Redis.DB = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, Validate(c))
		})
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
tournament:
  first_player: P3
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "first_player")
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
	"github.com/DoyleJ11/val-draft-backend/internal/timer"
)

const EnvPrefix = "VALDRAFT"

// Config holds all configuration for the server
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Timer      TimerConfig      `mapstructure:"timer"`
	Tournament TournamentConfig `mapstructure:"tournament"`
	Hub        HubConfig        `mapstructure:"hub"`
	Broadcast  BroadcastConfig  `mapstructure:"broadcast"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// TimerConfig holds the per-turn countdown settings
type TimerConfig struct {
	DefaultSeconds int           `mapstructure:"default_seconds"`
	DevMode        bool          `mapstructure:"dev_mode"`
	Tick           time.Duration `mapstructure:"tick"`
}

// Seconds is the countdown length a turn starts with.
func (t TimerConfig) Seconds() int {
	if t.DevMode {
		return timer.DevSeconds
	}
	return t.DefaultSeconds
}

type TournamentConfig struct {
	FirstPlayer string          `mapstructure:"first_player"`
	TeamNames   TeamNamesConfig `mapstructure:"team_names"`
}

type TeamNamesConfig struct {
	P1 string `mapstructure:"p1"`
	P2 string `mapstructure:"p2"`
}

// Engine converts the tournament section into the engine's overrides.
func (t TournamentConfig) Engine() engine.Config {
	return engine.Config{
		FirstPlayer: engine.Player(t.FirstPlayer),
		TeamNames:   engine.TeamNames{P1: t.TeamNames.P1, P2: t.TeamNames.P2},
	}
}

type HubConfig struct {
	OutboxSize int `mapstructure:"outbox_size"`
}

type BroadcastConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the snapshot sink settings; an empty Addr disables it
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// Loader owns the viper instance behind a Config.
type Loader struct {
	mu  sync.RWMutex
	v   *viper.Viper
	cfg *Config
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("timer.default_seconds", timer.DefaultSeconds)
	v.SetDefault("timer.dev_mode", false)
	v.SetDefault("timer.tick", time.Second)

	v.SetDefault("tournament.first_player", string(engine.PlayerOne))
	v.SetDefault("tournament.team_names.p1", "Team 1")
	v.SetDefault("tournament.team_names.p2", "Team 2")

	v.SetDefault("hub.outbox_size", 16)

	v.SetDefault("broadcast.redis.addr", "")
	v.SetDefault("broadcast.redis.password", "")
	v.SetDefault("broadcast.redis.db", 0)
	v.SetDefault("broadcast.redis.channel", "valdraft:snapshots")
}

// Load reads defaults, then the config file (if any), then VALDRAFT_*
// environment variables. A missing file is not an error.
func Load(configPath string) (*Loader, error) {
	v := viper.New()
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case configPath != "" && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Loader{v: v, cfg: cfg}, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Get returns a copy of the current configuration.
func (l *Loader) Get() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.cfg
}

// Watch reloads the file on change. An invalid edit is reported to onError
// and the previous configuration stays in effect.
func (l *Loader) Watch(onChange func(Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(l.v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		l.mu.Lock()
		l.cfg = cfg
		l.mu.Unlock()
		if onChange != nil {
			onChange(*cfg)
		}
	})
	l.v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Timer.DefaultSeconds <= 0 {
		return fmt.Errorf("timer.default_seconds must be positive")
	}
	if c.Timer.Tick <= 0 {
		return fmt.Errorf("timer.tick must be positive")
	}
	if !engine.Player(c.Tournament.FirstPlayer).Valid() {
		return fmt.Errorf("tournament.first_player must be P1 or P2, got %q", c.Tournament.FirstPlayer)
	}
	if c.Hub.OutboxSize <= 0 {
		return fmt.Errorf("hub.outbox_size must be positive")
	}
	if c.Broadcast.Redis.DB < 0 {
		return fmt.Errorf("broadcast.redis.db must be non-negative")
	}
	return nil
}

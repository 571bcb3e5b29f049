package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DUET"

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	PublicURL  string        `mapstructure:"public_url"`
	LogLevel   string        `mapstructure:"log_level"`

	ICEServers []string   `mapstructure:"ice_servers"`
	TURN       TURNConfig `mapstructure:"turn"`

	Call  CallConfig  `mapstructure:"call"`
	Media MediaConfig `mapstructure:"media"`

	// Room and Signal pre-fill the rendezvous slot, as if this instance was
	// opened through a share link.
	Room   string `mapstructure:"room"`
	Signal string `mapstructure:"signal"`
}

type TURNConfig struct {
	Username   string `mapstructure:"username"`
	Credential string `mapstructure:"credential"`
}

type CallConfig struct {
	AutoConnectDelay   time.Duration `mapstructure:"auto_connect_delay"`
	StatusPollInterval time.Duration `mapstructure:"status_poll_interval"`
	SignalRateLimit    int           `mapstructure:"signal_rate_limit"`
	SignalRateInterval time.Duration `mapstructure:"signal_rate_interval"`
}

type MediaConfig struct {
	Audio bool `mapstructure:"audio"`
	Video bool `mapstructure:"video"`
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then DUET_*
// variables, then args. Later sources win.
func Load(args []string) (*Config, error) {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("public_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("ice_servers", []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
	})
	v.SetDefault("turn.username", "")
	v.SetDefault("turn.credential", "")
	v.SetDefault("call.auto_connect_delay", "500ms")
	v.SetDefault("call.status_poll_interval", "1s")
	v.SetDefault("call.signal_rate_limit", 5)
	v.SetDefault("call.signal_rate_interval", "10s")
	v.SetDefault("media.audio", true)
	v.SetDefault("media.video", true)
	v.SetDefault("room", "")
	v.SetDefault("signal", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("duet", pflag.ContinueOnError)
	fs.String("room", "", "room token to join as responder")
	fs.String("signal", "", "peer code to answer, used together with --room")
	fs.Int("port", 0, "http listen port")
	fs.String("mode", "", "gin mode: debug, release or test")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	for _, name := range []string{"room", "signal", "port", "mode"} {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d/join", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("mode: unknown %q", c.Mode)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port: %d out of range", c.Port)
	}
	if c.Mode == "release" && strings.TrimSpace(c.Secret) == "" {
		return errors.New("secret: required in release mode")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	u, err := url.Parse(c.PublicURL)
	if err != nil {
		return fmt.Errorf("public_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("public_url: %q must be absolute", c.PublicURL)
	}
	if err := c.validateICE(); err != nil {
		return err
	}
	if c.Call.AutoConnectDelay <= 0 {
		return errors.New("call.auto_connect_delay: must be positive")
	}
	if c.Call.StatusPollInterval <= 0 {
		return errors.New("call.status_poll_interval: must be positive")
	}
	if c.Call.SignalRateLimit <= 0 || c.Call.SignalRateInterval <= 0 {
		return errors.New("call.signal_rate_limit and call.signal_rate_interval: must be positive")
	}
	return nil
}

func (c *Config) validateICE() error {
	needsTURN := false
	for i, raw := range c.ICEServers {
		u := strings.TrimSpace(raw)
		if u == "" {
			return fmt.Errorf("ice_servers[%d]: empty entry", i)
		}
		switch {
		case strings.HasPrefix(u, "stun:"), strings.HasPrefix(u, "stuns:"):
		case strings.HasPrefix(u, "turn:"), strings.HasPrefix(u, "turns:"):
			needsTURN = true
		default:
			return fmt.Errorf("ice_servers[%d]: unsupported url scheme: %q", i, u)
		}
	}
	if needsTURN && (strings.TrimSpace(c.TURN.Username) == "" || strings.TrimSpace(c.TURN.Credential) == "") {
		return errors.New("turn: username and credential are required for turn urls")
	}
	return nil
}

// Level is the configured log level; Validate has already checked it.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

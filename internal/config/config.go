package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string `mapstructure:"mode"`
	BindAddress string `mapstructure:"bind_address"`

	// Frame admission.
	MaxFrameBytes         int `mapstructure:"max_frame_bytes"`
	MaxSignalPayloadBytes int `mapstructure:"max_signal_payload_bytes"`

	// Per-room history bounds.
	ChatHistoryLimit  int `mapstructure:"chat_history_limit"`
	PollLimit         int `mapstructure:"poll_limit"`
	QuestionLimit     int `mapstructure:"question_limit"`
	ReactionRingLimit int `mapstructure:"reaction_ring_limit"`

	// Capacity.
	MaxMembersPerRoom int `mapstructure:"max_members_per_room"`
	MaxRooms          int `mapstructure:"max_rooms"`
	MaxSessions       int `mapstructure:"max_sessions"`

	// Heartbeats and egress.
	PingInterval         time.Duration `mapstructure:"ping_interval"`
	PongTimeout          time.Duration `mapstructure:"pong_timeout"`
	EgressCapacityFrames int           `mapstructure:"egress_capacity_frames"`
	EgressCapacityBytes  int64         `mapstructure:"egress_capacity_bytes"`

	// Per-session rate budgets, all over the same sliding window.
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	RateLimitGeneral   int           `mapstructure:"rate_limit_general"`
	RateLimitChat      int           `mapstructure:"rate_limit_chat"`
	RateLimitReactions int           `mapstructure:"rate_limit_reactions"`

	// Behavior toggles.
	RelayUnknownPeerError bool `mapstructure:"relay_unknown_peer_error"`

	// Shutdown.
	ShutdownDrain time.Duration `mapstructure:"shutdown_drain"`

	// JoinSecret enables the JWT join gate when non-empty. Comes from
	// the environment, never from a checked-in file.
	JoinSecret string `mapstructure:"join_secret"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("bind_address", ":8080")
	v.SetDefault("max_frame_bytes", 16384)
	v.SetDefault("max_signal_payload_bytes", 65536)
	v.SetDefault("chat_history_limit", 500)
	v.SetDefault("poll_limit", 50)
	v.SetDefault("question_limit", 200)
	v.SetDefault("reaction_ring_limit", 100)
	v.SetDefault("max_members_per_room", 200)
	v.SetDefault("max_rooms", 10000)
	v.SetDefault("max_sessions", 50000)
	v.SetDefault("ping_interval", "20s")
	v.SetDefault("pong_timeout", "10s")
	v.SetDefault("egress_capacity_frames", 256)
	v.SetDefault("egress_capacity_bytes", 1048576)
	v.SetDefault("rate_limit_window", "10s")
	v.SetDefault("rate_limit_general", 30)
	v.SetDefault("rate_limit_chat", 10)
	v.SetDefault("rate_limit_reactions", 20)
	v.SetDefault("relay_unknown_peer_error", true)
	v.SetDefault("shutdown_drain", "2s")
	v.SetDefault("join_secret", "")

	v.BindEnv("join_secret", "JOIN_SECRET")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fmt.Printf("🧩 Mode: %s | Bind: %s\n", cfg.Mode, cfg.BindAddress)
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxFrameBytes < 1024 {
		return fmt.Errorf("max_frame_bytes too small: %d", c.MaxFrameBytes)
	}
	if c.MaxSignalPayloadBytes < c.MaxFrameBytes {
		return fmt.Errorf("max_signal_payload_bytes (%d) below max_frame_bytes (%d)", c.MaxSignalPayloadBytes, c.MaxFrameBytes)
	}
	if c.MaxMembersPerRoom < 2 {
		return fmt.Errorf("max_members_per_room too small: %d", c.MaxMembersPerRoom)
	}
	if c.PingInterval <= 0 || c.PongTimeout <= 0 {
		return fmt.Errorf("ping_interval and pong_timeout must be positive")
	}
	if c.EgressCapacityFrames < 1 || c.EgressCapacityBytes < int64(c.MaxSignalPayloadBytes) {
		return fmt.Errorf("egress capacity cannot hold a single signal frame")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive")
	}
	return nil
}

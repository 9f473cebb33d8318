package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	RecordingsDir  string        `mapstructure:"recordings_dir"`
	TranscriptsDir string        `mapstructure:"transcripts_dir"`
	TrackGrace     time.Duration `mapstructure:"track_grace"`
	BridgeTimeout  time.Duration `mapstructure:"bridge_timeout"`
	TaskQueueSize  int           `mapstructure:"task_queue_size"`
	TranscriberURL string        `mapstructure:"transcriber_url"`
	EventsFile     string        `mapstructure:"events_file"`
}

func Load() (*Config, error) {
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
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("recordings_dir", "./recordings")
	v.SetDefault("transcripts_dir", "./transcripts")
	v.SetDefault("track_grace", "3s")
	v.SetDefault("bridge_timeout", "30s")
	v.SetDefault("task_queue_size", 32)
	v.SetDefault("transcriber_url", "")
	v.SetDefault("events_file", "./config/events.json")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Recordings: %s\n", cfg.Mode, cfg.Port, cfg.RecordingsDir)
	return &cfg, nil
}

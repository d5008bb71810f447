package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode              string        `mapstructure:"mode"`
	Port              int           `mapstructure:"port"`
	StaticPath        string        `mapstructure:"static_path"`
	VideoDir          string        `mapstructure:"video_dir"`
	MaxParticipants   int           `mapstructure:"max_participants"`
	MaxStorageBytes   int64         `mapstructure:"max_storage_bytes"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
	RetentionAge      time.Duration `mapstructure:"retention_age"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	BroadcastDebounce time.Duration `mapstructure:"broadcast_debounce"`
	ProgressInterval  time.Duration `mapstructure:"progress_interval"`
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
	v.SetDefault("port", 8443)
	v.SetDefault("static_path", "./web")
	v.SetDefault("video_dir", "./videos")
	v.SetDefault("max_participants", 2)
	v.SetDefault("max_storage_bytes", int64(16)<<30)
	v.SetDefault("max_upload_bytes", int64(16)<<30)
	v.SetDefault("retention_age", "168h")
	v.SetDefault("sweep_interval", "1h")
	v.SetDefault("call_timeout", "30s")
	v.SetDefault("broadcast_debounce", "500ms")
	v.SetDefault("progress_interval", "500ms")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Videos: %s\n", cfg.Mode, cfg.Port, cfg.VideoDir)
	return &cfg, nil
}

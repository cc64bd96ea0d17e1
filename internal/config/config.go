// Package config loads the process configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every recognized option and its effect on the pipeline.
type Config struct {
	FoscamRoot    string `yaml:"foscam_root"`
	ThumbnailRoot string `yaml:"thumbnail_root"`
	DatabaseURL   string `yaml:"database_url"`

	QueueCapacity int `yaml:"queue_capacity"`
	WorkerCount   int `yaml:"worker_count"`

	DescriberImageTimeoutS int `yaml:"describer_image_timeout_s"`
	DescriberVideoTimeoutS int `yaml:"describer_video_timeout_s"`

	WatcherRediscoveryS int `yaml:"watcher_rediscovery_s"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns the configuration used when no YAML file or
// environment override is present.
func Defaults() Config {
	return Config{
		ThumbnailRoot:          "./thumbnails",
		DatabaseURL:            "postgres://localhost:5432/foscam_ingest?sslmode=disable",
		QueueCapacity:          64,
		WorkerCount:            1,
		DescriberImageTimeoutS: 60,
		DescriberVideoTimeoutS: 180,
		WatcherRediscoveryS:    60,
		LogLevel:               "info",
	}
}

// Load reads path (if present) over the defaults, then applies env-var
// overrides. A missing file is not an error: callers may run entirely off
// environment variables, matching how cmd/server in the teacher tolerates a
// missing config/default.yaml.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FOSCAM_ROOT"); v != "" {
		cfg.FoscamRoot = v
	}
	if v := os.Getenv("THUMBNAIL_ROOT"); v != "" {
		cfg.ThumbnailRoot = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := envInt("QUEUE_CAPACITY"); v != nil {
		cfg.QueueCapacity = *v
	}
	if v := envInt("WORKER_COUNT"); v != nil {
		cfg.WorkerCount = *v
	}
	if v := envInt("DESCRIBER_IMAGE_TIMEOUT_S"); v != nil {
		cfg.DescriberImageTimeoutS = *v
	}
	if v := envInt("DESCRIBER_VIDEO_TIMEOUT_S"); v != nil {
		cfg.DescriberVideoTimeoutS = *v
	}
	if v := envInt("WATCHER_REDISCOVERY_S"); v != nil {
		cfg.WatcherRediscoveryS = *v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func envInt(key string) *int {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &i
}

// ImageTimeout and VideoTimeout convert the configured seconds to durations
// used as the describer-serializer lock's per-call deadline.
func (c Config) ImageTimeout() time.Duration {
	return time.Duration(c.DescriberImageTimeoutS) * time.Second
}

func (c Config) VideoTimeout() time.Duration {
	return time.Duration(c.DescriberVideoTimeoutS) * time.Second
}

func (c Config) WatcherRediscoveryInterval() time.Duration {
	return time.Duration(c.WatcherRediscoveryS) * time.Second
}

package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Scheduler SchedulerConfig
	Exporter  ExporterConfig
	Redis     RedisConfig
	Archive   ArchiveConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type SchedulerConfig struct {
	ConcurrencyLimit int
	RetentionWindow  time.Duration
	AutoEvict        bool
}

type ExporterConfig struct {
	StepDelay time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ArchiveConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("scheduler.concurrency_limit", 2)
	viper.SetDefault("scheduler.retention_seconds", 300)
	viper.SetDefault("scheduler.auto_evict", true)
	viper.SetDefault("exporter.step_delay_ms", 500)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("archive.enabled", false)
	viper.SetDefault("archive.ttl_hours", 24)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Scheduler: SchedulerConfig{
			ConcurrencyLimit: viper.GetInt("scheduler.concurrency_limit"),
			RetentionWindow:  time.Duration(viper.GetInt("scheduler.retention_seconds")) * time.Second,
			AutoEvict:        viper.GetBool("scheduler.auto_evict"),
		},
		Exporter: ExporterConfig{
			StepDelay: time.Duration(viper.GetInt("exporter.step_delay_ms")) * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Archive: ArchiveConfig{
			Enabled: viper.GetBool("archive.enabled"),
			TTL:     time.Duration(viper.GetInt("archive.ttl_hours")) * time.Hour,
		},
	}

	return cfg, nil
}

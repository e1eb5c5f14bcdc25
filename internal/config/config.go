package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Remote
		Connectivity
		Sync
		Query
		Tasks
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Remote struct {
		URL               string
		APIKey            string
		RealtimeURL       string
		Timeout           time.Duration
		RequestsPerSecond float64
		Burst             int
	}
	Connectivity struct {
		ProbeURL     string
		Timeout      time.Duration
		PollInterval time.Duration
	}
	Sync struct {
		Debounce        time.Duration
		Schedule        string // Cron format: "*/30 * * * *" = every 30 minutes
		ScheduleEnabled bool
		RealtimeEnabled bool
		PruneMissing    bool // Delete local mirror rows the remote no longer has
	}
	Query struct {
		DefaultLanguage  string
		FallbackLanguage string
		LatestPageSize   int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Log struct {
		Debug bool
		Dir   string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Remote dataset defaults
	v.SetDefault("remote_url", "")
	v.SetDefault("remote_api_key", "")
	v.SetDefault("remote_realtime_url", "")
	v.SetDefault("remote_timeout", "30s")
	v.SetDefault("remote_requests_per_second", 5)
	v.SetDefault("remote_burst", 5)

	// Connectivity defaults
	v.SetDefault("connectivity_probe_url", "https://clients3.google.com/generate_204")
	v.SetDefault("connectivity_timeout", "5s")
	v.SetDefault("connectivity_poll_interval", "10s")

	// Sync defaults
	v.SetDefault("sync_debounce", "3s")
	v.SetDefault("sync_schedule", "*/30 * * * *")
	v.SetDefault("sync_schedule_enabled", true)
	v.SetDefault("sync_realtime_enabled", true)
	v.SetDefault("sync_prune_missing", true)

	// Query defaults
	v.SetDefault("default_language", "DE")
	v.SetDefault("fallback_language", "EN")
	v.SetDefault("latest_page_size", 20)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("log_debug", false)
	v.SetDefault("log_dir", DefaultLogDir)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Remote: Remote{
			URL:               v.GetString("REMOTE_URL"),
			APIKey:            v.GetString("REMOTE_API_KEY"),
			RealtimeURL:       v.GetString("REMOTE_REALTIME_URL"),
			Timeout:           v.GetDuration("REMOTE_TIMEOUT"),
			RequestsPerSecond: v.GetFloat64("REMOTE_REQUESTS_PER_SECOND"),
			Burst:             v.GetInt("REMOTE_BURST"),
		},
		Connectivity: Connectivity{
			ProbeURL:     v.GetString("CONNECTIVITY_PROBE_URL"),
			Timeout:      v.GetDuration("CONNECTIVITY_TIMEOUT"),
			PollInterval: v.GetDuration("CONNECTIVITY_POLL_INTERVAL"),
		},
		Sync: Sync{
			Debounce:        v.GetDuration("SYNC_DEBOUNCE"),
			Schedule:        v.GetString("SYNC_SCHEDULE"),
			ScheduleEnabled: v.GetBool("SYNC_SCHEDULE_ENABLED"),
			RealtimeEnabled: v.GetBool("SYNC_REALTIME_ENABLED"),
			PruneMissing:    v.GetBool("SYNC_PRUNE_MISSING"),
		},
		Query: Query{
			DefaultLanguage:  v.GetString("DEFAULT_LANGUAGE"),
			FallbackLanguage: v.GetString("FALLBACK_LANGUAGE"),
			LatestPageSize:   v.GetInt("LATEST_PAGE_SIZE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			Debug: v.GetBool("LOG_DEBUG"),
			Dir:   v.GetString("LOG_DIR"),
		},
	}
}

// RealtimeEndpoint returns the configured realtime endpoint, deriving a
// websocket URL from the REST URL when none was set explicitly.
func (r Remote) RealtimeEndpoint() string {
	if r.RealtimeURL != "" {
		return r.RealtimeURL
	}
	base := strings.TrimSuffix(r.URL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/realtime/v1/websocket"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/realtime/v1/websocket"
	}
	return ""
}

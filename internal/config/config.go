package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single local account, no credentials (default)
	AuthModeToken AuthMode = "token" // Bearer API token per account
)

type (
	Config struct {
		HTTP
		Global
		Database
		Uploads
		Import
		Redis
		Tasks
		Auth
	}

	HTTP struct {
		Port        int32
		Host        string
		MaxUploadMB int64
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Uploads struct {
		Dir string
	}
	Import struct {
		ProgressInterval int
		SourceLabel      string
		ScanBudgetMB     int64
		ClassifierConfig string        // YAML file overriding the built-in tables
		StaleAfter       time.Duration // Processing jobs idle this long are failed
		SweepSchedule    string        // Cron format: "*/10 * * * *" = every 10 minutes
	}
	Redis struct {
		Addr        string // Empty disables the progress mirror
		Password    string
		DB          int
		ProgressTTL time.Duration
	}
	Tasks struct {
		Enabled           bool
		ConcurrentImports int
		ImportTimeout     time.Duration
		ReleaseGrace      time.Duration
		CleanupInterval   time.Duration
	}
	Auth struct {
		Mode             AuthMode
		DefaultUserName  string
		DefaultUserEmail string
	}
)

// NewConfig reads configuration from the environment, after loading an
// optional .env file from the working directory.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("max_upload_mb", 512)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("upload_dir", DefaultUploadDir)

	// Import defaults
	v.SetDefault("import_progress_interval", 25)
	v.SetDefault("import_source_label", DefaultSourceLabel)
	v.SetDefault("import_scan_budget_mb", 100)
	v.SetDefault("classifier_config", "")
	v.SetDefault("import_stale_after", "30m")
	v.SetDefault("import_sweep_schedule", "*/10 * * * *")

	// Redis defaults
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_progress_ttl", "24h")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_concurrent_imports", 1)
	v.SetDefault("task_timeout", "2h")
	v.SetDefault("task_release_grace", "10m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("default_user_name", "local")
	v.SetDefault("default_user_email", "local@localhost")

	return &Config{
		HTTP: HTTP{
			Port:        v.GetInt32("PORT"),
			Host:        v.GetString("HOST"),
			MaxUploadMB: v.GetInt64("MAX_UPLOAD_MB"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Uploads: Uploads{
			Dir: v.GetString("UPLOAD_DIR"),
		},
		Import: Import{
			ProgressInterval: v.GetInt("IMPORT_PROGRESS_INTERVAL"),
			SourceLabel:      v.GetString("IMPORT_SOURCE_LABEL"),
			ScanBudgetMB:     v.GetInt64("IMPORT_SCAN_BUDGET_MB"),
			ClassifierConfig: v.GetString("CLASSIFIER_CONFIG"),
			StaleAfter:       v.GetDuration("IMPORT_STALE_AFTER"),
			SweepSchedule:    v.GetString("IMPORT_SWEEP_SCHEDULE"),
		},
		Redis: Redis{
			Addr:        v.GetString("REDIS_ADDR"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			ProgressTTL: v.GetDuration("REDIS_PROGRESS_TTL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			ConcurrentImports: v.GetInt("TASK_CONCURRENT_IMPORTS"),
			ImportTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseGrace:      v.GetDuration("TASK_RELEASE_GRACE"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			DefaultUserName:  v.GetString("DEFAULT_USER_NAME"),
			DefaultUserEmail: v.GetString("DEFAULT_USER_EMAIL"),
		},
	}
}

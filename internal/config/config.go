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
		Audit
		Source
		Backend
		Sync
		Classifier
		Tasks
		Wikipedia
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
	Audit struct {
		Dir           string // Harvest snapshots; empty disables them
		RetentionDays int    // Days to keep audit events (default: 90)
	}
	// Source is the OAI-PMH repository the catalog is harvested from.
	Source struct {
		BaseURL        string
		Set            string
		MetadataPrefix string
		PageDelay      time.Duration
		Timeout        time.Duration
	}
	// Backend is the Strapi instance books are written to.
	Backend struct {
		URL        string
		Token      string
		WriteDelay time.Duration
		Timeout    time.Duration
	}
	Sync struct {
		InitialDays  int
		StateBackend string // "database" or "file"
		StateFile    string
		Enabled      bool
		Schedule     string // Cron format: "0 3 * * *" = nightly at 03:00

		CleanupSchedule string // History cleanup, needs the task queue
	}
	Classifier struct {
		TaxonomyFile string // Empty uses the built-in tables
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Wikipedia struct {
		Languages []string
		Delay     time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 90)

	// OAI-PMH source defaults
	v.SetDefault("oai_base_url", "http://web2.mlp.cz/cgi/oai")
	v.SetDefault("oai_set", "ebook")
	v.SetDefault("oai_metadata_prefix", "marc21")
	v.SetDefault("oai_page_delay", "1500ms")
	v.SetDefault("oai_timeout", "30s")

	// Strapi defaults
	v.SetDefault("strapi_url", "http://localhost:1337")
	v.SetDefault("strapi_token", "")
	v.SetDefault("strapi_write_delay", "400ms")
	v.SetDefault("strapi_timeout", "20s")

	// Sync defaults
	v.SetDefault("sync_initial_days", 7)
	v.SetDefault("sync_state_backend", StateBackendDatabase)
	v.SetDefault("sync_state_file", DefaultStateFilePath)
	v.SetDefault("sync_enabled", false)
	v.SetDefault("sync_schedule", "0 3 * * *") // Nightly at 03:00
	v.SetDefault("sync_cleanup_schedule", "30 4 * * *")

	v.SetDefault("classifier_taxonomy_file", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "2h")
	v.SetDefault("task_release_after", "3h")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "168h")

	v.SetDefault("wiki_languages", "cs,en")
	v.SetDefault("wiki_delay", "400ms")

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
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Source: Source{
			BaseURL:        v.GetString("OAI_BASE_URL"),
			Set:            v.GetString("OAI_SET"),
			MetadataPrefix: v.GetString("OAI_METADATA_PREFIX"),
			PageDelay:      v.GetDuration("OAI_PAGE_DELAY"),
			Timeout:        v.GetDuration("OAI_TIMEOUT"),
		},
		Backend: Backend{
			URL:        v.GetString("STRAPI_URL"),
			Token:      v.GetString("STRAPI_TOKEN"),
			WriteDelay: v.GetDuration("STRAPI_WRITE_DELAY"),
			Timeout:    v.GetDuration("STRAPI_TIMEOUT"),
		},
		Sync: Sync{
			InitialDays:  v.GetInt("SYNC_INITIAL_DAYS"),
			StateBackend: strings.ToLower(v.GetString("SYNC_STATE_BACKEND")),
			StateFile:    v.GetString("SYNC_STATE_FILE"),
			Enabled:      v.GetBool("SYNC_ENABLED"),
			Schedule:     v.GetString("SYNC_SCHEDULE"),

			CleanupSchedule: v.GetString("SYNC_CLEANUP_SCHEDULE"),
		},
		Classifier: Classifier{
			TaxonomyFile: v.GetString("CLASSIFIER_TAXONOMY_FILE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Wikipedia: Wikipedia{
			Languages: splitList(v.GetString("WIKI_LANGUAGES")),
			Delay:     v.GetDuration("WIKI_DELAY"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

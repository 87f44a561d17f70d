package tasks

import (
	"time"

	"github.com/mrlokans/eknihy-sync/internal/config"
)

// Config holds the queue settings.
type Config struct {
	// Workers is the number of concurrent workers. A catalog sync is strictly
	// sequential, so one worker is the default.
	Workers int

	// MaxRetries applies to retryable tasks. Default: 3
	MaxRetries int

	// RetryDelay is the backoff between retries. Default: 1m
	RetryDelay time.Duration

	// TaskTimeout bounds a single task. Default: 2h
	TaskTimeout time.Duration

	// ReleaseAfter returns stuck tasks to the queue. Default: 3h
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are purged. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks are kept. Default: 168h
	RetentionDuration time.Duration
}

// DefaultConfig returns the defaults listed on Config.
func DefaultConfig() Config {
	return Config{
		Workers:           1,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       2 * time.Hour,
		ReleaseAfter:      3 * time.Hour,
		CleanupInterval:   time.Hour,
		RetentionDuration: 7 * 24 * time.Hour,
	}
}

// FromSettings converts the application settings, keeping defaults for
// zero values.
func FromSettings(s config.Tasks) Config {
	cfg := DefaultConfig()
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.MaxRetries > 0 {
		cfg.MaxRetries = s.MaxRetries
	}
	if s.RetryDelay > 0 {
		cfg.RetryDelay = s.RetryDelay
	}
	if s.TaskTimeout > 0 {
		cfg.TaskTimeout = s.TaskTimeout
	}
	if s.ReleaseAfter > 0 {
		cfg.ReleaseAfter = s.ReleaseAfter
	}
	if s.CleanupInterval > 0 {
		cfg.CleanupInterval = s.CleanupInterval
	}
	if s.RetentionDuration > 0 {
		cfg.RetentionDuration = s.RetentionDuration
	}
	return cfg
}

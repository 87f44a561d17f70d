package config

// Default paths for local state
const (
	// DefaultDatabasePath is the default path for the service database
	DefaultDatabasePath = "./eknihy-sync.db"

	// DefaultStateFilePath is where the file backend keeps the sync watermark
	DefaultStateFilePath = "./mlp_sync_state.json"
)

// Sync state backends
const (
	StateBackendDatabase = "database"
	StateBackendFile     = "file"
)

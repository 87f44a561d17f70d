package syncstate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/eknihy-sync/internal/config"
	dbstate "github.com/mrlokans/eknihy-sync/internal/database/syncstate"
	"github.com/mrlokans/eknihy-sync/internal/entities"
)

// Store loads and saves the sync watermark.
type Store interface {
	Load(ctx context.Context) (*entities.SyncState, error)
	Save(ctx context.Context, state *entities.SyncState) error
}

// Open selects the state backend named in the sync settings. db may be nil
// for the file backend.
func Open(cfg config.Sync, db *gorm.DB) (Store, error) {
	switch cfg.StateBackend {
	case "", config.StateBackendDatabase:
		if db == nil {
			return nil, fmt.Errorf("state backend %q needs the service database", config.StateBackendDatabase)
		}
		return dbstate.NewRepository(db, entities.DefaultFeedKey), nil
	case config.StateBackendFile:
		path := cfg.StateFile
		if path == "" {
			path = config.DefaultStateFilePath
		}
		return NewFileStore(path), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

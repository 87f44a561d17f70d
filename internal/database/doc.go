// Package database provides the service's local persistence: the sync
// watermark, run progress and the audit trail.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── syncstate/       # Watermark per feed (services.StateStore)
//	├── sync/            # Run progress per job type
//	└── audit/           # Audit events
//
// Each sub-package provides a Repository with a NewRepository(db *gorm.DB)
// constructor:
//
//	db, err := database.NewDatabase("./eknihy-sync.db", false)
//	stateRepo := syncstate.NewRepository(db.DB, entities.DefaultFeedKey)
//	state, err := stateRepo.Load(ctx)
//
// The content itself (books, authors, categories) lives in the CMS and is
// never stored here.
package database

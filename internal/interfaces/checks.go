package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/eknihy-sync/internal/audit"
	"github.com/mrlokans/eknihy-sync/internal/classifier"
	"github.com/mrlokans/eknihy-sync/internal/database"
	"github.com/mrlokans/eknihy-sync/internal/database/sync"
	dbstate "github.com/mrlokans/eknihy-sync/internal/database/syncstate"
	"github.com/mrlokans/eknihy-sync/internal/http"
	"github.com/mrlokans/eknihy-sync/internal/identity"
	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/metadata"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
	"github.com/mrlokans/eknihy-sync/internal/scheduler"
	"github.com/mrlokans/eknihy-sync/internal/services"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
	"github.com/mrlokans/eknihy-sync/internal/syncstate"
	"github.com/mrlokans/eknihy-sync/internal/tasks"
)

// =============================================================================
// Content Backend
// =============================================================================

var _ importers.Backend = (*strapi.Client)(nil)
var _ services.Backend = (*strapi.Client)(nil)
var _ identity.Lister = (*strapi.Client)(nil)
var _ metadata.AuthorStore = (*strapi.Client)(nil)

// =============================================================================
// Source Repository
// =============================================================================

var _ services.Harvester = (*oaipmh.Harvester)(nil)
var _ services.RecordFetcher = (*oaipmh.Client)(nil)

// =============================================================================
// Classification
// =============================================================================

var _ importers.Categorizer = (*classifier.Classifier)(nil)
var _ services.ForeignAuthorDetector = (*classifier.Classifier)(nil)

// =============================================================================
// State, Progress and Audit
// =============================================================================

var _ services.StateStore = (*syncstate.FileStore)(nil)
var _ services.StateStore = (*dbstate.Repository)(nil)
var _ http.StateReader = (syncstate.Store)(nil)

var _ services.ProgressTracker = (*sync.Repository)(nil)
var _ metadata.ProgressReporter = (*sync.Repository)(nil)
var _ http.ProgressLister = (*sync.Repository)(nil)

var _ services.RunLogger = (*audit.Service)(nil)
var _ services.SnapshotWriter = (*audit.Auditor)(nil)
var _ scheduler.ScheduleLogger = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.SnapshotPruner = (*audit.Auditor)(nil)

var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.CatalogRunner = (*services.CatalogSync)(nil)
var _ scheduler.SyncRunner = (*services.CatalogSync)(nil)
var _ tasks.PhotoEnricher = (*metadata.Enricher)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.SyncTrigger = (*scheduler.CatalogSyncScheduler)(nil)

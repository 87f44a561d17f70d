package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/eknihy-sync/internal/audit"
	"github.com/mrlokans/eknihy-sync/internal/classifier"
	"github.com/mrlokans/eknihy-sync/internal/config"
	"github.com/mrlokans/eknihy-sync/internal/database"
	dbaudit "github.com/mrlokans/eknihy-sync/internal/database/audit"
	syncrepo "github.com/mrlokans/eknihy-sync/internal/database/sync"
	"github.com/mrlokans/eknihy-sync/internal/entities"
	http_controllers "github.com/mrlokans/eknihy-sync/internal/http"
	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/metadata"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
	"github.com/mrlokans/eknihy-sync/internal/scheduler"
	"github.com/mrlokans/eknihy-sync/internal/services"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
	"github.com/mrlokans/eknihy-sync/internal/syncstate"
	"github.com/mrlokans/eknihy-sync/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	if cfg.Backend.Token == "" {
		log.Printf("WARNING: Strapi token is not set. Sync runs will fail until 'STRAPI_TOKEN' is set (dry runs still work).")
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, plain kill sends SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop the scheduler and task queue before the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting eknihy-sync v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path, true)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	auditService := audit.NewService(dbaudit.NewRepository(db.DB))
	defer auditService.Flush()

	// Harvest snapshots, disabled when AUDIT_DIR is empty
	snapshots := audit.NewAuditor(cfg.Audit.Dir)

	state, err := syncstate.Open(cfg.Sync, db.DB)
	if err != nil {
		log.Fatalf("Failed to open sync state: %v", err)
	}

	classify := classifier.NewDefault()
	if cfg.Classifier.TaxonomyFile != "" {
		classify, err = classifier.Load(cfg.Classifier.TaxonomyFile)
		if err != nil {
			log.Fatalf("Failed to load taxonomy: %v", err)
		}
		log.Printf("Taxonomy loaded from %s", cfg.Classifier.TaxonomyFile)
	}

	backend := strapi.NewClient(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout)
	oaiClient := oaipmh.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout)
	harvester := oaipmh.NewHarvester(oaiClient, marc.NewParser(), cfg.Source.PageDelay)

	catalogSync := services.NewCatalogSync(services.CatalogSyncDeps{
		Backend:    backend,
		Harvester:  harvester,
		Classifier: classify,
		State:      state,
		Progress:   syncrepo.NewRepository(db.DB, entities.SyncTypeCatalog),
		Audit:      auditService,
		Snapshots:  snapshots,
	}, services.CatalogSyncOptions{
		Set:            cfg.Source.Set,
		MetadataPrefix: cfg.Source.MetadataPrefix,
		InitialDays:    cfg.Sync.InitialDays,
		WriteDelay:     cfg.Backend.WriteDelay,
	})

	photoEnricher := metadata.NewEnricher(
		metadata.NewWikipediaClient(cfg.Wikipedia.Languages, cfg.Wikipedia.Delay),
		backend,
		cfg.Backend.WriteDelay,
	)
	photoEnricher.SetProgressReporter(syncrepo.NewRepository(db.DB, entities.SyncTypeAuthorPhotos))

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromSettings(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewSyncCatalogQueue(catalogSync),
			tasks.NewEnrichAuthorPhotosQueue(photoEnricher),
			tasks.NewEnrichAuthorPhotoQueue(photoEnricher),
			tasks.NewCleanupHistoryQueue(auditService, snapshots),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// A nil *tasks.Client must not end up in a non-nil interface.
	var queue scheduler.TaskEnqueuer
	var taskQueue http_controllers.TaskQueue
	if taskClient != nil {
		queue = taskClient
		taskQueue = taskClient
	}

	syncScheduler := scheduler.NewCatalogSyncScheduler(catalogSync, queue, auditService, scheduler.Options{
		Enabled:         cfg.Sync.Enabled,
		Schedule:        cfg.Sync.Schedule,
		CleanupSchedule: cfg.Sync.CleanupSchedule,
		RetentionDays:   cfg.Audit.RetentionDays,
		RunTimeout:      cfg.Tasks.TaskTimeout,
	})
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := syncScheduler.Start(schedCtx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:     db,
		Version:      version,
		State:        state,
		Progress:     syncrepo.NewRepository(db.DB, entities.SyncTypeCatalog),
		Scheduler:    syncScheduler,
		TaskClient:   taskQueue,
		AuditService: auditService,
	})

	onShutdown := func(ctx context.Context) {
		syncScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/eknihy-sync/internal/services"
	"github.com/mrlokans/eknihy-sync/internal/tasks"
)

// SyncRunner runs one catalog sync in-process.
type SyncRunner interface {
	Run(ctx context.Context, req services.RunRequest) (*services.RunReport, error)
}

// TaskEnqueuer hands work to the background queue.
type TaskEnqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// ScheduleLogger records scheduler lifecycle events.
type ScheduleLogger interface {
	LogSchedule(action, description string)
}

// Options configures CatalogSyncScheduler.
type Options struct {
	Enabled  bool
	Schedule string

	// CleanupSchedule runs history cleanup through the queue. Ignored
	// without a queue.
	CleanupSchedule string
	RetentionDays   int

	// RunTimeout bounds in-process runs. Default: 2h
	RunTimeout time.Duration
}

// CatalogSyncScheduler runs the catalog sync on a cron schedule. With a task
// queue, runs are enqueued and the worker executes them; without one they
// run in a goroutine owned by the scheduler.
type CatalogSyncScheduler struct {
	runner SyncRunner
	queue  TaskEnqueuer
	audit  ScheduleLogger
	opts   Options

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewCatalogSyncScheduler creates a scheduler. queue and audit may be nil.
func NewCatalogSyncScheduler(runner SyncRunner, queue TaskEnqueuer, audit ScheduleLogger, opts Options) *CatalogSyncScheduler {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 2 * time.Hour
	}
	return &CatalogSyncScheduler{
		runner: runner,
		queue:  queue,
		audit:  audit,
		opts:   opts,
		cron:   cron.New(cron.WithParser(cronParser)),
	}
}

// Start begins the scheduler if sync is enabled
func (s *CatalogSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.opts.Enabled {
		log.Printf("Catalog sync scheduler: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.opts.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.opts.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.opts.Schedule, func() {
		s.trigger("schedule", services.RunRequest{})
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	if s.queue != nil && s.opts.CleanupSchedule != "" {
		if err := ValidateCronSchedule(s.opts.CleanupSchedule); err != nil {
			s.cron.Remove(entryID)
			return fmt.Errorf("invalid cleanup schedule '%s': %w", s.opts.CleanupSchedule, err)
		}
		if _, err := s.cron.AddFunc(s.opts.CleanupSchedule, s.enqueueCleanup); err != nil {
			s.cron.Remove(entryID)
			return fmt.Errorf("failed to schedule cleanup job: %w", err)
		}
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.opts.Schedule, time.Now())
	description := fmt.Sprintf("Started with schedule '%s' (%s)", s.opts.Schedule, GetCronDescription(s.opts.Schedule))
	log.Printf("Catalog sync scheduler: %s. Next run: %v", description, nextRun)
	s.logSchedule("scheduler_started", description)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running cron job to return and stops the scheduler.
func (s *CatalogSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// Jobs take s.mu, so wait for them without holding it.
	ctx := s.cron.Stop()
	<-ctx.Done()
	if cancel != nil {
		cancel()
	}

	log.Printf("Catalog sync scheduler: stopped")
	s.logSchedule("scheduler_stopped", "Scheduler stopped")
}

// RunNow triggers an immediate sync. It returns the task id when the run was
// queued, or an empty id when it was started in-process.
func (s *CatalogSyncScheduler) RunNow(req services.RunRequest) (string, error) {
	return s.trigger("api", req)
}

// IsRunning returns whether the scheduler is active
func (s *CatalogSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether an in-process sync is currently running.
func (s *CatalogSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// Queued reports whether runs go through the task queue.
func (s *CatalogSyncScheduler) Queued() bool {
	return s.queue != nil
}

// Schedule returns the configured cron expression.
func (s *CatalogSyncScheduler) Schedule() string {
	return s.opts.Schedule
}

// GetNextRunTime returns when the next sync will occur
func (s *CatalogSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *CatalogSyncScheduler) trigger(source string, req services.RunRequest) (string, error) {
	if s.queue != nil {
		id, err := s.queue.Enqueue(tasks.SyncCatalogTask{From: req.From, DryRun: req.DryRun, Trigger: source})
		if err != nil {
			log.Printf("Catalog sync (%s): failed to enqueue: %v", source, err)
			return "", err
		}
		log.Printf("Catalog sync (%s): queued as task %s", source, id)
		return id, nil
	}

	if s.runner == nil {
		return "", fmt.Errorf("catalog sync not configured")
	}

	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Catalog sync (%s): skipped (already syncing)", source)
		return "", services.ErrSyncInProgress
	}
	s.isSyncing = true
	s.mu.Unlock()

	go s.runSync(source, req)
	return "", nil
}

func (s *CatalogSyncScheduler) runSync(source string, req services.RunRequest) {
	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.RunTimeout)
	defer cancel()

	log.Printf("Catalog sync (%s): starting", source)
	report, err := s.runner.Run(ctx, req)
	if errors.Is(err, services.ErrSyncInProgress) {
		log.Printf("Catalog sync (%s): skipped (already syncing)", source)
		return
	}
	if err != nil {
		log.Printf("Catalog sync (%s): failed: %v", source, err)
		return
	}
	log.Printf("Catalog sync (%s): %d created, %d skipped, %d failed in %v",
		source, report.Summary.Created, report.Summary.Skipped, report.Summary.Failed,
		report.Duration.Round(time.Millisecond))
}

func (s *CatalogSyncScheduler) enqueueCleanup() {
	id, err := s.queue.Enqueue(tasks.CleanupHistoryTask{RetentionDays: s.opts.RetentionDays})
	if err != nil {
		log.Printf("History cleanup: failed to enqueue: %v", err)
		return
	}
	log.Printf("History cleanup: queued as task %s", id)
}

func (s *CatalogSyncScheduler) logSchedule(action, description string) {
	if s.audit == nil {
		return
	}
	s.audit.LogSchedule(action, description)
}

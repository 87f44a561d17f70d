package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/identity"
	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/metrics"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
)

const defaultInitialDays = 7

// ErrSyncInProgress is returned when Run is called while another run of
// the same CatalogSync is still going.
var ErrSyncInProgress = errors.New("catalog sync already in progress")

// CatalogSyncDeps are the collaborators of a catalog sync. Progress, Audit
// and Snapshots may be nil.
type CatalogSyncDeps struct {
	Backend    Backend
	Harvester  Harvester
	Classifier importers.Categorizer
	State      StateStore
	Progress   ProgressTracker
	Audit      RunLogger
	Snapshots  SnapshotWriter
}

// CatalogSyncOptions are the fixed settings of the feed being followed.
type CatalogSyncOptions struct {
	Set            string
	MetadataPrefix string
	InitialDays    int
	WriteDelay     time.Duration
}

// RunRequest holds the per-run overrides.
type RunRequest struct {
	From   string // YYYY-MM-DD, overrides the stored watermark
	Days   int    // look-back for the first run; 0 uses the configured value
	DryRun bool
}

// RunReport describes a finished run, successful or not.
type RunReport struct {
	RunID      string
	From       string
	DryRun     bool
	Harvest    *oaipmh.Result
	Summary    importers.Summary
	Snapshot   string
	StateSaved bool
	Duration   time.Duration
}

// CatalogSync runs one incremental import: it fetches everything changed
// since the watermark, imports the new works and advances the watermark.
type CatalogSync struct {
	deps    CatalogSyncDeps
	opts    CatalogSyncOptions
	now     func() time.Time
	running atomic.Bool
}

func NewCatalogSync(deps CatalogSyncDeps, opts CatalogSyncOptions) *CatalogSync {
	if opts.InitialDays <= 0 {
		opts.InitialDays = defaultInitialDays
	}
	return &CatalogSync{deps: deps, opts: opts, now: time.Now}
}

// ResolveFromDate picks the lower bound of the harvest: the override when
// given, else the stored watermark, else initialDays before now (UTC).
func ResolveFromDate(override string, state *entities.SyncState, initialDays int, now time.Time) (string, error) {
	if override != "" {
		if _, err := time.Parse(entities.WatermarkLayout, override); err != nil {
			return "", fmt.Errorf("invalid from date %q (want YYYY-MM-DD): %w", override, err)
		}
		return override, nil
	}
	if state != nil && state.LastSyncDate != "" {
		return state.LastSyncDate, nil
	}
	if initialDays <= 0 {
		initialDays = defaultInitialDays
	}
	return now.UTC().AddDate(0, 0, -initialDays).Format(entities.WatermarkLayout), nil
}

// Run executes one sync. A missing token (outside dry-run) or an unreachable
// backend fails before anything is fetched. A harvest error still imports
// the works fetched so far but leaves the watermark untouched, so the next
// run covers the same window again.
func (s *CatalogSync) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	start := s.now()
	rec := startRun(entities.SyncTypeCatalog, entities.AuditEventSync, "catalog_sync", s.deps.Progress, s.deps.Audit)
	report := &RunReport{RunID: rec.id, DryRun: req.DryRun}
	fail := func(err error) (*RunReport, error) {
		report.Duration = s.now().Sub(start)
		return report, rec.finish("Catalog sync failed", s.counts(report), err)
	}

	state, err := s.deps.State.Load(ctx)
	if err != nil {
		log.Printf("Catalog sync: failed to load state, starting fresh: %v", err)
		state = nil
	}

	days := req.Days
	if days <= 0 {
		days = s.opts.InitialDays
	}
	report.From, err = ResolveFromDate(req.From, state, days, start)
	if err != nil {
		return fail(err)
	}

	index := identity.NewIndex()
	if !req.DryRun {
		if !s.deps.Backend.HasToken() {
			return fail(strapi.ErrMissingToken)
		}
		if err := s.deps.Backend.Ping(ctx); err != nil {
			return fail(fmt.Errorf("connect to backend: %w", err))
		}
		if err := index.Rebuild(ctx, s.deps.Backend); err != nil {
			log.Printf("Catalog sync: warning - %v (continuing with %d known ids)", err, index.Len())
		}
		log.Printf("Catalog sync: %d books already in the backend", index.Len())
	}

	log.Printf("Catalog sync: fetching records changed since %s", report.From)
	harvest, harvestErr := s.deps.Harvester.Harvest(ctx, oaipmh.Options{
		Set:            s.opts.Set,
		MetadataPrefix: s.opts.MetadataPrefix,
		From:           report.From,
		OnPage: func(p oaipmh.PageStats) {
			log.Printf("Catalog sync: page %d, %d records, %d accepted so far", p.Page, p.Records, p.Total)
			rec.update(0, 0, 0, 0, fmt.Sprintf("harvest page %d", p.Page))
		},
	})
	if harvest == nil {
		harvest = &oaipmh.Result{Rejected: map[string]int{}}
	}
	report.Harvest = harvest
	recordHarvestMetrics(harvest)
	if harvestErr != nil {
		log.Printf("Catalog sync: harvest stopped after %d pages: %v", harvest.Pages, harvestErr)
	}

	if len(harvest.Works) > 0 && s.deps.Snapshots != nil && s.deps.Snapshots.Enabled() {
		path, err := s.deps.Snapshots.SaveJSON("catalog-"+rec.id, harvest.Works)
		if err != nil {
			log.Printf("Catalog sync: failed to save snapshot: %v", err)
		}
		report.Snapshot = path
	}

	rec.setTotal(len(harvest.Works))
	orch := importers.NewOrchestrator(s.deps.Backend, s.deps.Classifier, index, importers.Options{
		DryRun:     req.DryRun,
		WriteDelay: s.opts.WriteDelay,
		Now:        s.now,
		OnResult:   progressReporter(rec),
	})
	summary, importErr := orch.ImportAll(ctx, harvest.Works)
	report.Summary = summary

	if harvestErr != nil {
		return fail(fmt.Errorf("harvest: %w", harvestErr))
	}
	if importErr != nil {
		return fail(fmt.Errorf("import: %w", importErr))
	}

	if !req.DryRun {
		next := &entities.SyncState{FeedKey: entities.DefaultFeedKey}
		if state != nil {
			next.TotalRuns = state.TotalRuns
		}
		next.LastSyncDate = start.UTC().Format(entities.WatermarkLayout)
		next.LastRun = start.Format(entities.LastRunLayout)
		next.LastNewCount = summary.Created
		next.TotalRuns++
		if err := s.deps.State.Save(ctx, next); err != nil {
			return fail(fmt.Errorf("save sync state: %w", err))
		}
		report.StateSaved = true
	}

	report.Duration = s.now().Sub(start)
	description := fmt.Sprintf("Imported %d, skipped %d, failed %d since %s",
		summary.Created, summary.Skipped, summary.Failed, report.From)
	log.Printf("Catalog sync: %s", description)
	return report, rec.finish(description, s.counts(report), nil)
}

// Running reports whether a run is in progress.
func (s *CatalogSync) Running() bool {
	return s.running.Load()
}

func (s *CatalogSync) counts(report *RunReport) map[string]any {
	counts := map[string]any{
		"from":    report.From,
		"dry_run": report.DryRun,
		"created": report.Summary.Created,
		"skipped": report.Summary.Skipped,
		"failed":  report.Summary.Failed,
	}
	if report.Harvest != nil {
		counts["pages"] = report.Harvest.Pages
		counts["records"] = report.Harvest.Records
		counts["rejected"] = report.Harvest.RejectedTotal()
	}
	return counts
}

func recordHarvestMetrics(res *oaipmh.Result) {
	metrics.HarvestPagesTotal.Add(float64(res.Pages))
	metrics.HarvestRecordsTotal.WithLabelValues("accepted").Add(float64(len(res.Works)))
	for reason, n := range res.Rejected {
		metrics.HarvestRecordsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// progressReporter feeds import results into the run's progress row.
func progressReporter(rec *runRecorder) func(int, *entities.Work, importers.Result) {
	var succeeded, failed, skipped int
	return func(i int, work *entities.Work, res importers.Result) {
		switch res.Outcome {
		case importers.OutcomeCreated, importers.OutcomeDryRun:
			succeeded++
		case importers.OutcomeFailed:
			failed++
		case importers.OutcomeSkipped:
			skipped++
		}
		rec.update(i+1, succeeded, failed, skipped, work.Title)
	}
}

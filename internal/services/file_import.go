package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/identity"
	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
)

const fileImportReportEvery = 100

// FileImportRequest describes one import of a harvest dump.
type FileImportRequest struct {
	Works  []*entities.Work
	Start  int // index to resume from
	DryRun bool
}

// FileImportReport is the outcome of a dump import.
type FileImportReport struct {
	RunID   string
	Total   int
	Start   int
	Summary importers.Summary
}

// FileImport imports a previously harvested dump through the same
// orchestrator the incremental sync uses.
type FileImport struct {
	backend    Backend
	classifier importers.Categorizer
	progress   ProgressTracker
	audit      RunLogger
	writeDelay time.Duration
}

func NewFileImport(backend Backend, classifier importers.Categorizer, progress ProgressTracker, audit RunLogger, writeDelay time.Duration) *FileImport {
	return &FileImport{backend: backend, classifier: classifier, progress: progress, audit: audit, writeDelay: writeDelay}
}

func (f *FileImport) Run(ctx context.Context, req FileImportRequest) (*FileImportReport, error) {
	rec := startRun(entities.SyncTypeFileImport, entities.AuditEventImport, "file_import", f.progress, f.audit)
	report := &FileImportReport{RunID: rec.id, Total: len(req.Works), Start: req.Start}

	if req.Start < 0 || req.Start > len(req.Works) {
		return report, rec.finish("File import failed", nil,
			fmt.Errorf("start index %d out of range (0-%d)", req.Start, len(req.Works)))
	}

	index := identity.NewIndex()
	if !req.DryRun {
		if !f.backend.HasToken() {
			return report, rec.finish("File import failed", nil, strapi.ErrMissingToken)
		}
		if err := f.backend.Ping(ctx); err != nil {
			return report, rec.finish("File import failed", nil, fmt.Errorf("connect to backend: %w", err))
		}
		if err := index.Rebuild(ctx, f.backend); err != nil {
			log.Printf("File import: warning - %v (continuing with %d known ids)", err, index.Len())
		}
	}

	works := req.Works[req.Start:]
	rec.setTotal(len(works))

	track := progressReporter(rec)
	var created, skipped, failed int
	orch := importers.NewOrchestrator(f.backend, f.classifier, index, importers.Options{
		DryRun:     req.DryRun,
		WriteDelay: f.writeDelay,
		OnResult: func(i int, work *entities.Work, res importers.Result) {
			track(i, work, res)
			switch res.Outcome {
			case importers.OutcomeCreated, importers.OutcomeDryRun:
				created++
			case importers.OutcomeSkipped:
				skipped++
			case importers.OutcomeFailed:
				failed++
			}
			n := req.Start + i + 1
			if n%fileImportReportEvery == 0 {
				log.Printf("File import: #%d/%d: %d ok, %d skip, %d err", n, len(req.Works), created, skipped, failed)
			}
		},
	})

	summary, err := orch.ImportAll(ctx, works)
	report.Summary = summary
	counts := map[string]any{
		"total":   report.Total,
		"start":   report.Start,
		"dry_run": req.DryRun,
		"created": summary.Created,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	}
	if err != nil {
		return report, rec.finish("File import interrupted", counts, err)
	}

	description := fmt.Sprintf("Imported %d, skipped %d, failed %d of %d works",
		summary.Created, summary.Skipped, summary.Failed, len(works))
	log.Printf("File import: %s", description)
	return report, rec.finish(description, counts, nil)
}

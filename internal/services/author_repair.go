package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/identity"
	"github.com/mrlokans/eknihy-sync/internal/importers"
	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/oaipmh"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
	"github.com/mrlokans/eknihy-sync/internal/utils"
)

const (
	repairPageSize          = 100
	DefaultRepairFetchDelay = time.Second
)

// AuthorRepairOptions are the fixed settings of an author repair.
type AuthorRepairOptions struct {
	MetadataPrefix string
	FetchDelay     time.Duration // pause after every GetRecord
	WriteDelay     time.Duration // pause after every book update
}

// RepairRequest holds the per-run settings.
type RepairRequest struct {
	Limit  int // 0 processes every candidate
	DryRun bool
}

// RepairReport counts the outcome of an author repair.
type RepairReport struct {
	RunID      string
	Candidates int
	Fixed      int
	Skipped    int
	Errors     int
}

// AuthorRepair attaches authors to imported books that have none, reading
// the author from the source record again.
type AuthorRepair struct {
	backend  Backend
	records  RecordFetcher
	progress ProgressTracker
	audit    RunLogger
	opts     AuthorRepairOptions
}

func NewAuthorRepair(backend Backend, records RecordFetcher, progress ProgressTracker, audit RunLogger, opts AuthorRepairOptions) *AuthorRepair {
	return &AuthorRepair{backend: backend, records: records, progress: progress, audit: audit, opts: opts}
}

// Run processes every book with an external id and no author. Books whose
// source record has no author, or cannot be fetched, are skipped.
func (r *AuthorRepair) Run(ctx context.Context, req RepairRequest) (*RepairReport, error) {
	rec := startRun(entities.SyncTypeAuthorRepair, entities.AuditEventRepair, "fix_authors", r.progress, r.audit)
	report := &RepairReport{RunID: rec.id}

	if !req.DryRun && !r.backend.HasToken() {
		return report, rec.finish("Author repair failed", nil, strapi.ErrMissingToken)
	}

	books, err := listAll(ctx, r.backend, strapi.KindBooks, strapi.ListQuery{
		Fields: []string{"title", identity.ExternalIDField, "documentId"},
		Filters: []strapi.Filter{
			{Path: identity.ExternalIDField, Op: strapi.OpNotNull},
			{Path: "author.id", Op: strapi.OpNull},
		},
		PageSize:         repairPageSize,
		PublicationState: "preview",
	})
	if err != nil {
		return report, rec.finish("Author repair failed", nil, fmt.Errorf("load books without author: %w", err))
	}
	if req.Limit > 0 && len(books) > req.Limit {
		books = books[:req.Limit]
	}
	report.Candidates = len(books)
	rec.setTotal(len(books))
	log.Printf("Author repair: %d books without author", len(books))

	resolver := importers.NewOrchestrator(r.backend, nil, nil, importers.Options{DryRun: req.DryRun})

	for i, book := range books {
		if err := ctx.Err(); err != nil {
			return report, rec.finish("Author repair cancelled", r.counts(report), err)
		}
		title := book.String("title")
		r.repairOne(ctx, rec, resolver, book, req.DryRun, report)
		rec.update(i+1, report.Fixed, report.Errors, report.Skipped, title)
	}

	description := fmt.Sprintf("Fixed %d, skipped %d, errors %d of %d books",
		report.Fixed, report.Skipped, report.Errors, report.Candidates)
	log.Printf("Author repair: %s", description)
	return report, rec.finish(description, r.counts(report), nil)
}

func (r *AuthorRepair) repairOne(ctx context.Context, rec *runRecorder, resolver *importers.Orchestrator, book strapi.Entry, dryRun bool, report *RepairReport) {
	docID := book.DocumentID()
	title := book.String("title")
	externalID := book.String(identity.ExternalIDField)
	if externalID == "" {
		report.Skipped++
		return
	}

	raw, err := r.records.GetRecord(ctx, externalID, r.opts.MetadataPrefix)
	_ = utils.Sleep(ctx, r.opts.FetchDelay)
	if errors.Is(err, oaipmh.ErrIDDoesNotExist) {
		log.Printf("Author repair: %s is no longer in the catalog", externalID)
		report.Skipped++
		return
	}
	if err != nil {
		log.Printf("Author repair: fetch %s: %v", externalID, err)
		report.Errors++
		return
	}
	author := ""
	if raw.Record != nil {
		author = marc.ParseAuthor(raw.Record)
	}
	if author == "" {
		report.Skipped++
		return
	}

	authorID, err := resolver.ResolveAuthor(ctx, author)
	if err != nil {
		log.Printf("Author repair: author %q: %v", author, err)
		report.Errors++
		return
	}

	if dryRun {
		log.Printf("Author repair: [dry-run] would attach %q to %q (%s)", author, title, docID)
		report.Fixed++
		return
	}

	if err := r.backend.Update(ctx, strapi.KindBooks, docID, map[string]any{"author": authorID}); err != nil {
		if strapi.IsNotFound(err) {
			log.Printf("Author repair: %q (%s) was deleted meanwhile", title, docID)
			report.Skipped++
			return
		}
		log.Printf("Author repair: update %q: %v", title, err)
		report.Errors++
		return
	}
	report.Fixed++
	rec.entity("attach_author", "book", docID, fmt.Sprintf("%s: %s", title, author))
	_ = utils.Sleep(ctx, r.opts.WriteDelay)
}

func (r *AuthorRepair) counts(report *RepairReport) map[string]any {
	return map[string]any{
		"candidates": report.Candidates,
		"fixed":      report.Fixed,
		"skipped":    report.Skipped,
		"errors":     report.Errors,
	}
}

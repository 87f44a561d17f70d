package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
	"github.com/mrlokans/eknihy-sync/internal/utils"
)

const reclassifyPageSize = 200

// ForeignAuthorDetector decides whether an author belongs to world literature.
type ForeignAuthorDetector interface {
	IsForeignAuthor(author string) bool
}

// ReclassifyOptions name the two categories books are moved between.
type ReclassifyOptions struct {
	From       string // e.g. "Česká literatura"
	To         string // e.g. "Světová literatura"
	WriteDelay time.Duration
}

// Move is one book that belongs in the target category.
type Move struct {
	DocumentID string
	Title      string
	Author     string
}

// ReclassifyReport lists what was (or would be) moved.
type ReclassifyReport struct {
	RunID   string
	Scanned int
	Moves   []Move
	Moved   int
	Errors  int
}

// Reclassifier moves books by foreign authors out of the domestic category.
type Reclassifier struct {
	backend  Backend
	detector ForeignAuthorDetector
	progress ProgressTracker
	audit    RunLogger
	opts     ReclassifyOptions
}

func NewReclassifier(backend Backend, detector ForeignAuthorDetector, progress ProgressTracker, audit RunLogger, opts ReclassifyOptions) *Reclassifier {
	return &Reclassifier{backend: backend, detector: detector, progress: progress, audit: audit, opts: opts}
}

// Run scans the source category and moves every book whose author the
// detector flags as foreign. In dry-run the moves are only reported.
func (r *Reclassifier) Run(ctx context.Context, dryRun bool) (*ReclassifyReport, error) {
	rec := startRun(entities.SyncTypeReclassify, entities.AuditEventRepair, "fix_categories", r.progress, r.audit)
	report := &ReclassifyReport{RunID: rec.id}

	if !dryRun && !r.backend.HasToken() {
		return report, rec.finish("Reclassify failed", nil, strapi.ErrMissingToken)
	}

	fromID, err := r.categoryID(ctx, r.opts.From)
	if err != nil {
		return report, rec.finish("Reclassify failed", nil, err)
	}
	toID, err := r.categoryID(ctx, r.opts.To)
	if err != nil {
		return report, rec.finish("Reclassify failed", nil, err)
	}

	books, err := listAll(ctx, r.backend, strapi.KindBooks, strapi.ListQuery{
		Fields:   []string{"title", "documentId"},
		Filters:  []strapi.Filter{strapi.Eq("category.documentId", fromID)},
		Populate: map[string][]string{"author": {"name"}},
		PageSize: reclassifyPageSize,
	})
	if err != nil {
		return report, rec.finish("Reclassify failed", nil, fmt.Errorf("load books of %q: %w", r.opts.From, err))
	}
	report.Scanned = len(books)

	for _, book := range books {
		author := book.Relation("author").String("name")
		if author != "" && r.detector.IsForeignAuthor(author) {
			report.Moves = append(report.Moves, Move{
				DocumentID: book.DocumentID(),
				Title:      book.String("title"),
				Author:     author,
			})
		}
	}
	log.Printf("Reclassify: %d of %d books in %q have foreign authors", len(report.Moves), report.Scanned, r.opts.From)
	rec.setTotal(len(report.Moves))

	if !dryRun {
		for i, move := range report.Moves {
			err := r.backend.Update(ctx, strapi.KindBooks, move.DocumentID, map[string]any{"category": toID})
			if err != nil {
				log.Printf("Reclassify: update %q: %v", move.Title, err)
				report.Errors++
			} else {
				report.Moved++
				rec.entity("move_category", "book", move.DocumentID, fmt.Sprintf("%s (%s) -> %s", move.Title, move.Author, r.opts.To))
			}
			rec.update(i+1, report.Moved, report.Errors, 0, move.Title)
			if err := utils.Sleep(ctx, r.opts.WriteDelay); err != nil {
				return report, rec.finish("Reclassify cancelled", r.counts(report), err)
			}
		}
	}

	description := fmt.Sprintf("Moved %d, errors %d, scanned %d", report.Moved, report.Errors, report.Scanned)
	return report, rec.finish(description, r.counts(report), nil)
}

func (r *Reclassifier) categoryID(ctx context.Context, name string) (string, error) {
	id, found, err := r.backend.FindID(ctx, strapi.KindCategories, "name", name)
	if err != nil {
		return "", fmt.Errorf("find category %q: %w", name, err)
	}
	if !found {
		return "", fmt.Errorf("category %q not found", name)
	}
	return id, nil
}

func (r *Reclassifier) counts(report *ReclassifyReport) map[string]any {
	return map[string]any{
		"scanned":  report.Scanned,
		"selected": len(report.Moves),
		"moved":    report.Moved,
		"errors":   report.Errors,
	}
}

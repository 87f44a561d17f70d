package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/metrics"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
	"github.com/mrlokans/eknihy-sync/internal/utils"
)

const authorPageSize = 100

// PortraitSource finds and downloads author portraits.
type PortraitSource interface {
	FindPortrait(ctx context.Context, name string) (*Portrait, error)
	DownloadImage(ctx context.Context, imageURL string) (*Image, error)
}

// AuthorStore is the part of the content backend the enricher needs.
type AuthorStore interface {
	List(ctx context.Context, kind strapi.Kind, q strapi.ListQuery) (*strapi.Page, error)
	Update(ctx context.Context, kind strapi.Kind, id string, fields map[string]any) error
	Upload(ctx context.Context, filename, contentType string, data []byte) (int, error)
	HasToken() bool
}

// ProgressReporter reports bulk progress updates.
type ProgressReporter interface {
	StartSync(runID string, totalItems int) error
	UpdateProgress(processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync(succeeded bool, errorMsg string) error
	IsSyncRunning() (bool, error)
}

// Author is an author record without a photo.
type Author struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
}

// PhotoOutcome is the result for a single author.
type PhotoOutcome string

const (
	PhotoAttached PhotoOutcome = "attached"
	PhotoFound    PhotoOutcome = "found" // dry-run: portrait exists, nothing written
	PhotoNotFound PhotoOutcome = "not_found"
)

// PhotoResult summarizes a bulk run.
type PhotoResult struct {
	RunID    string   `json:"run_id"`
	Total    int      `json:"total"`
	Start    int      `json:"start"`
	Found    int      `json:"found"`
	NotFound int      `json:"not_found"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Enricher attaches Wikipedia portraits to authors that have no photo.
// Existing photos are never replaced.
type Enricher struct {
	source           PortraitSource
	store            AuthorStore
	writeDelay       time.Duration
	progressReporter ProgressReporter
}

func NewEnricher(source PortraitSource, store AuthorStore, writeDelay time.Duration) *Enricher {
	return &Enricher{source: source, store: store, writeDelay: writeDelay}
}

// SetProgressReporter sets the progress reporter for bulk runs (optional).
func (e *Enricher) SetProgressReporter(reporter ProgressReporter) {
	e.progressReporter = reporter
}

// AuthorsWithoutPhoto lists every author whose photo relation is empty,
// sorted by name.
func (e *Enricher) AuthorsWithoutPhoto(ctx context.Context) ([]Author, error) {
	var authors []Author
	for page := 1; ; page++ {
		res, err := e.store.List(ctx, strapi.KindAuthors, strapi.ListQuery{
			Fields:   []string{"name", "slug"},
			Populate: map[string][]string{"photo": {"url"}},
			Sort:     "name:asc",
			Page:     page,
			PageSize: authorPageSize,
		})
		if err != nil {
			return authors, fmt.Errorf("list authors (page %d): %w", page, err)
		}
		for _, entry := range res.Data {
			if entry.Relation("photo") != nil {
				continue
			}
			authors = append(authors, Author{
				DocumentID: entry.DocumentID(),
				Name:       entry.String("name"),
				Slug:       entry.String("slug"),
			})
		}
		if res.Last(page) {
			return authors, nil
		}
	}
}

// EnrichAuthor looks up one portrait and, unless dryRun, uploads it and
// links it to the author.
func (e *Enricher) EnrichAuthor(ctx context.Context, author Author, dryRun bool) (PhotoOutcome, error) {
	portrait, err := e.source.FindPortrait(ctx, author.Name)
	if errors.Is(err, ErrPortraitNotFound) {
		return PhotoNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("find portrait: %w", err)
	}
	if dryRun {
		log.Printf("Author photos: [dry-run] %s -> %s (%s.wikipedia)", author.Name, portrait.URL, portrait.Language)
		return PhotoFound, nil
	}

	img, err := e.source.DownloadImage(ctx, portrait.URL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", portrait.URL, err)
	}

	fileID, err := e.store.Upload(ctx, photoFilename(author, img), img.ContentType, img.Data)
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	if err := e.store.Update(ctx, strapi.KindAuthors, author.DocumentID, map[string]any{"photo": fileID}); err != nil {
		return "", fmt.Errorf("set photo: %w", err)
	}
	log.Printf("Author photos: %s <- %s.wikipedia", author.Name, portrait.Language)
	return PhotoAttached, nil
}

// EnrichAll processes every author without a photo from position start on.
func (e *Enricher) EnrichAll(ctx context.Context, start int, dryRun bool) (*PhotoResult, error) {
	if !dryRun && !e.store.HasToken() {
		return nil, strapi.ErrMissingToken
	}
	if e.progressReporter != nil {
		running, err := e.progressReporter.IsSyncRunning()
		if err != nil {
			return nil, fmt.Errorf("check sync status: %w", err)
		}
		if running {
			return nil, fmt.Errorf("author photo enrichment is already in progress")
		}
	}

	authors, err := e.AuthorsWithoutPhoto(ctx)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := &PhotoResult{RunID: uuid.NewString(), Total: len(authors), Start: start}
	if start > 0 {
		authors = authors[min(start, len(authors)):]
	}
	log.Printf("Author photos: %d authors without photo, processing %d", result.Total, len(authors))

	if e.progressReporter != nil {
		if err := e.progressReporter.StartSync(result.RunID, len(authors)); err != nil {
			return nil, fmt.Errorf("start sync progress: %w", err)
		}
	}

	for i, author := range authors {
		if err := ctx.Err(); err != nil {
			e.complete(started, false, "operation cancelled")
			return result, err
		}
		if e.progressReporter != nil {
			_ = e.progressReporter.UpdateProgress(i, result.Found, result.Failed, result.NotFound, author.Name)
		}

		outcome, err := e.EnrichAuthor(ctx, author, dryRun)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", author.Name, err))
			log.Printf("Author photos: %s: %v", author.Name, err)
		case outcome == PhotoNotFound:
			result.NotFound++
		default:
			result.Found++
		}

		if !dryRun && outcome != PhotoNotFound {
			if err := utils.Sleep(ctx, e.writeDelay); err != nil {
				e.complete(started, false, "operation cancelled")
				return result, err
			}
		}
	}

	errorMsg := ""
	if len(result.Errors) > 0 {
		errorMsg = fmt.Sprintf("%d errors occurred", len(result.Errors))
	}
	e.complete(started, result.Failed == 0, errorMsg)
	return result, nil
}

func (e *Enricher) complete(started time.Time, succeeded bool, errorMsg string) {
	if e.progressReporter != nil {
		_ = e.progressReporter.CompleteSync(succeeded, errorMsg)
	}
	syncType := string(entities.SyncTypeAuthorPhotos)
	status := "success"
	if !succeeded {
		status = "failed"
	} else {
		metrics.LastSuccessTimestamp.WithLabelValues(syncType).SetToCurrentTime()
	}
	metrics.RunsTotal.WithLabelValues(syncType, status).Inc()
	metrics.RunDuration.WithLabelValues(syncType).Observe(time.Since(started).Seconds())
}

func photoFilename(author Author, img *Image) string {
	name := author.Slug
	if name == "" {
		name = author.DocumentID
	}
	return "author_" + name + "." + img.Ext()
}

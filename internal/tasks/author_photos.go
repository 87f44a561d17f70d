package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/eknihy-sync/internal/metadata"
)

// PhotoEnricher attaches author portraits.
type PhotoEnricher interface {
	EnrichAuthor(ctx context.Context, author metadata.Author, dryRun bool) (metadata.PhotoOutcome, error)
	EnrichAll(ctx context.Context, start int, dryRun bool) (*metadata.PhotoResult, error)
}

// EnrichAuthorPhotoTask looks up a portrait for a single author.
type EnrichAuthorPhotoTask struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug,omitempty"`
}

// Config returns the queue configuration for single author lookups.
func (t EnrichAuthorPhotoTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_author_photo",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func EnrichAuthorPhotoProcessor(enricher PhotoEnricher) backlite.QueueProcessor[EnrichAuthorPhotoTask] {
	return func(ctx context.Context, task EnrichAuthorPhotoTask) error {
		if enricher == nil {
			return fmt.Errorf("photo enricher not configured")
		}

		author := metadata.Author{DocumentID: task.DocumentID, Name: task.Name, Slug: task.Slug}
		outcome, err := enricher.EnrichAuthor(ctx, author, false)
		if err != nil {
			return fmt.Errorf("enrich author %s: %w", task.DocumentID, err)
		}

		log.Printf("[TASK] Author photo for %s: %s", task.Name, outcome)
		return nil
	}
}

func NewEnrichAuthorPhotoQueue(enricher PhotoEnricher) backlite.Queue {
	return backlite.NewQueue(EnrichAuthorPhotoProcessor(enricher))
}

// EnrichAuthorPhotosTask processes every author without a photo in one go,
// so progress is tracked as a single run.
type EnrichAuthorPhotosTask struct {
	Start  int  `json:"start,omitempty"`
	DryRun bool `json:"dry_run,omitempty"`
}

func (t EnrichAuthorPhotosTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_author_photos",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     2 * time.Hour,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func EnrichAuthorPhotosProcessor(enricher PhotoEnricher) backlite.QueueProcessor[EnrichAuthorPhotosTask] {
	return func(ctx context.Context, task EnrichAuthorPhotosTask) error {
		if enricher == nil {
			return fmt.Errorf("photo enricher not configured")
		}

		result, err := enricher.EnrichAll(ctx, task.Start, task.DryRun)
		if err != nil {
			return fmt.Errorf("enrich author photos: %w", err)
		}

		log.Printf("[TASK] Author photos complete: %d total, %d found, %d not found, %d failed",
			result.Total, result.Found, result.NotFound, result.Failed)
		return nil
	}
}

func NewEnrichAuthorPhotosQueue(enricher PhotoEnricher) backlite.Queue {
	return backlite.NewQueue(EnrichAuthorPhotosProcessor(enricher))
}

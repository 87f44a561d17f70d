package importers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/identity"
	"github.com/mrlokans/eknihy-sync/internal/metrics"
	"github.com/mrlokans/eknihy-sync/internal/strapi"
	"github.com/mrlokans/eknihy-sync/internal/utils"
)

const (
	defaultCacheSize = 4096
	// maxSlugAttempts bounds the suffix probing for one book.
	maxSlugAttempts = 1000
)

var (
	// ErrNoExternalID rejects works that could never be deduplicated.
	ErrNoExternalID = errors.New("work has no external identifier")
	// ErrSlugExhausted means every probed slug candidate was taken.
	ErrSlugExhausted = errors.New("no free slug found")
)

// Backend is the content store books are written to.
type Backend interface {
	FindID(ctx context.Context, kind strapi.Kind, field, value string) (string, bool, error)
	Create(ctx context.Context, kind strapi.Kind, fields map[string]any) (string, error)
	Update(ctx context.Context, kind strapi.Kind, id string, fields map[string]any) error
	List(ctx context.Context, kind strapi.Kind, q strapi.ListQuery) (*strapi.Page, error)
}

// Categorizer picks one category label for a record.
type Categorizer interface {
	Classify(topics []string, author, title string) string
}

// Outcome is the result class of one import.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomeDryRun  Outcome = "dry_run"
)

// Result describes what happened to one Work.
type Result struct {
	Outcome  Outcome
	Category string
	Slug     string
	Err      error
}

// Summary aggregates a batch.
type Summary struct {
	Created    int
	Skipped    int
	Failed     int
	Categories map[string]int // created (or would-be created) books per category
}

// Processed returns the number of works that were looked at.
func (s Summary) Processed() int {
	return s.Created + s.Skipped + s.Failed
}

// Options tunes an Orchestrator.
type Options struct {
	DryRun     bool
	WriteDelay time.Duration
	CacheSize  int
	// OnResult is called after every item of ImportAll.
	OnResult func(index int, work *entities.Work, res Result)
	Now      func() time.Time
}

// Orchestrator writes Works into the backend, resolving authors and
// categories and skipping records that already exist. It owns the state of
// one run and is not safe for concurrent use.
type Orchestrator struct {
	backend    Backend
	classifier Categorizer
	index      *identity.Index
	authors    *lru.Cache[string, string]
	categories *lru.Cache[string, string]
	dryRun     bool
	writeDelay time.Duration
	onResult   func(int, *entities.Work, Result)
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator over a pre-built identity index.
// In dry-run mode the backend is never called.
func NewOrchestrator(backend Backend, classifier Categorizer, index *identity.Index, opts Options) *Orchestrator {
	if index == nil {
		index = identity.NewIndex()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	// lru.New only fails for a non-positive size.
	authors, _ := lru.New[string, string](opts.CacheSize)
	categories, _ := lru.New[string, string](opts.CacheSize)
	return &Orchestrator{
		backend:    backend,
		classifier: classifier,
		index:      index,
		authors:    authors,
		categories: categories,
		dryRun:     opts.DryRun,
		writeDelay: opts.WriteDelay,
		onResult:   opts.OnResult,
		now:        opts.Now,
	}
}

// DryRun reports whether writes are simulated.
func (o *Orchestrator) DryRun() bool {
	return o.dryRun
}

// Import writes one Work. Failures are reported in the Result, never as a
// panic or abort, so a batch can continue.
func (o *Orchestrator) Import(ctx context.Context, work *entities.Work) Result {
	if work.ExternalID == "" {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("%q: %w", work.Title, ErrNoExternalID)}
	}
	if o.index.Contains(work.ExternalID) {
		return Result{Outcome: OutcomeSkipped}
	}
	if work.Title == "" {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("work %s has no title", work.ExternalID)}
	}

	category := o.classifier.Classify(work.Topics, work.Author, work.Title)
	res := Result{Category: category}

	authorID := ""
	if work.HasAuthor() {
		id, err := o.ResolveAuthor(ctx, work.Author)
		if err != nil {
			log.Printf("Catalog import: author %q: %v", work.Author, err)
		}
		authorID = id
	}

	categoryID, err := o.resolveCategory(ctx, category)
	if err != nil {
		log.Printf("Catalog import: category %q: %v", category, err)
	}

	base := work.Slug
	if base == "" {
		base = utils.Slugify(work.Title)
	}
	res.Slug = base
	if o.dryRun {
		o.index.Add(work.ExternalID)
		res.Outcome = OutcomeDryRun
		return res
	}
	slug, err := o.uniqueSlug(ctx, base)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("book %q: %w", work.Title, err)
		return res
	}
	res.Slug = slug

	payload := map[string]any{
		"title":            work.Title,
		"slug":             res.Slug,
		"description":      work.Description,
		"isFree":           true,
		"isFeatured":       false,
		"downloads":        0,
		"externalLinks":    externalLinks(work.Links),
		"coverExternalUrl": nil,
		"mlpId":            work.ExternalID,
		"publishedAt":      o.timestamp(),
	}
	if authorID != "" {
		payload["author"] = authorID
	}
	if categoryID != "" {
		payload["category"] = categoryID
	}

	if _, err := o.backend.Create(ctx, strapi.KindBooks, payload); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("create book %q: %w", work.Title, err)
		return res
	}

	o.index.Add(work.ExternalID)
	res.Outcome = OutcomeCreated
	return res
}

// ImportAll imports works in order, pausing WriteDelay after every
// non-skipped item outside dry-run. It stops early only when ctx is done.
func (o *Orchestrator) ImportAll(ctx context.Context, works []*entities.Work) (Summary, error) {
	summary := Summary{Categories: make(map[string]int)}

	for i, work := range works {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := o.Import(ctx, work)
		metrics.ImportedBooksTotal.WithLabelValues(string(res.Outcome)).Inc()

		switch res.Outcome {
		case OutcomeCreated, OutcomeDryRun:
			summary.Created++
			summary.Categories[res.Category]++
			if res.Outcome == OutcomeCreated {
				metrics.ImportedByCategory.WithLabelValues(res.Category).Inc()
			}
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
			log.Printf("Catalog import: %v", res.Err)
		}

		if o.onResult != nil {
			o.onResult(i, work, res)
		}

		if res.Outcome != OutcomeSkipped && !o.dryRun {
			if err := utils.Sleep(ctx, o.writeDelay); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

// ResolveAuthor returns the backend id of the named author, creating the
// author when missing. Dry-run ids are synthetic.
func (o *Orchestrator) ResolveAuthor(ctx context.Context, name string) (string, error) {
	return o.resolve(ctx, "author", o.authors, strapi.KindAuthors, name, "dry-")
}

func (o *Orchestrator) resolveCategory(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	return o.resolve(ctx, "category", o.categories, strapi.KindCategories, name, "dry-cat-")
}

func (o *Orchestrator) resolve(ctx context.Context, cacheName string, cache *lru.Cache[string, string], kind strapi.Kind, name, dryPrefix string) (string, error) {
	if id, ok := cache.Get(name); ok {
		metrics.CacheLookupsTotal.WithLabelValues(cacheName, "hit").Inc()
		return id, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues(cacheName, "miss").Inc()

	if o.dryRun {
		id := dryPrefix + utils.Slugify(name)
		cache.Add(name, id)
		return id, nil
	}

	id, found, err := o.backend.FindID(ctx, kind, "name", name)
	if err != nil {
		return "", fmt.Errorf("lookup: %w", err)
	}
	if !found {
		id, err = o.backend.Create(ctx, kind, map[string]any{
			"name":        name,
			"slug":        utils.Slugify(name),
			"publishedAt": o.timestamp(),
		})
		if err != nil {
			return "", fmt.Errorf("create: %w", err)
		}
		log.Printf("Catalog import: created %s %q", cacheName, name)
	}

	cache.Add(name, id)
	return id, nil
}

// uniqueSlug probes base, base-1, base-2... until the backend reports the
// slug as free. A failed probe settles on the current candidate.
func (o *Orchestrator) uniqueSlug(ctx context.Context, base string) (string, error) {
	for n := 0; n < maxSlugAttempts; n++ {
		candidate := utils.UniqueSlugCandidate(base, n)
		_, taken, err := o.backend.FindID(ctx, strapi.KindBooks, "slug", candidate)
		if err != nil || !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s after %d candidates: %w", base, maxSlugAttempts, ErrSlugExhausted)
}

func (o *Orchestrator) timestamp() string {
	return o.now().UTC().Format(time.RFC3339)
}

func externalLinks(links []entities.DownloadLink) []entities.DownloadLink {
	if links == nil {
		return []entities.DownloadLink{}
	}
	return links
}

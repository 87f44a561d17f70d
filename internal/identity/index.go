// Package identity tracks which upstream records already exist in the
// content backend so re-harvested records are skipped.
package identity

import (
	"context"
	"fmt"

	"github.com/mrlokans/eknihy-sync/internal/strapi"
)

// ExternalIDField is the book attribute holding the upstream identifier.
const ExternalIDField = "mlpId"

const rebuildPageSize = 200

// Lister pages through a backend collection.
type Lister interface {
	List(ctx context.Context, kind strapi.Kind, q strapi.ListQuery) (*strapi.Page, error)
}

// Index is an insert-only set of external ids for a single run.
// It is not safe for concurrent use.
type Index struct {
	ids map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{ids: make(map[string]struct{})}
}

// Contains reports whether id is known.
func (x *Index) Contains(id string) bool {
	_, ok := x.ids[id]
	return ok
}

// Add records id. Empty ids are ignored.
func (x *Index) Add(id string) {
	if id == "" {
		return
	}
	x.ids[id] = struct{}{}
}

// Len returns the number of known ids.
func (x *Index) Len() int {
	return len(x.ids)
}

// Rebuild loads every book external id from the backend into the index.
// On a listing error the ids collected so far are kept and the error is
// returned; callers may continue with the partial index.
func (x *Index) Rebuild(ctx context.Context, lister Lister) error {
	for page := 1; ; page++ {
		res, err := lister.List(ctx, strapi.KindBooks, strapi.ListQuery{
			Fields:   []string{ExternalIDField},
			Filters:  []strapi.Filter{{Path: ExternalIDField, Op: strapi.OpNotNull}},
			Page:     page,
			PageSize: rebuildPageSize,
		})
		if err != nil {
			return fmt.Errorf("load existing ids (page %d): %w", page, err)
		}

		for _, entry := range res.Data {
			x.Add(entry.String(ExternalIDField))
		}

		if res.Last(page) {
			return nil
		}
	}
}

package services

import (
	"context"
	"fmt"

	"github.com/mrlokans/eknihy-sync/internal/strapi"
)

type lister interface {
	List(ctx context.Context, kind strapi.Kind, q strapi.ListQuery) (*strapi.Page, error)
}

// listAll follows pagination from page 1 until the last page.
func listAll(ctx context.Context, l lister, kind strapi.Kind, q strapi.ListQuery) ([]strapi.Entry, error) {
	var entries []strapi.Entry
	for page := 1; ; page++ {
		q.Page = page
		res, err := l.List(ctx, kind, q)
		if err != nil {
			return entries, fmt.Errorf("list %s (page %d): %w", kind, page, err)
		}
		entries = append(entries, res.Data...)
		if res.Last(page) {
			return entries, nil
		}
	}
}

package oaipmh

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/marc"
	"github.com/mrlokans/eknihy-sync/internal/utils"
)

// DefaultPageDelay is the pause before following a resumption token.
const DefaultPageDelay = 1500 * time.Millisecond

// State is the pagination state of a harvest.
type State int

const (
	StateStart State = iota
	StateFetching
	StateHasMore
	StateExhausted
	StateError
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetching:
		return "fetching"
	case StateHasMore:
		return "has_more"
	case StateExhausted:
		return "exhausted"
	case StateError:
		return "error"
	}
	return "unknown"
}

// PageStats is reported after every fetched page.
type PageStats struct {
	Page     int
	Records  int
	Accepted int
	Total    int
}

// Options configures one harvest.
type Options struct {
	Set            string
	MetadataPrefix string
	From           string
	// Limit stops the harvest once this many works are accepted. 0 means no limit.
	Limit  int
	OnPage func(PageStats)
}

// Result is everything a harvest accumulated.
type Result struct {
	Works    []*entities.Work
	Pages    int
	Records  int
	Rejected map[string]int
	State    State
	// Limited is set when Limit cut the harvest short.
	Limited bool
}

// RejectedTotal sums rejections over all reasons.
func (r *Result) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

type recordLister interface {
	ListRecords(ctx context.Context, req ListRequest, token string) (*RecordsPage, error)
}

// Harvester drives ListRecords pagination and parses every record.
type Harvester struct {
	client    recordLister
	parser    *marc.Parser
	pageDelay time.Duration
}

// NewHarvester creates a harvester. A negative delay disables the pause.
func NewHarvester(client *Client, parser *marc.Parser, pageDelay time.Duration) *Harvester {
	if pageDelay < 0 {
		pageDelay = 0
	}
	return &Harvester{client: client, parser: parser, pageDelay: pageDelay}
}

// Harvest pages through the repository until the token runs out, the limit
// is reached or an error occurs. The result is never nil: on error it holds
// everything accepted before the failing page, and the error is returned
// alongside. There are no retries.
func (h *Harvester) Harvest(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{Rejected: make(map[string]int), State: StateStart}
	req := ListRequest{Set: opts.Set, MetadataPrefix: opts.MetadataPrefix, From: opts.From}

	token := ""
	for {
		if token != "" {
			if err := utils.Sleep(ctx, h.pageDelay); err != nil {
				res.State = StateError
				return res, err
			}
		}

		res.State = StateFetching
		page, err := h.client.ListRecords(ctx, req, token)
		if err != nil {
			if errors.Is(err, ErrNoRecordsMatch) {
				res.State = StateExhausted
				return res, nil
			}
			res.State = StateError
			log.Printf("OAI harvest: page %d failed: %v", res.Pages+1, err)
			return res, err
		}
		res.Pages++

		accepted := 0
		for _, raw := range page.Records {
			res.Records++
			work, err := h.parser.Parse(raw)
			if err != nil {
				res.Rejected[marc.RejectionReason(err)]++
				continue
			}
			res.Works = append(res.Works, work)
			accepted++
			if opts.Limit > 0 && len(res.Works) >= opts.Limit {
				res.Limited = true
				break
			}
		}

		if opts.OnPage != nil {
			opts.OnPage(PageStats{Page: res.Pages, Records: len(page.Records), Accepted: accepted, Total: len(res.Works)})
		}

		if page.ResumptionToken == "" {
			res.State = StateExhausted
			return res, nil
		}
		res.State = StateHasMore
		if res.Limited {
			return res, nil
		}
		token = page.ResumptionToken
	}
}

// Package oaipmh harvests MARC21 records from an OAI-PMH 2.0 repository.
package oaipmh

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/eknihy-sync/internal/marc"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "eknihy-sync/1.0 (+https://github.com/mrlokans/eknihy-sync)"
)

// ListRequest selects the records of a first ListRecords call.
type ListRequest struct {
	Set            string
	MetadataPrefix string
	From           string // YYYY-MM-DD, empty for a full harvest
}

// RecordsPage is one ListRecords response.
type RecordsPage struct {
	Records         []marc.Raw
	ResumptionToken string
}

// Client issues OAI-PMH verbs over HTTP GET.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the repository at baseURL. A zero timeout
// uses the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// ListRecords fetches the first page for req, or the page continuing from
// token when token is non-empty.
func (c *Client) ListRecords(ctx context.Context, req ListRequest, token string) (*RecordsPage, error) {
	q := url.Values{}
	q.Set("verb", "ListRecords")
	if token != "" {
		q.Set("resumptionToken", token)
	} else {
		if req.Set != "" {
			q.Set("set", req.Set)
		}
		q.Set("metadataPrefix", req.MetadataPrefix)
		if req.From != "" {
			q.Set("from", req.From)
		}
	}

	env, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := env.protocolError(); err != nil {
		return nil, err
	}

	page := &RecordsPage{}
	if env.ListRecords == nil {
		return page, nil
	}
	for _, node := range env.ListRecords.Records {
		page.Records = append(page.Records, node.raw())
	}
	page.ResumptionToken = strings.TrimSpace(env.ListRecords.ResumptionToken)
	return page, nil
}

// GetRecord fetches a single record by identifier.
func (c *Client) GetRecord(ctx context.Context, identifier, metadataPrefix string) (marc.Raw, error) {
	q := url.Values{}
	q.Set("verb", "GetRecord")
	q.Set("identifier", identifier)
	q.Set("metadataPrefix", metadataPrefix)

	env, err := c.fetch(ctx, q)
	if err != nil {
		return marc.Raw{}, err
	}
	if err := env.protocolError(); err != nil {
		return marc.Raw{}, err
	}
	if env.GetRecord == nil {
		return marc.Raw{}, fmt.Errorf("GetRecord %s: response without record", identifier)
	}
	return env.GetRecord.Record.raw(), nil
}

func (c *Client) fetch(ctx context.Context, q url.Values) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", q.Get("verb"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	var env envelope
	if err := xml.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

// Package strapi is a small client for the Strapi v5 REST content API,
// limited to the collection operations the catalog sync needs.
package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 20 * time.Second
	uploadTimeout  = 60 * time.Second
	maxErrorBody   = 300
)

// Client talks to one Strapi instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a client for baseURL. A zero timeout uses the default.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// BaseURL returns the instance root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasToken reports whether writes can be authorized.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// Ping checks connectivity with a one-item book listing.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.List(ctx, KindBooks, ListQuery{PageSize: 1})
	if err != nil {
		return fmt.Errorf("connectivity check: %w", err)
	}
	return nil
}

// List fetches one page of a collection.
func (c *Client) List(ctx context.Context, kind Kind, q ListQuery) (*Page, error) {
	var page Page
	if err := c.doJSON(ctx, http.MethodGet, "/api/"+string(kind), q.Values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FindID returns the documentId of the first entry whose field equals value.
func (c *Client) FindID(ctx context.Context, kind Kind, field, value string) (string, bool, error) {
	page, err := c.List(ctx, kind, ListQuery{
		Fields:  []string{field},
		Filters: []Filter{Eq(field, value)},
	})
	if err != nil {
		return "", false, err
	}
	if len(page.Data) == 0 {
		return "", false, nil
	}
	return page.Data[0].DocumentID(), true, nil
}

// Create stores a new entry and returns its documentId.
func (c *Client) Create(ctx context.Context, kind Kind, fields map[string]any) (string, error) {
	if !c.HasToken() {
		return "", ErrMissingToken
	}

	var resp struct {
		Data Entry `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/"+string(kind), nil, map[string]any{"data": fields}, &resp); err != nil {
		return "", err
	}

	id := resp.Data.DocumentID()
	if id == "" {
		return "", fmt.Errorf("create %s: response without documentId", kind)
	}
	return id, nil
}

// Update replaces the given fields of an existing entry.
func (c *Client) Update(ctx context.Context, kind Kind, id string, fields map[string]any) error {
	if !c.HasToken() {
		return ErrMissingToken
	}
	path := "/api/" + string(kind) + "/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodPut, path, nil, map[string]any{"data": fields}, nil)
}

// Upload stores a file in the media library and returns its numeric id.
func (c *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (int, error) {
	if !c.HasToken() {
		return 0, ErrMissingToken
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return 0, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return 0, fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close form: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", nil, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var files []struct {
		ID int `json:"id"`
	}
	if err := c.send(req, &files); err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("upload %s: empty response", filename)
	}
	return files[0].ID, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

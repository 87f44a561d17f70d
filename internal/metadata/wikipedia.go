package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	userAgent           = "eknihy-sync/1.0 (+https://github.com/mrlokans/eknihy-sync)"
	defaultWikiTimeout  = 10 * time.Second
	imageTimeout        = 20 * time.Second
	maxImageSize        = 10 << 20
	thumbnailWidth      = "400px"
	minWikiTitleLength  = 3
	wikiSummaryPathTmpl = "%s/api/rest_v1/page/summary/%s"
)

var (
	// ErrPortraitNotFound means no language edition had a usable portrait.
	ErrPortraitNotFound = errors.New("no portrait found")
	// ErrNotAnImage is returned when a download is not served as image/*.
	ErrNotAnImage = errors.New("response is not an image")
)

var thumbWidthPattern = regexp.MustCompile(`/\d+px-`)

// Extensions for the media types Wikimedia serves thumbnails as.
var imageExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/tiff":    "tif",
}

// Portrait is a thumbnail found on Wikipedia.
type Portrait struct {
	URL      string
	Language string
	Title    string
}

// Image is a downloaded picture.
type Image struct {
	Data        []byte
	ContentType string
}

// Ext returns the file extension for the image without the dot. Unknown
// types fall back to the system mime table, then to "img".
func (i *Image) Ext() string {
	mediaType, _, err := mime.ParseMediaType(i.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(i.ContentType))
	}
	if ext, ok := imageExtensions[mediaType]; ok {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "img"
}

// WikipediaClient looks up author portraits through the page summary REST API.
type WikipediaClient struct {
	httpClient  *http.Client
	imageClient *http.Client
	languages   []string
	siteURL     func(lang string) string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		timer := time.NewTimer(r.interval - since)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewWikipediaClient creates a client that tries the given language
// editions in order, waiting delay between summary requests.
func NewWikipediaClient(languages []string, delay time.Duration) *WikipediaClient {
	if len(languages) == 0 {
		languages = []string{"cs", "en"}
	}
	return &WikipediaClient{
		httpClient:  &http.Client{Timeout: defaultWikiTimeout},
		imageClient: &http.Client{Timeout: imageTimeout},
		languages:   languages,
		siteURL: func(lang string) string {
			return "https://" + lang + ".wikipedia.org"
		},
		rateLimiter: newRateLimiter(delay),
	}
}

// NameVariants returns the article titles worth trying for a catalog name:
// "Surname, Given" turned around, the name as stored, and for three or more
// words just the first and last.
func NameVariants(name string) []string {
	name = strings.TrimSpace(name)
	display := name
	if surname, given, ok := strings.Cut(name, ","); ok {
		surname, given = strings.TrimSpace(surname), strings.TrimSpace(given)
		if given != "" {
			display = given + " " + surname
		}
	}

	var variants []string
	if display != name {
		variants = append(variants, display)
	}
	variants = append(variants, name)

	words := strings.Fields(display)
	if len(words) >= 3 {
		short := words[0] + " " + words[len(words)-1]
		if !containsString(variants, short) {
			variants = append(variants, short)
		}
	}
	return variants
}

// FindPortrait tries every name variant in every language and returns the
// first standard article with a thumbnail, resized to a fixed width.
// Lookup failures of single requests are skipped.
func (c *WikipediaClient) FindPortrait(ctx context.Context, name string) (*Portrait, error) {
	for _, variant := range NameVariants(name) {
		title := strings.ReplaceAll(strings.TrimSpace(variant), " ", "_")
		if utf8.RuneCountInString(title) < minWikiTitleLength {
			continue
		}
		for _, lang := range c.languages {
			summary, err := c.summary(ctx, lang, title)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			if summary.Type != "standard" || summary.Thumbnail.Source == "" {
				continue
			}
			return &Portrait{
				URL:      thumbWidthPattern.ReplaceAllString(summary.Thumbnail.Source, "/"+thumbnailWidth+"-"),
				Language: lang,
				Title:    title,
			}, nil
		}
	}
	return nil, ErrPortraitNotFound
}

type pageSummary struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Thumbnail struct {
		Source string `json:"source"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnail"`
}

func (c *WikipediaClient) summary(ctx context.Context, lang, title string) (*pageSummary, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(wikiSummaryPathTmpl, c.siteURL(lang), url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var summary pageSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &summary, nil
}

// DownloadImage fetches a picture and checks that it is served as image/*.
func (c *WikipediaClient) DownloadImage(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.imageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrNotAnImage, mediaType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &Image{Data: data, ContentType: mediaType}, nil
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

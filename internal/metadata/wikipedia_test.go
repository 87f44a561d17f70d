package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameVariants(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Čapek, Karel", []string{"Karel Čapek", "Čapek, Karel"}},
		{"Dostojevskij, Fjodor Michajlovič", []string{"Fjodor Michajlovič Dostojevskij", "Dostojevskij, Fjodor Michajlovič", "Fjodor Dostojevskij"}},
		{"Homér", []string{"Homér"}},
		{"Jan Amos Komenský", []string{"Jan Amos Komenský", "Jan Komenský"}},
		{"Sofoklés,", []string{"Sofoklés,"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NameVariants(tt.input))
		})
	}
}

func TestImage_Ext(t *testing.T) {
	assert.Equal(t, "jpg", (&Image{ContentType: "image/jpeg"}).Ext())
	assert.Equal(t, "png", (&Image{ContentType: "image/png"}).Ext())
	assert.Equal(t, "svg", (&Image{ContentType: "image/svg+xml"}).Ext())
	assert.Equal(t, "webp", (&Image{ContentType: "image/webp"}).Ext())
	assert.Equal(t, "png", (&Image{ContentType: "image/PNG; charset=binary"}).Ext())
	assert.Equal(t, "img", (&Image{ContentType: "image/x-unknown-format"}).Ext())
}

// wikiServer serves summaries keyed by "lang/title" and records requests.
type wikiServer struct {
	mu        sync.Mutex
	summaries map[string]map[string]any
	requests  []string
}

func (w *wikiServer) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	lang := parts[0]
	title := strings.TrimPrefix("/"+parts[1], "/api/rest_v1/page/summary/")

	w.mu.Lock()
	w.requests = append(w.requests, lang+"/"+title)
	summary, ok := w.summaries[lang+"/"+title]
	w.mu.Unlock()

	if r.Header.Get("User-Agent") == "" {
		rw.WriteHeader(http.StatusForbidden)
		return
	}
	if !ok {
		rw.WriteHeader(http.StatusNotFound)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(summary)
}

func newTestWikiClient(t *testing.T, srv *wikiServer) *WikipediaClient {
	t.Helper()
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	client := NewWikipediaClient([]string{"cs", "en"}, 0)
	client.siteURL = func(lang string) string { return server.URL + "/" + lang }
	return client
}

func standardSummary(thumb string) map[string]any {
	return map[string]any{
		"type":      "standard",
		"thumbnail": map[string]any{"source": thumb, "width": 320, "height": 427},
	}
}

func TestWikipediaClient_FindPortrait(t *testing.T) {
	srv := &wikiServer{summaries: map[string]map[string]any{
		"en/Karel_Čapek": standardSummary("https://upload.wikimedia.org/thumb/a/ab/Capek.jpg/320px-Capek.jpg"),
	}}
	client := newTestWikiClient(t, srv)

	portrait, err := client.FindPortrait(context.Background(), "Čapek, Karel")

	require.NoError(t, err)
	assert.Equal(t, "https://upload.wikimedia.org/thumb/a/ab/Capek.jpg/400px-Capek.jpg", portrait.URL)
	assert.Equal(t, "en", portrait.Language)
	assert.Equal(t, []string{"cs/Karel_Čapek", "en/Karel_Čapek"}, srv.requests)
}

func TestWikipediaClient_FindPortrait_PrefersFirstLanguage(t *testing.T) {
	srv := &wikiServer{summaries: map[string]map[string]any{
		"cs/Karel_Čapek": standardSummary("https://upload.wikimedia.org/cs/250px-Capek.png"),
		"en/Karel_Čapek": standardSummary("https://upload.wikimedia.org/en/320px-Capek.jpg"),
	}}
	client := newTestWikiClient(t, srv)

	portrait, err := client.FindPortrait(context.Background(), "Čapek, Karel")

	require.NoError(t, err)
	assert.Equal(t, "cs", portrait.Language)
	assert.Equal(t, "https://upload.wikimedia.org/cs/400px-Capek.png", portrait.URL)
	assert.Len(t, srv.requests, 1)
}

func TestWikipediaClient_FindPortrait_SkipsUnusableArticles(t *testing.T) {
	srv := &wikiServer{summaries: map[string]map[string]any{
		// disambiguation page
		"cs/Jan_Neruda": {"type": "disambiguation", "thumbnail": map[string]any{"source": "https://x/100px-a.jpg"}},
		// article without picture
		"en/Jan_Neruda": {"type": "standard"},
		// stored form finds it
		"cs/Neruda,_Jan": standardSummary("https://upload.wikimedia.org/220px-Neruda.jpg"),
	}}
	client := newTestWikiClient(t, srv)

	portrait, err := client.FindPortrait(context.Background(), "Neruda, Jan")

	require.NoError(t, err)
	assert.Equal(t, "https://upload.wikimedia.org/400px-Neruda.jpg", portrait.URL)
	assert.Equal(t, "Neruda,_Jan", portrait.Title)
}

func TestWikipediaClient_FindPortrait_NotFound(t *testing.T) {
	srv := &wikiServer{summaries: map[string]map[string]any{}}
	client := newTestWikiClient(t, srv)

	_, err := client.FindPortrait(context.Background(), "Xy")

	assert.ErrorIs(t, err, ErrPortraitNotFound)
	assert.Empty(t, srv.requests, "titles shorter than three characters are not looked up")
}

func TestWikipediaClient_FindPortrait_Cancelled(t *testing.T) {
	srv := &wikiServer{summaries: map[string]map[string]any{}}
	client := newTestWikiClient(t, srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FindPortrait(ctx, "Čapek, Karel")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWikipediaClient_DownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.jpg":
			w.Header().Set("Content-Type", "image/jpeg; charset=binary")
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewWikipediaClient(nil, 0)

	img, err := client.DownloadImage(context.Background(), server.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, img.Data)

	_, err = client.DownloadImage(context.Background(), server.URL+"/page.html")
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = client.DownloadImage(context.Background(), server.URL+"/missing.jpg")
	assert.ErrorContains(t, err, "404")
}

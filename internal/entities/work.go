package entities

// DownloadLink is one downloadable file of a Work.
type DownloadLink struct {
	URL    string `json:"url"`
	Format string `json:"format"` // e.g., "EPUB", "PDF"
	Ext    string `json:"ext"`    // lower-case file extension
	Label  string `json:"label"`  // free text from the source record
}

// Work is a normalized bibliographic record ready for import.
// JSON tags match the dump format of the harvest command so dumps can be
// re-imported without conversion.
type Work struct {
	ExternalID  string         `json:"mlpId"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Author      string         `json:"author,omitempty"`
	Description string         `json:"description,omitempty"`
	Year        *int           `json:"year,omitempty"`
	Topics      []string       `json:"topics"`
	CoverURL    string         `json:"coverUrl,omitempty"`
	Links       []DownloadLink `json:"links"`
	AllLinks    []DownloadLink `json:"-"`
}

// HasAuthor reports whether the record names an author.
func (w *Work) HasAuthor() bool {
	return w.Author != ""
}

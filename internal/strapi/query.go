package strapi

import (
	"net/url"
	"strconv"
	"strings"
)

// Kind names a collection type exposed under /api.
type Kind string

const (
	KindBooks      Kind = "books"
	KindAuthors    Kind = "authors"
	KindCategories Kind = "categories"
)

// Filter operators used by the sync tools.
const (
	OpEq      = "$eq"
	OpNull    = "$null"
	OpNotNull = "$notNull"
)

// Filter is one condition. Path uses dots for relations: "author.id".
type Filter struct {
	Path  string
	Op    string
	Value string
}

// ListQuery describes a collection listing in the REST query dialect.
type ListQuery struct {
	Fields   []string
	Filters  []Filter
	Populate map[string][]string // relation -> fields to return
	Sort     string
	Page     int
	PageSize int
	// PublicationState "preview" includes drafts.
	PublicationState string
}

// Eq is a shorthand for an equality filter.
func Eq(path, value string) Filter {
	return Filter{Path: path, Op: OpEq, Value: value}
}

// Values encodes the query into bracketed parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	for i, f := range q.Fields {
		v.Set("fields["+strconv.Itoa(i)+"]", f)
	}
	for _, f := range q.Filters {
		key := "filters"
		for _, part := range strings.Split(f.Path, ".") {
			key += "[" + part + "]"
		}
		key += "[" + f.Op + "]"
		value := f.Value
		if value == "" && (f.Op == OpNull || f.Op == OpNotNull) {
			value = "true"
		}
		v.Set(key, value)
	}
	for relation, fields := range q.Populate {
		if len(fields) == 0 {
			v.Set("populate["+relation+"]", "true")
			continue
		}
		for i, f := range fields {
			v.Set("populate["+relation+"][fields]["+strconv.Itoa(i)+"]", f)
		}
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("pagination[page]", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pagination[pageSize]", strconv.Itoa(q.PageSize))
	}
	if q.PublicationState != "" {
		v.Set("publicationState", q.PublicationState)
	}
	return v
}

// Pagination is the meta block of a listing.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// Entry is one flattened document as returned by the v5 REST API.
type Entry map[string]any

// DocumentID returns the stable document identifier.
func (e Entry) DocumentID() string {
	return e.String("documentId")
}

// String returns a string attribute, or "" when absent or of another type.
func (e Entry) String(key string) string {
	if s, ok := e[key].(string); ok {
		return s
	}
	return ""
}

// Relation returns a populated to-one relation, or nil when it is empty.
func (e Entry) Relation(key string) Entry {
	if m, ok := e[key].(map[string]any); ok {
		return Entry(m)
	}
	return nil
}

// Page is one page of a listing.
type Page struct {
	Data []Entry `json:"data"`
	Meta struct {
		Pagination Pagination `json:"pagination"`
	} `json:"meta"`
}

// Last reports whether no page after the requested one should be fetched.
// A missing pageCount counts as a single page.
func (p *Page) Last(requested int) bool {
	if len(p.Data) == 0 {
		return true
	}
	pageCount := p.Meta.Pagination.PageCount
	if pageCount == 0 {
		pageCount = 1
	}
	return requested >= pageCount
}

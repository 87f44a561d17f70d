package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength bounds the length of generated slugs.
const MaxSlugLength = 200

var (
	// Anything outside the slug alphabet once diacritics are folded away
	invalidSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	// Whitespace runs become a single separator
	slugWhitespace = regexp.MustCompile(`\s+`)
	// Collapse repeated separators
	slugDashes = regexp.MustCompile(`-+`)
)

// FoldDiacritics decomposes s, drops combining marks and lower-cases the
// result, so "Obálka" and "obalka" compare equal.
func FoldDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// Slugify turns a display string into a URL-safe slug.
// Slugify(Slugify(s)) == Slugify(s) for every s.
func Slugify(text string) string {
	slug := FoldDiacritics(text)
	slug = invalidSlugChars.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(strings.TrimSpace(slug), "-")
	slug = strings.Trim(slugDashes.ReplaceAllString(slug, "-"), "-")

	if len(slug) > MaxSlugLength {
		// Only ASCII is left at this point, so byte slicing is safe
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// UniqueSlugCandidate returns the n-th collision candidate for base:
// base itself for n == 0, then base-1, base-2, ...
func UniqueSlugCandidate(base string, n int) string {
	if n <= 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

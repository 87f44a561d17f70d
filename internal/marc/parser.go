package marc

import (
	"strconv"
	"strings"

	"github.com/mrlokans/eknihy-sync/internal/entities"
	"github.com/mrlokans/eknihy-sync/internal/utils"
)

// MARC tags and subfield codes read by the parser
const (
	tagTitle         = "245"
	tagMainAuthor    = "100"
	tagAddedAuthor   = "700"
	tagSummary       = "520"
	tagTopicalTerm   = "650"
	tagFixedLength   = "008"
	tagElectronicLoc = "856"
)

// Raw is one harvested record before normalization.
type Raw struct {
	Identifier string
	Deleted    bool
	Record     Accessor
}

// Parser converts raw records into Works. It holds no state.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse normalizes a raw record. A nil Work is always paired with one of the
// rejection errors from errors.go.
func (p *Parser) Parse(raw Raw) (*entities.Work, error) {
	if raw.Deleted {
		return nil, ErrDeleted
	}
	if strings.TrimSpace(raw.Identifier) == "" {
		return nil, ErrNoIdentifier
	}
	if raw.Record == nil {
		return nil, ErrNoPayload
	}
	rec := raw.Record

	title := parseTitle(rec)
	if title == "" {
		return nil, ErrNoTitle
	}

	links := extractLinks(rec)
	if len(links.main) == 0 {
		return nil, ErrNoLinks
	}

	description, _ := rec.FirstSubfield(tagSummary, "a")

	return &entities.Work{
		ExternalID:  strings.TrimSpace(raw.Identifier),
		Title:       title,
		Slug:        utils.Slugify(title),
		Author:      parseAuthor(rec),
		Description: description,
		Year:        parseYear(rec),
		Topics:      parseTopics(rec),
		CoverURL:    links.cover,
		Links:       links.main,
		AllLinks:    links.all,
	}, nil
}

func parseTitle(rec Accessor) string {
	main, _ := rec.FirstSubfield(tagTitle, "a")
	title := strings.TrimRight(main, "/ :")
	if sub, ok := rec.FirstSubfield(tagTitle, "b"); ok {
		title += " " + strings.TrimRight(sub, "/ :")
	}
	return strings.TrimSpace(title)
}

// ParseAuthor returns the primary author, falling back to the first added
// author. Used by the parser and by author repair.
func ParseAuthor(rec Accessor) string {
	return parseAuthor(rec)
}

func parseAuthor(rec Accessor) string {
	name, ok := rec.FirstSubfield(tagMainAuthor, "a")
	if !ok {
		name, _ = rec.FirstSubfield(tagAddedAuthor, "a")
	}
	return strings.TrimSpace(strings.TrimRight(name, ",. "))
}

func parseTopics(rec Accessor) []string {
	raw := rec.AllSubfields(tagTopicalTerm, "a")
	topics := make([]string, 0, len(raw))
	for _, topic := range raw {
		topic = strings.TrimRight(topic, ".,;")
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

// parseYear reads Date1 (positions 07-10) of the 008 fixed-length field.
func parseYear(rec Accessor) *int {
	field, ok := rec.ControlField(tagFixedLength)
	if !ok {
		return nil
	}
	chars := []rune(field)
	if len(chars) < 11 {
		return nil
	}
	digits := strings.TrimSpace(string(chars[7:11]))
	if digits == "" {
		return nil
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil
		}
	}
	year, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &year
}

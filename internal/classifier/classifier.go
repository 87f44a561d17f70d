// Package classifier assigns one category label to a Work.
//
// The decision runs through five tiers, first match wins:
//
//  1. exact topic lookup
//  2. topic keyword substring
//  3. title keyword groups
//  4. foreign author heuristic (surname list, patronymic suffix, nobility particle)
//  5. default category
//
// Classify is pure: it does no I/O and never fails.
package classifier

import (
	"fmt"
	"strings"
)

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	tax      *Taxonomy
	surnames map[string]struct{}
}

// New builds a classifier over the given tables.
func New(tax *Taxonomy) *Classifier {
	surnames := make(map[string]struct{}, len(tax.ForeignSurnames))
	for _, s := range tax.ForeignSurnames {
		surnames[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	exact := make(map[string]string, len(tax.TopicExact))
	for topic, category := range tax.TopicExact {
		exact[strings.ToLower(topic)] = category
	}
	normalized := *tax
	normalized.TopicExact = exact

	return &Classifier{tax: &normalized, surnames: surnames}
}

// NewDefault builds a classifier over the embedded tables.
func NewDefault() *Classifier {
	tax, err := DefaultTaxonomy()
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return New(tax)
}

// Load returns a classifier over the tables in path, or over the embedded
// tables when path is empty.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return NewDefault(), nil
	}
	tax, err := LoadTaxonomy(path)
	if err != nil {
		return nil, err
	}
	return New(tax), nil
}

// Taxonomy returns the tables in use.
func (c *Classifier) Taxonomy() *Taxonomy {
	return c.tax
}

// Classify picks the category for a record. author and title may be empty.
func (c *Classifier) Classify(topics []string, author, title string) string {
	if category, ok := c.byExactTopic(topics); ok {
		return category
	}
	if category, ok := c.byTopicKeyword(topics); ok {
		return category
	}
	if category, ok := c.byTitle(title); ok {
		return category
	}
	if c.IsForeignAuthor(author) {
		return c.tax.ForeignCategory
	}
	return c.tax.DefaultCategory
}

func (c *Classifier) byExactTopic(topics []string) (string, bool) {
	for _, topic := range topics {
		key := strings.TrimRight(strings.TrimSpace(strings.ToLower(topic)), ".,;")
		if category, ok := c.tax.TopicExact[key]; ok {
			return category, true
		}
	}
	return "", false
}

func (c *Classifier) byTopicKeyword(topics []string) (string, bool) {
	for _, topic := range topics {
		lower := strings.ToLower(topic)
		for _, rule := range c.tax.TopicKeywords {
			if strings.Contains(lower, rule.Keyword) {
				return rule.Category, true
			}
		}
	}
	return "", false
}

func (c *Classifier) byTitle(title string) (string, bool) {
	if title == "" {
		return "", false
	}
	lower := strings.ToLower(title)
	for _, group := range c.tax.TitleKeywords {
		for _, keyword := range group.Keywords {
			if strings.Contains(lower, keyword) {
				return group.Category, true
			}
		}
	}
	return "", false
}

// IsForeignAuthor applies the authorship heuristic to a "Surname, Given"
// name. An empty name is never foreign.
func (c *Classifier) IsForeignAuthor(author string) bool {
	if author == "" {
		return false
	}

	parts := strings.Split(author, ",")
	surname := strings.ToLower(strings.TrimSpace(parts[0]))
	if _, ok := c.surnames[surname]; ok {
		return true
	}

	// Patronymics follow the first given name: "Fjodor Michajlovič"
	if len(parts) > 1 {
		words := strings.Fields(strings.ToLower(parts[1]))
		for _, word := range words[min(1, len(words)):] {
			for _, suffix := range c.tax.PatronymicSuffixes {
				if strings.HasSuffix(word, suffix) {
					return true
				}
			}
		}
	}

	lower := strings.ToLower(author)
	for _, particle := range c.tax.NobilityParticles {
		if strings.Contains(lower, particle) {
			return true
		}
	}
	return false
}

package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// KeywordRule maps a topic substring to a category.
type KeywordRule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// KeywordGroup maps any of several title substrings to one category.
type KeywordGroup struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy holds the lookup tables the classifier runs on. The tables are
// plain data so they can be corrected without a rebuild.
type Taxonomy struct {
	DefaultCategory    string            `yaml:"default_category"`
	ForeignCategory    string            `yaml:"foreign_category"`
	Categories         []string          `yaml:"categories"`
	TopicExact         map[string]string `yaml:"topic_exact"`
	TopicKeywords      []KeywordRule     `yaml:"topic_keywords"`
	TitleKeywords      []KeywordGroup    `yaml:"title_keywords"`
	PatronymicSuffixes []string          `yaml:"patronymic_suffixes"`
	NobilityParticles  []string          `yaml:"nobility_particles"`
	ForeignSurnames    []string          `yaml:"foreign_surnames"`
}

// DefaultTaxonomy returns the tables compiled into the binary.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomyYAML)
}

// LoadTaxonomy reads replacement tables from a YAML file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes and validates taxonomy YAML.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}
	return &tax, nil
}

// Validate checks that every category referenced by a table is declared.
func (t *Taxonomy) Validate() error {
	if t.DefaultCategory == "" {
		return errors.New("taxonomy: default_category is required")
	}
	if t.ForeignCategory == "" {
		return errors.New("taxonomy: foreign_category is required")
	}

	known := make(map[string]bool, len(t.Categories))
	for _, c := range t.Categories {
		known[c] = true
	}
	if len(known) == 0 {
		return errors.New("taxonomy: categories list is empty")
	}

	check := func(where, category string) error {
		if !known[category] {
			return fmt.Errorf("taxonomy: %s refers to unknown category %q", where, category)
		}
		return nil
	}

	if err := check("default_category", t.DefaultCategory); err != nil {
		return err
	}
	if err := check("foreign_category", t.ForeignCategory); err != nil {
		return err
	}
	for topic, category := range t.TopicExact {
		if err := check("topic_exact["+topic+"]", category); err != nil {
			return err
		}
	}
	for _, rule := range t.TopicKeywords {
		if rule.Keyword == "" {
			return errors.New("taxonomy: topic_keywords entry without keyword")
		}
		if err := check("topic_keywords["+rule.Keyword+"]", rule.Category); err != nil {
			return err
		}
	}
	for _, group := range t.TitleKeywords {
		if err := check("title_keywords", group.Category); err != nil {
			return err
		}
	}
	return nil
}

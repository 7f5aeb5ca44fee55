package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Feed is one downloadable GTFS static feed
type Feed struct {
	Name        string `yaml:"name" json:"name" validate:"required,alphanum"`
	URL         string `yaml:"url" json:"url" validate:"required,url"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// FeedCatalog lists the feeds an administrator may import
type FeedCatalog struct {
	Feeds []Feed `yaml:"feeds" validate:"required,min=1,dive"`
}

// DefaultFeedCatalog is used when no catalog file is present
func DefaultFeedCatalog() *FeedCatalog {
	return &FeedCatalog{
		Feeds: []Feed{
			{
				Name:        "kml",
				URL:         "https://www.kolejemalopolskie.com.pl/rozklady_jazdy/kml-ska-gtfs.zip",
				Description: "Koleje Malopolskie",
			},
			{
				Name:        "pr",
				URL:         "https://mkuran.pl/gtfs/polregio.zip",
				Description: "Polregio",
			},
		},
	}
}

// LoadFeedCatalog reads and validates a YAML feed catalog.
// A missing file yields the default catalog.
func LoadFeedCatalog(path string) (*FeedCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultFeedCatalog(), nil
		}
		return nil, fmt.Errorf("failed to read feed catalog %s: %w", path, err)
	}

	var catalog FeedCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse feed catalog %s: %w", path, err)
	}

	if err := validator.New().Struct(&catalog); err != nil {
		return nil, fmt.Errorf("invalid feed catalog %s: %w", path, err)
	}

	seen := make(map[string]bool, len(catalog.Feeds))
	for _, f := range catalog.Feeds {
		if seen[f.Name] {
			return nil, fmt.Errorf("invalid feed catalog %s: duplicate feed name %q", path, f.Name)
		}
		seen[f.Name] = true
	}

	return &catalog, nil
}

// Lookup returns the feed with the given name
func (c *FeedCatalog) Lookup(name string) (Feed, bool) {
	for _, f := range c.Feeds {
		if f.Name == name {
			return f, true
		}
	}
	return Feed{}, false
}

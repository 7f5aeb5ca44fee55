package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "feeds.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFeedCatalog(t *testing.T) {
	t.Run("Missing File Uses Defaults", func(t *testing.T) {
		catalog, err := LoadFeedCatalog(filepath.Join(t.TempDir(), "nope.yml"))
		require.NoError(t, err)
		assert.Len(t, catalog.Feeds, 2)

		feed, ok := catalog.Lookup("kml")
		assert.True(t, ok)
		assert.Contains(t, feed.URL, "kml-ska-gtfs.zip")
	})

	t.Run("Valid File", func(t *testing.T) {
		path := writeCatalog(t, `
feeds:
  - name: koleo
    url: https://example.com/gtfs.zip
    description: test feed
`)
		catalog, err := LoadFeedCatalog(path)
		require.NoError(t, err)
		require.Len(t, catalog.Feeds, 1)

		feed, ok := catalog.Lookup("koleo")
		assert.True(t, ok)
		assert.Equal(t, "https://example.com/gtfs.zip", feed.URL)

		_, ok = catalog.Lookup("kml")
		assert.False(t, ok)
	})

	t.Run("Invalid URL", func(t *testing.T) {
		path := writeCatalog(t, `
feeds:
  - name: broken
    url: not a url
`)
		_, err := LoadFeedCatalog(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid feed catalog")
	})

	t.Run("Empty Catalog", func(t *testing.T) {
		path := writeCatalog(t, "feeds: []\n")
		_, err := LoadFeedCatalog(path)
		assert.Error(t, err)
	})

	t.Run("Duplicate Names", func(t *testing.T) {
		path := writeCatalog(t, `
feeds:
  - name: a
    url: https://example.com/a.zip
  - name: a
    url: https://example.com/b.zip
`)
		_, err := LoadFeedCatalog(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate feed name")
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		path := writeCatalog(t, "feeds: [name: x\n")
		_, err := LoadFeedCatalog(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})
}

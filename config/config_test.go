package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/auxseed/config"
)

const tomlConfig = `
srcPath = "/data/movies"
maxMissingSize = "500MiB"
minAnchorSize = "1048576"
duplicateSizes = [1000000000]
indexFile = "index/size_id.json"
client = "tr"

[charMap]
"?" = "_"

[[clients]]
type = "qbittorrent"
url = "http://localhost:8080"

[[clients]]
type = "transmission"
name = "tr"
url = "http://localhost:9091/"

[[clients]]
type = "qbittorrent"
name = "old"
disabled = true

[[sites]]
type = "nexusphp"
name = "pt"
url = "https://pt.example.com"
passkey = "abc"
`

const yamlConfig = `
srcPath: /data/movies
maxMissingSize: 2GB
sites:
  - type: nexusphp
    url: https://pt.example.com/
    cookie: "uid=1"
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("toml", func(t *testing.T) {
		filename := filepath.Join(dir, "auxseed.toml")
		require.NoError(t, os.WriteFile(filename, []byte(tomlConfig), 0600))
		c, err := config.Load(filename)
		require.NoError(t, err)
		assert.Equal(t, "/data/movies", c.SrcPath)
		assert.Equal(t, int64(500*1024*1024), c.MaxMissingSizeValue)
		assert.Equal(t, int64(1048576), c.MinAnchorSizeValue)
		assert.Equal(t, []int64{1000000000}, c.DuplicateSizes)
		assert.Equal(t, map[string]string{"?": "_"}, c.CharMap)
		assert.Equal(t, filepath.Join(dir, "index", "size_id.json"), c.IndexFile)
		assert.Equal(t, filepath.Join(dir, config.DEFAULT_DB_FILE), c.DbFile)
		require.Len(t, c.Clients, 2)
		assert.Equal(t, "qbittorrent", c.Clients[0].Name)
		assert.Equal(t, "http://localhost:8080/", c.Clients[0].Url)
		assert.Equal(t, "http://localhost:9091/", c.GetClientConfig("tr").Url)
		assert.Nil(t, c.GetClientConfig("old"))
		assert.Equal(t, "tr", c.Client)
		assert.Equal(t, "pt", c.Site)
		assert.Equal(t, "abc", c.GetSiteConfig("pt").Passkey)
		assert.Equal(t, "https://pt.example.com/torrents.php?",
			c.GetSiteConfig("pt").ParseSiteUrl("/torrents.php", true))
	})

	t.Run("yaml", func(t *testing.T) {
		filename := filepath.Join(dir, "auxseed.yaml")
		require.NoError(t, os.WriteFile(filename, []byte(yamlConfig), 0600))
		c, err := config.Load(filename)
		require.NoError(t, err)
		assert.Equal(t, int64(2000000000), c.MaxMissingSizeValue)
		assert.Equal(t, "nexusphp", c.Site)
		assert.Equal(t, "uid=1", c.Sites[0].Cookie)
		assert.Equal(t, config.DEFAULT_SITE_TIMEOUT, c.Sites[0].Timeout)
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := config.Load(filepath.Join(dir, "missing.toml"))
		require.NoError(t, err)
		assert.Equal(t, config.DEFAULT_MAX_MISSING_SIZE, c.MaxMissingSizeValue)
		assert.Equal(t, config.DEFAULT_MIN_ANCHOR_SIZE, c.MinAnchorSizeValue)
		assert.Len(t, c.DuplicateSizes, 13)
		assert.Equal(t, config.DEFAULT_LEGACY_ENCODING, c.LegacyEncoding)
		assert.Equal(t, config.DEFAULT_FETCH_CONCURRENCY, c.FetchConcurrency)
		assert.Equal(t, filepath.Join(dir, config.DEFAULT_TORRENTS_FOLDER), c.TorrentsFolder)
	})

	t.Run("invalid", func(t *testing.T) {
		filename := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(filename, []byte(`maxMissingSize = "lots"`), 0600))
		_, err := config.Load(filename)
		assert.Error(t, err)

		filename = filepath.Join(dir, "auxseed.json")
		require.NoError(t, os.WriteFile(filename, []byte(`{}`), 0600))
		_, err = config.Load(filename)
		assert.Error(t, err)
	})
}

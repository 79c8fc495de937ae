// Package torrentcache indexes a local folder of .torrent files by info hash so
// they can be used instead of downloading from the site.
package torrentcache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
	log "github.com/sirupsen/logrus"

	"github.com/sagan/auxseed/constants"
	"github.com/sagan/auxseed/torrentutil"
)

type Cache struct {
	Dir   string
	mu    sync.RWMutex
	files map[string]string // info hash => filename
}

// Load decodes every .torrent file in dir. Files that cannot be read or decoded
// are skipped.
func Load(dir string) (*Cache, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrents folder %s: %w", dir, err)
	}
	cache := &Cache{Dir: dir, files: map[string]string{}}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), constants.TORRENT_FILE_EXT) {
			continue
		}
		torrent, err := torrentutil.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Debugf("Skip torrent file %s: %v", entry.Name(), err)
			continue
		}
		cache.files[torrent.InfoHash] = entry.Name()
	}
	log.Infof("Loaded %d torrent files from %s", len(cache.files), dir)
	return cache, nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

func (c *Cache) Has(infoHash string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[infoHash]
	return ok
}

// Get returns the content of the cached torrent with infoHash.
func (c *Cache) Get(infoHash string) ([]byte, bool) {
	c.mu.RLock()
	filename, ok := c.files[infoHash]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	content, err := os.ReadFile(filepath.Join(c.Dir, filename))
	if err != nil {
		log.Warnf("Failed to read cached torrent %s: %v", filename, err)
		return nil, false
	}
	log.Debugf("Read .torrent file %s", filename)
	return content, true
}

// Put saves torrent content as name (a ".torrent" suffix is added if missing).
func (c *Cache) Put(name string, torrent *torrentutil.Torrent) error {
	if !strings.HasSuffix(name, constants.TORRENT_FILE_EXT) {
		name += constants.TORRENT_FILE_EXT
	}
	if err := atomic.WriteFile(filepath.Join(c.Dir, name), bytes.NewReader(torrent.Content)); err != nil {
		return err
	}
	c.mu.Lock()
	c.files[torrent.InfoHash] = name
	c.mu.Unlock()
	return nil
}

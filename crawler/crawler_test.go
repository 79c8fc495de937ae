package crawler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/sagan/auxseed/bencode"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/site"
	"github.com/sagan/auxseed/sizeindex"
	"github.com/sagan/auxseed/torrentcache"
	"github.com/sagan/auxseed/torrentutil"
)

type fakeSite struct {
	mu       sync.Mutex
	pages    [][]string
	torrents map[string][]byte
	fail     map[string]bool
	listed   []int64
}

func (s *fakeSite) GetName() string {
	return "u2"
}

func (s *fakeSite) GetSiteConfig() *config.SiteConfigStruct {
	return &config.SiteConfigStruct{Name: "u2"}
}

func (s *fakeSite) DownloadTorrentById(ctx context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[id] {
		return nil, errors.New("status=500")
	}
	return s.torrents[id], nil
}

func (s *fakeSite) GetTorrentIds(ctx context.Context, page int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed = append(s.listed, page)
	if page >= int64(len(s.pages)) {
		return nil, nil
	}
	return s.pages[page], nil
}

var _ site.Site = (*fakeSite)(nil)

func torrentContent(name string, length int64) []byte {
	return bencode.Encode(bencode.Dict{
		"info": bencode.Dict{
			"name":         bencode.Bytes(name),
			"length":       bencode.Int(length),
			"piece length": bencode.Int(16384),
			"pieces":       bencode.Bytes(strings.Repeat("\x00", 20)),
		},
	})
}

func infoHash(t *testing.T, content []byte) string {
	torrent, err := torrentutil.Load(content)
	require.NoError(t, err)
	return torrent.InfoHash
}

func TestCrawler(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "auxseed.db"))
	require.NoError(t, err)
	defer store.Close()
	cache, err := torrentcache.Load(dir)
	require.NoError(t, err)

	s := &fakeSite{
		pages: [][]string{{"5", "4"}, {"3"}},
		torrents: map[string][]byte{
			"3": torrentContent("c.mkv", 3000),
			"4": []byte("garbage"),
			"5": torrentContent("e.mkv", 5000),
			"6": torrentContent("f.mkv", 6000),
			"7": torrentContent("g.mkv", 5000),
		},
		fail: map[string]bool{},
	}
	builder := sizeindex.NewBuilder()
	crawler := &Crawler{
		Site:     s,
		Store:    store,
		Builder:  builder,
		Denylist: sizeindex.NewDenylist(),
		Gate:     semaphore.NewWeighted(2),
		Cache:    cache,
	}
	ctx := context.Background()

	result, err := crawler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Result{PreviousNewestId: 0, NewestId: 5, Pages: 3, Found: 3, Indexed: 2, Invalid: 1}, result)
	assert.Equal(t, []sizeindex.Entry{{TorrentId: "5", InfoHash: infoHash(t, s.torrents["5"])}},
		builder.Snapshot().LookupSize(5000))
	assert.Equal(t, 2, cache.Len())
	cnt, err := store.CountTorrents("u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)
	newest, err := store.GetMeta("u2.newestId")
	require.NoError(t, err)
	assert.Equal(t, "5", newest)

	// a failed download keeps the previous newest id
	s.pages = [][]string{{"7", "6", "5", "4"}}
	s.fail["6"] = true
	s.listed = nil
	result, err = crawler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, s.listed)
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 1, result.Failed)
	newest, err = store.GetMeta("u2.newestId")
	require.NoError(t, err)
	assert.Equal(t, "5", newest)

	s.fail["6"] = false
	result, err = crawler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 1, result.Indexed, "torrent 7 was indexed by the previous crawl")
	assert.Equal(t, int64(7), result.NewestId)
	newest, err = store.GetMeta("u2.newestId")
	require.NoError(t, err)
	assert.Equal(t, "7", newest)
	assert.Len(t, builder.Snapshot().LookupSize(5000), 2)
	cnt, err = store.CountTorrents("u2")
	require.NoError(t, err)
	assert.Equal(t, int64(4), cnt)
}

func TestCrawlerMaxPages(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "auxseed.db"))
	require.NoError(t, err)
	defer store.Close()
	s := &fakeSite{
		pages:    [][]string{{"9"}, {"8"}, {"7"}},
		torrents: map[string][]byte{"9": torrentContent("i", 9), "8": torrentContent("h", 8)},
	}
	crawler := &Crawler{
		Site:     s,
		Store:    store,
		Builder:  sizeindex.NewBuilder(),
		Gate:     semaphore.NewWeighted(1),
		MaxPages: 2,
	}
	result, err := crawler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, s.listed)
	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 2, result.Indexed)
}

func TestStoreMeta(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "auxseed.db"))
	require.NoError(t, err)
	defer store.Close()
	value, err := store.GetMeta("missing")
	require.NoError(t, err)
	assert.Equal(t, "", value)
	require.NoError(t, store.SetMeta("k", "1"))
	require.NoError(t, store.SetMeta("k", "2"))
	value, err = store.GetMeta("k")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}

// Package crawler keeps the size index up to date by walking a tracker's
// torrents list and indexing every torrent published since the previous crawl.
package crawler

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sagan/auxseed/site"
	"github.com/sagan/auxseed/sizeindex"
	"github.com/sagan/auxseed/torrentcache"
	"github.com/sagan/auxseed/torrentutil"
	"github.com/sagan/auxseed/util"
)

const (
	META_NEWEST_ID        = "newestId"
	META_LAST_UPDATE_TIME = "lastUpdateTime"
)

type Crawler struct {
	Site     site.Site
	Store    *Store
	Builder  *sizeindex.Builder
	Denylist sizeindex.Denylist
	// Bounds concurrent requests to the site, shared by list and download requests.
	Gate *semaphore.Weighted
	// If set, fetched torrents are also saved to it.
	Cache *torrentcache.Cache
	// Stop after this many list pages. 0 means no limit.
	MaxPages int64
}

type Result struct {
	PreviousNewestId int64
	NewestId         int64
	Pages            int64
	Found            int // torrents newer than PreviousNewestId
	Indexed          int // new index entries
	Invalid          int // torrents that could not be decoded
	Failed           int // torrents that could not be downloaded
}

func metaKey(siteName string, key string) string {
	return siteName + "." + key
}

// Run crawls the site. The newest torrent id is persisted only if every found
// torrent was downloaded, so a failed download is retried by the next crawl.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	siteName := c.Site.GetName()
	result := &Result{}
	if value, err := c.Store.GetMeta(metaKey(siteName, META_NEWEST_ID)); err != nil {
		return nil, fmt.Errorf("failed to read crawl state: %w", err)
	} else if value != "" {
		result.PreviousNewestId, _ = strconv.ParseInt(value, 10, 64)
	}
	result.NewestId = result.PreviousNewestId
	log.Infof("Crawl site %s, previous newest torrent id: %d", siteName, result.PreviousNewestId)

	ids, err := c.listNewIds(ctx, result)
	if err != nil {
		return nil, err
	}
	result.Found = len(ids)
	log.Infof("Found %d new torrents in %d pages", len(ids), result.Pages)

	var mu sync.Mutex
	torrents := []*Torrent{}
	errg, errgCtx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		errg.Go(func() error {
			if err := c.Gate.Acquire(errgCtx, 1); err != nil {
				return err
			}
			content, err := c.Site.DownloadTorrentById(errgCtx, id)
			c.Gate.Release(1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Errorf("Failed to download torrent %s: %v", id, err)
				result.Failed++
				return nil
			}
			torrent, err := torrentutil.Load(content)
			if err != nil {
				log.Warnf("Torrent %s is invalid: %v", id, err)
				result.Invalid++
				return nil
			}
			size := sizeindex.RepresentativeSize(torrent.Info.Sizes(), c.Denylist)
			if c.Builder.Add(size, sizeindex.Entry{TorrentId: id, InfoHash: torrent.InfoHash}) {
				result.Indexed++
			}
			log.Debugf("Indexed torrent %s (%s) size=%d", id, torrent.InfoHash, size)
			torrents = append(torrents, &Torrent{
				Site:     siteName,
				Id:       id,
				InfoHash: torrent.InfoHash,
				Size:     size,
				Time:     util.Now(),
			})
			if c.Cache != nil {
				if err := c.Cache.Put(siteName+"."+id, torrent); err != nil {
					log.Warnf("Failed to save torrent %s: %v", id, err)
				}
			}
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}

	if err := c.Store.SaveTorrents(torrents); err != nil {
		return nil, fmt.Errorf("failed to save torrents: %w", err)
	}
	if result.Failed == 0 && result.NewestId > result.PreviousNewestId {
		err := c.Store.SetMeta(metaKey(siteName, META_NEWEST_ID), fmt.Sprint(result.NewestId))
		if err != nil {
			return nil, fmt.Errorf("failed to save crawl state: %w", err)
		}
	}
	if err := c.Store.SetMeta(metaKey(siteName, META_LAST_UPDATE_TIME), fmt.Sprint(util.Now())); err != nil {
		return nil, fmt.Errorf("failed to save crawl state: %w", err)
	}
	return result, nil
}

// listNewIds pages through the list until it reaches a torrent not newer than
// the previous newest one, or an empty page.
func (c *Crawler) listNewIds(ctx context.Context, result *Result) ([]string, error) {
	ids := []string{}
	for page := int64(0); c.MaxPages <= 0 || page < c.MaxPages; page++ {
		if err := c.Gate.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		pageIds, err := c.Site.GetTorrentIds(ctx, page)
		c.Gate.Release(1)
		if err != nil {
			return nil, err
		}
		result.Pages++
		if len(pageIds) == 0 {
			break
		}
		for _, idStr := range pageIds {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				log.Warnf("Skip torrent with invalid id %q", idStr)
				continue
			}
			if id <= result.PreviousNewestId {
				return ids, nil
			}
			result.NewestId = max(result.NewestId, id)
			ids = append(ids, idStr)
		}
	}
	return ids, nil
}

// Package common holds what the run, update and lookup commands share: building
// matching components from config and rendering results.
package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"

	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/crawler"
	"github.com/sagan/auxseed/reconcile"
	"github.com/sagan/auxseed/sizeindex"
	"github.com/sagan/auxseed/torrentcache"
	"github.com/sagan/auxseed/util"
	"github.com/sagan/auxseed/xseed"
)

func NewDenylist(c *config.ConfigStruct) sizeindex.Denylist {
	return sizeindex.NewDenylist(c.DuplicateSizes...)
}

func NewEngine(c *config.ConfigStruct) (*reconcile.Engine, error) {
	enc, err := reconcile.LegacyEncoding(c.LegacyEncoding)
	if err != nil {
		return nil, err
	}
	opts := reconcile.Options{
		MaxMissingSize: c.MaxMissingSizeValue,
		MinAnchorSize:  c.MinAnchorSizeValue,
		LegacyEncoding: enc,
	}
	if c.CharMap != nil {
		opts.CharMap = c.CharMap
	}
	return reconcile.New(opts), nil
}

// OpenCache loads the local torrents folder. A missing folder is created if
// create is set, otherwise it means no cache (nil).
func OpenCache(dir string, create bool) (*torrentcache.Cache, error) {
	if !util.DirExists(dir) {
		if !create {
			log.Debugf("Torrents folder %s does not exist", dir)
			return nil, nil
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create torrents folder: %w", err)
		}
	}
	return torrentcache.Load(dir)
}

// PrintReport renders one row per source entry followed by a summary line.
func PrintReport(output io.Writer, report *xseed.Report, showAll bool) {
	t := table.NewWriter()
	t.SetOutputMirror(output)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Size", "State", "Torrents", "Renames"})
	for _, result := range report.Results {
		if !showAll && result.State == xseed.StateNoCandidate {
			continue
		}
		torrents := []string{}
		renames := 0
		for _, c := range result.Candidates {
			torrents = append(torrents, c.TorrentId+":"+string(c.Status))
			renames += len(c.Renames)
		}
		name := filepath.Base(result.Path)
		if result.IsDir {
			name += "/"
		}
		size := "-"
		if result.Size > 0 {
			size = humanize.IBytes(uint64(result.Size))
		}
		t.AppendRow(table.Row{name, size, result.State, strings.Join(torrents, " "), renames})
	}
	t.Render()
	fmt.Fprintf(output, "Entries: %d ; added torrents: %d ; no candidate: %d ; existing: %d ; no match: %d ; failed: %d\n",
		len(report.Results), report.Added(), report.Count(xseed.StateNoCandidate),
		report.Count(xseed.StateExisting), report.Count(xseed.StateNoMatch), report.Count(xseed.StateFailed))
}

func PrintCrawlResult(output io.Writer, siteName string, result *crawler.Result, indexSize int) {
	fmt.Fprintf(output, "Site %s: newest torrent id %d -> %d ; pages: %d\n",
		siteName, result.PreviousNewestId, result.NewestId, result.Pages)
	fmt.Fprintf(output, "New torrents: %d ; indexed: %d ; invalid: %d ; download failed: %d ; index sizes: %d\n",
		result.Found, result.Indexed, result.Invalid, result.Failed, indexSize)
}

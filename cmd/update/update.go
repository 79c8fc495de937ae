package update

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/sagan/auxseed/cmd"
	"github.com/sagan/auxseed/cmd/common"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/crawler"
	"github.com/sagan/auxseed/site"
	"github.com/sagan/auxseed/sizeindex"
	"github.com/sagan/auxseed/torrentcache"
	"github.com/sagan/auxseed/util"
)

var command = &cobra.Command{
	Use:   "update [site]...",
	Short: "Update the size index from the torrents list of sites.",
	Long: `Update the size index from the torrents list of sites (default: "site" config).
Torrents newer than the newest one seen by the previous update are downloaded and indexed
by their representative size. The index file is saved once all sites are done.`,
	Args: cobra.MatchAll(cobra.ArbitraryArgs, cobra.OnlyValidArgs),
	RunE: update,
}

var (
	saveTorrents = false
	maxPages     = int64(0)
)

func init() {
	command.Flags().BoolVarP(&saveTorrents, "save-torrents", "", false,
		`Also save downloaded .torrent files to the torrents folder, for "run" to use without downloading again`)
	command.Flags().Int64VarP(&maxPages, "max-pages", "", 0, `Stop after this many list pages (default: site "maxPages" config)`)
	cmd.RootCmd.AddCommand(command)
}

func update(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	siteNames := util.UniqueSlice(args)
	if len(siteNames) == 0 {
		if cfg.Site == "" {
			return fmt.Errorf("no site is configured")
		}
		siteNames = []string{cfg.Site}
	}
	builder, err := sizeindex.LoadBuilder(cfg.IndexFile)
	if err != nil {
		return fmt.Errorf("failed to load size index %s: %w", cfg.IndexFile, err)
	}
	store, err := crawler.OpenStore(cfg.DbFile)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.DbFile, err)
	}
	defer store.Close()
	var cache *torrentcache.Cache
	if saveTorrents {
		if cache, err = common.OpenCache(cfg.TorrentsFolder, true); err != nil {
			return err
		}
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	gate := semaphore.NewWeighted(cfg.FetchConcurrency)

	errorCnt := int64(0)
	for _, siteName := range siteNames {
		siteInstance, err := site.CreateSite(siteName)
		if err != nil {
			log.Errorf("Failed to create site %s: %v", siteName, err)
			errorCnt++
			continue
		}
		c := &crawler.Crawler{
			Site:     siteInstance,
			Store:    store,
			Builder:  builder,
			Denylist: common.NewDenylist(cfg),
			Gate:     gate,
			Cache:    cache,
			MaxPages: siteInstance.GetSiteConfig().MaxPages,
		}
		if maxPages > 0 {
			c.MaxPages = maxPages
		}
		result, err := c.Run(ctx)
		if err != nil {
			log.Errorf("Failed to update from site %s: %v", siteName, err)
			errorCnt++
			continue
		}
		common.PrintCrawlResult(os.Stdout, siteName, result, builder.Snapshot().Len())
		if result.Failed > 0 {
			errorCnt++
		}
	}
	if builder.Added() > 0 {
		if err := builder.Save(cfg.IndexFile); err != nil {
			return fmt.Errorf("failed to save size index: %w", err)
		}
		fmt.Printf("Saved %d new entries to %s\n", builder.Added(), cfg.IndexFile)
	}
	if errorCnt > 0 {
		return fmt.Errorf("%d errors", errorCnt)
	}
	return nil
}

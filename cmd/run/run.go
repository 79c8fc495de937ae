package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sagan/auxseed/client"
	"github.com/sagan/auxseed/cmd"
	"github.com/sagan/auxseed/cmd/common"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/site"
	"github.com/sagan/auxseed/sizeindex"
	"github.com/sagan/auxseed/xseed"
)

var command = &cobra.Command{
	Use:   "run [srcPath]",
	Short: "Cross-seed the files and folders of a source folder.",
	Long: `Cross-seed the files and folders of a source folder.
Every direct entry of srcPath (default: "srcPath" config) is looked up in the size index by
its representative size. Matching torrents are fetched from the local torrents folder or the
site, checked against the local files and added to the client paused, followed by the renames
that make the torrent's layout match the local one.`,
	Args: cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: run,
}

var (
	dryRun     = false
	showAll    = false
	clientName = ""
	siteName   = ""
)

func init() {
	command.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Dry run. Match only, do not add torrents to client")
	command.Flags().BoolVarP(&showAll, "all", "a", false, "Also show entries that have no candidate torrent")
	command.Flags().StringVarP(&clientName, "client", "", "", `Client name (default: "client" config)`)
	command.Flags().StringVarP(&siteName, "site", "", "", `Site name (default: "site" config). `+
		`"none" uses the local torrents folder only`)
	cmd.RootCmd.AddCommand(command)
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	srcPath := cfg.SrcPath
	if len(args) > 0 {
		srcPath = args[0]
	}
	if srcPath == "" {
		return fmt.Errorf("srcPath is not set")
	}
	if clientName == "" {
		clientName = cfg.Client
	}
	if siteName == "" {
		siteName = cfg.Site
	}

	index, err := sizeindex.Load(cfg.IndexFile)
	if err != nil {
		return fmt.Errorf("failed to load size index %s: %w", cfg.IndexFile, err)
	}
	log.Infof("Loaded size index with %d sizes", index.Len())
	engine, err := common.NewEngine(cfg)
	if err != nil {
		return err
	}
	cache, err := common.OpenCache(cfg.TorrentsFolder, false)
	if err != nil {
		return err
	}
	var fetcher xseed.Fetcher
	if siteName != "" && siteName != "none" {
		siteInstance, err := site.CreateSite(siteName)
		if err != nil {
			return fmt.Errorf("failed to create site %s: %w", siteName, err)
		}
		fetcher = siteInstance
	} else if cache == nil {
		return fmt.Errorf("neither a site nor a local torrents folder is available")
	}
	clientInstance, err := client.CreateClient(clientName)
	if err != nil {
		return fmt.Errorf("failed to create client %s: %w", clientName, err)
	}
	defer clientInstance.Close()

	session, err := xseed.NewSession(index, clientInstance, fetcher, xseed.Options{
		Cache:            cache,
		Engine:           engine,
		Denylist:         common.NewDenylist(cfg),
		FetchConcurrency: cfg.FetchConcurrency,
		TaskConcurrency:  int(cfg.TaskConcurrency),
		DryRun:           dryRun,
	})
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	report, err := session.Run(ctx, srcPath)
	if err != nil {
		return err
	}
	common.PrintReport(os.Stdout, report, showAll)
	if cnt := report.Count(xseed.StateFailed); cnt > 0 {
		return fmt.Errorf("%d errors", cnt)
	}
	return nil
}

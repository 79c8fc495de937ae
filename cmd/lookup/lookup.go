package lookup

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sagan/auxseed/cmd"
	"github.com/sagan/auxseed/cmd/common"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/reconcile"
	"github.com/sagan/auxseed/sizeindex"
	"github.com/sagan/auxseed/util"
)

var command = &cobra.Command{
	Use:   "lookup {size | file | folder}...",
	Short: "Show the indexed torrents of sizes, files or folders.",
	Long: `Show the indexed torrents of sizes, files or folders.
An arg that is an integer is a size in bytes. Otherwise it is a local file or folder
and its representative size is looked up, the same way "run" does.`,
	Args: cobra.MatchAll(cobra.MinimumNArgs(1), cobra.OnlyValidArgs),
	RunE: lookup,
}

var (
	format = ""
)

type lookupResult struct {
	Arg      string            `json:"arg"`
	Size     int64             `json:"size"`
	Torrents []sizeindex.Entry `json:"torrents"`
}

func init() {
	cmd.AddEnumFlagP(command, &format, "format", "", cmd.OutputFormatFlag)
	cmd.RootCmd.AddCommand(command)
}

func lookup(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	index, err := sizeindex.Load(cfg.IndexFile)
	if err != nil {
		return fmt.Errorf("failed to load size index %s: %w", cfg.IndexFile, err)
	}
	denylist := common.NewDenylist(cfg)
	errorCnt := int64(0)
	results := []*lookupResult{}
	for _, arg := range args {
		size := int64(0)
		if util.IsIntString(arg) {
			size = util.ParseInt(arg)
		} else if stat, err := os.Stat(arg); err != nil {
			log.Errorf("Failed to read %s: %v", arg, err)
			errorCnt++
			continue
		} else if stat.IsDir() {
			fileset, err := reconcile.ScanFileSet(arg)
			if err != nil {
				log.Errorf("Failed to read %s: %v", arg, err)
				errorCnt++
				continue
			}
			size = sizeindex.RepresentativeSize(fileset.Sizes(), denylist)
		} else {
			size = stat.Size()
		}
		results = append(results, &lookupResult{Arg: arg, Size: size, Torrents: index.LookupSize(size)})
	}

	if format == "json" {
		if err := util.PrintJson(os.Stdout, results); err != nil {
			return err
		}
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Arg", "Size", "RawSize", "Torrent", "InfoHash"})
		for _, result := range results {
			if len(result.Torrents) == 0 {
				t.AppendRow(table.Row{result.Arg, humanize.IBytes(uint64(result.Size)), result.Size, "-", "-"})
			}
			for _, entry := range result.Torrents {
				t.AppendRow(table.Row{result.Arg, humanize.IBytes(uint64(result.Size)), result.Size,
					entry.TorrentId, entry.InfoHash})
			}
		}
		t.Render()
	}
	if errorCnt > 0 {
		return fmt.Errorf("%d errors", errorCnt)
	}
	return nil
}

package configcmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sagan/auxseed/cmd"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/site/tpl"
)

var command = &cobra.Command{
	Use:   "config",
	Short: "Display the effective config.",
	Long: `Display the effective config: the config file, the resolved paths and sizes,
the configured clients and sites, and the built-in site templates.`,
	Args: cobra.MatchAll(cobra.ExactArgs(0), cobra.OnlyValidArgs),
	RunE: configcmd,
}

func init() {
	cmd.RootCmd.AddCommand(command)
}

func configcmd(cmd *cobra.Command, args []string) error {
	fmt.Printf("Config file: %s\n", config.ConfigFile)
	if _, err := os.Stat(config.ConfigFile); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("<config file not exists, using defaults>\n")
		} else {
			return fmt.Errorf("config file can not be accessed: %w", err)
		}
	}
	cfg := config.Get()
	fmt.Printf("Source folder: %s\n", cfg.SrcPath)
	fmt.Printf("Index file: %s\n", cfg.IndexFile)
	fmt.Printf("Database file: %s\n", cfg.DbFile)
	fmt.Printf("Torrents folder: %s\n", cfg.TorrentsFolder)
	fmt.Printf("Max missing size: %s ; min anchor size: %s ; duplicate sizes: %d ; legacy encoding: %s\n",
		humanize.IBytes(uint64(cfg.MaxMissingSizeValue)), humanize.IBytes(uint64(cfg.MinAnchorSizeValue)),
		len(cfg.DuplicateSizes), cfg.LegacyEncoding)
	fmt.Printf("Fetch concurrency: %d ; task concurrency: %d\n", cfg.FetchConcurrency, cfg.TaskConcurrency)
	fmt.Printf("\n")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Kind", "Name", "Type", "Url", "Default"})
	for _, c := range cfg.Clients {
		t.AppendRow(table.Row{"client", c.Name, c.Type, c.Url, c.Name == cfg.Client})
	}
	for _, s := range cfg.Sites {
		url := s.Url
		if url == "" && tpl.SITES[s.Type] != nil {
			url = tpl.SITES[s.Type].Url
		}
		t.AppendRow(table.Row{"site", s.Name, s.Type, url, s.Name == cfg.Site})
	}
	t.Render()

	fmt.Printf("\nSite templates (use the name as site type):\n")
	for _, name := range tpl.SITENAMES {
		template := tpl.SITES[name]
		fmt.Printf("  %s (%s): %s %s\n", name, template.Type, template.Url, template.Comment)
	}
	return nil
}

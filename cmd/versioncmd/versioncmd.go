package versioncmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sagan/auxseed/cmd"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/version"
)

var command = &cobra.Command{
	Use:   "version",
	Short: "Display auxseed version.",
	Long:  `Display auxseed version and the files it works with.`,
	Args:  cobra.MatchAll(cobra.ExactArgs(0), cobra.OnlyValidArgs),
	RunE:  versioncmd,
}

func init() {
	cmd.RootCmd.AddCommand(command)
}

func versioncmd(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	fmt.Printf("auxseed %s\n", version.Version)
	fmt.Printf("- os/type: %s\n", runtime.GOOS)
	fmt.Printf("- os/arch: %s\n", runtime.GOARCH)
	fmt.Printf("- go/version: %s\n", runtime.Version())
	fmt.Printf("- config/file: %s\n", config.ConfigFile)
	fmt.Printf("- config/index_file: %s\n", cfg.IndexFile)
	fmt.Printf("- config/db_file: %s\n", cfg.DbFile)
	fmt.Printf("- config/torrents_folder: %s\n", cfg.TorrentsFolder)
	return nil
}

package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/version"
)

// Root represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "auxseed",
	Short: "auxseed cross-seeds local content with torrents of a private tracker.",
	Long: `auxseed cross-seeds local content with torrents of a private tracker.
It keeps an index of tracker torrents by file size ("auxseed update"), then finds the
torrents that describe the files and folders of a local source folder and adds them to
a BitTorrent client, renaming the torrent's files to line up with the local ones ("auxseed run").`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		// level: panic(0), fatal(1), error(2), warn(3), info(4), debug(5), trace(6). Default level = warning(3)
		config.ConfigDir = filepath.Dir(config.ConfigFile)
		log.SetLevel(log.Level(3 + config.VerboseLevel))
		if logFile := config.Get().LogFile; logFile != "" {
			log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // MiB
				MaxBackups: 3,
			}))
		}
		log.Debugf("auxseed %s start: %s", version.Version, os.Args)
		log.Infof("config file: %s", config.ConfigFile)
		if config.LockFile != "" {
			log.Debugf("Locking file: %s", config.LockFile)
			if err := flock.New(config.LockFile).Lock(); err != nil {
				log.Fatalf("Unable to lock file %s: %v", config.LockFile, err)
			}
			log.Infof("Lock acquired")
		}
	})
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	configFile := "auxseed.toml"
	configFiles := []string{"auxseed.toml", "auxseed.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		configFiles = append([]string{
			filepath.Join(home, ".config", "auxseed", "auxseed.toml"),
			filepath.Join(home, ".config", "auxseed", "auxseed.yaml"),
		}, configFiles...)
	}
	for _, cf := range configFiles {
		if _, err := os.Stat(cf); err == nil {
			configFile = cf
			break
		}
	}

	RootCmd.PersistentFlags().StringVarP(&config.ConfigFile, "config", "", configFile, "Config file ([auxseed.toml])")
	RootCmd.PersistentFlags().StringVarP(&config.LockFile, "lock", "", "",
		"Lock filename. If set, auxseed acquires the lock on the file before executing command, "+
			"so that only one auxseed process runs at a time. The file is created if missing and is NOT deleted on exit")
	RootCmd.PersistentFlags().CountVarP(&config.VerboseLevel, "verbose", "v", "verbose (-v, -vv, -vvv)")
}

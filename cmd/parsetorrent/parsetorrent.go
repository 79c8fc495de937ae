package parsetorrent

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sagan/auxseed/cmd"
	"github.com/sagan/auxseed/torrentutil"
	"github.com/sagan/auxseed/util"
)

var command = &cobra.Command{
	Use:     "parsetorrent {file.torrent}...",
	Aliases: []string{"parse"},
	Short:   "Parse torrent files and show their content.",
	Long: `Parse torrent files and show their content.
Use "-" as the only arg to read a .torrent file content from stdin.
The info hash is computed twice, by auxseed's own decoder and by a standard metainfo parser,
and a difference between them is reported as an error.`,
	Args: cobra.MatchAll(cobra.MinimumNArgs(1), cobra.OnlyValidArgs),
	RunE: parsetorrent,
}

var (
	showAll  = false
	showJson = false
)

func init() {
	command.Flags().BoolVarP(&showAll, "all", "a", false, "Show all info, including the files list")
	command.Flags().BoolVarP(&showJson, "json", "", false, "Show output in json format")
	cmd.RootCmd.AddCommand(command)
}

func parsetorrent(cmd *cobra.Command, args []string) error {
	errorCnt := int64(0)
	for i, torrentFilename := range args {
		var content []byte
		var err error
		if torrentFilename == "-" {
			content, err = io.ReadAll(os.Stdin)
		} else {
			content, err = os.ReadFile(torrentFilename)
		}
		if err != nil {
			log.Errorf("Failed to read %s: %v", torrentFilename, err)
			errorCnt++
			continue
		}
		meta, err := torrentutil.ParseTorrent(content)
		if err != nil {
			log.Errorf("Failed to parse %s: %v", torrentFilename, err)
			errorCnt++
			continue
		}
		if torrent, err := torrentutil.Load(content); err != nil {
			log.Errorf("Failed to decode %s: %v", torrentFilename, err)
			errorCnt++
		} else if torrent.InfoHash != meta.InfoHash {
			log.Errorf("%s: info hash mismatch, %s != %s", torrentFilename, torrent.InfoHash, meta.InfoHash)
			errorCnt++
		}
		if showJson {
			if err := util.PrintJson(os.Stdout, meta); err != nil {
				log.Errorf("Failed to marshal info json of %s: %v", torrentFilename, err)
				errorCnt++
			}
			continue
		}
		meta.Print(os.Stdout, torrentFilename)
		if showAll {
			meta.PrintFiles(os.Stdout, true)
			if i < len(args)-1 {
				fmt.Printf("\n")
			}
		}
	}
	if errorCnt > 0 {
		return fmt.Errorf("%d errors", errorCnt)
	}
	return nil
}

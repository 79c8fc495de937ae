package torrentutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

type TorrentMetaFile struct {
	Path string // full path joined by '/'
	Size int64
}

// TorrentMeta is the metainfo view of a torrent as any BitTorrent client sees it.
type TorrentMeta struct {
	InfoHash          string
	Trackers          []string
	Size              int64
	SingleFileTorrent bool
	RootDir           string
	Files             []TorrentMetaFile
	Comment           string
}

// ParseTorrent parses torrent content with anacrolix metainfo.
func ParseTorrent(torrentdata []byte) (*TorrentMeta, error) {
	metaInfo, err := metainfo.Load(bytes.NewReader(torrentdata))
	if err != nil {
		return nil, err
	}
	torrentMeta := &TorrentMeta{
		InfoHash: metaInfo.HashInfoBytes().HexString(),
		Comment:  metaInfo.Comment,
	}
	for _, tier := range metaInfo.UpvertedAnnounceList() {
		torrentMeta.Trackers = append(torrentMeta.Trackers, tier...)
	}
	info, err := metaInfo.UnmarshalInfo()
	if err != nil {
		return nil, err
	}
	if len(info.Files) == 0 {
		torrentMeta.Files = append(torrentMeta.Files, TorrentMetaFile{
			Path: info.Name,
			Size: info.Length,
		})
		torrentMeta.SingleFileTorrent = true
		torrentMeta.Size = info.Length
	} else {
		if info.Name != "" && info.Name != metainfo.NoName {
			torrentMeta.RootDir = info.Name
		}
		for _, metafile := range info.Files {
			torrentMeta.Files = append(torrentMeta.Files, TorrentMetaFile{
				Path: strings.Join(metafile.Path, "/"),
				Size: metafile.Length,
			})
			torrentMeta.Size += metafile.Length
		}
	}
	return torrentMeta, nil
}

func (meta *TorrentMeta) Print(output io.Writer, name string) {
	tracker := ""
	if len(meta.Trackers) > 0 {
		tracker = meta.Trackers[0]
	}
	fmt.Fprintf(output, "Torrent %s: infohash = %s ; size = %s (%d files) ; tracker = %s\n",
		name, meta.InfoHash, humanize.IBytes(uint64(meta.Size)), len(meta.Files), tracker)
	if meta.Comment != "" {
		fmt.Fprintf(output, "Comment: %s\n", meta.Comment)
	}
}

func (meta *TorrentMeta) PrintFiles(output io.Writer, addRootDirPrefix bool) {
	t := table.NewWriter()
	t.SetOutputMirror(output)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Size", "RawSize", "Path"})
	for i, file := range meta.Files {
		path := file.Path
		if addRootDirPrefix && meta.RootDir != "" {
			path = meta.RootDir + "/" + path
		}
		t.AppendRow(table.Row{i + 1, humanize.IBytes(uint64(file.Size)), file.Size, path})
	}
	t.Render()
}

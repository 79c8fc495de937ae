package torrentutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/sagan/auxseed/bencode"
)

// File is one entry of a multi-file torrent. Path segments are raw bytes as
// declared by the torrent; they are not trusted to be valid in any encoding.
type File struct {
	Length int64
	Path   [][]byte
}

// Info is the decoded "info" dictionary.
type Info struct {
	Name      []byte
	Length    int64 // single-file torrent only
	Files     []File
	MultiFile bool
}

type Torrent struct {
	InfoHash string
	Info     *Info
	Content  []byte
}

var ErrMalformed = errors.New("malformed torrent")

// Load decodes raw torrent content and computes its info hash.
func Load(content []byte) (*Torrent, error) {
	v, err := bencode.Decode(content)
	if err != nil {
		return nil, err
	}
	infoHash, err := bencode.InfoHash(v)
	if err != nil {
		return nil, err
	}
	root := v.(bencode.Dict)
	info, err := ParseInfo(root["info"])
	if err != nil {
		return nil, err
	}
	return &Torrent{
		InfoHash: infoHash,
		Info:     info,
		Content:  content,
	}, nil
}

func LoadFile(filename string) (*Torrent, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrent file %s: %w", filename, err)
	}
	return Load(content)
}

func ParseInfo(v bencode.Value) (*Info, error) {
	dict, ok := v.(bencode.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: info is not a dictionary", ErrMalformed)
	}
	info := &Info{}
	info.Name, _ = dict.Bytes("name")
	if _, ok := dict["files"]; !ok {
		length, ok := dict.Int("length")
		if !ok || length < 0 {
			return nil, fmt.Errorf("%w: single-file torrent has no valid length", ErrMalformed)
		}
		info.Length = length
		return info, nil
	}
	files, ok := dict.List("files")
	if !ok {
		return nil, fmt.Errorf("%w: files is not a list", ErrMalformed)
	}
	info.MultiFile = true
	for i, item := range files {
		fileDict, ok := item.(bencode.Dict)
		if !ok {
			return nil, fmt.Errorf("%w: file %d is not a dictionary", ErrMalformed, i)
		}
		length, ok := fileDict.Int("length")
		if !ok || length < 0 {
			return nil, fmt.Errorf("%w: file %d has no valid length", ErrMalformed, i)
		}
		segments, ok := fileDict.List("path")
		if !ok || len(segments) == 0 {
			return nil, fmt.Errorf("%w: file %d has no path", ErrMalformed, i)
		}
		file := File{Length: length}
		for _, segment := range segments {
			b, ok := segment.(bencode.Bytes)
			if !ok {
				return nil, fmt.Errorf("%w: file %d has a non-string path segment", ErrMalformed, i)
			}
			file.Path = append(file.Path, []byte(b))
		}
		info.Files = append(info.Files, file)
	}
	return info, nil
}

// Sizes returns the size of every file in the torrent.
func (info *Info) Sizes() []int64 {
	if !info.MultiFile {
		return []int64{info.Length}
	}
	sizes := make([]int64, 0, len(info.Files))
	for _, file := range info.Files {
		sizes = append(sizes, file.Length)
	}
	return sizes
}

func (info *Info) Size() (size int64) {
	for _, s := range info.Sizes() {
		size += s
	}
	return
}

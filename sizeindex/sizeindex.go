// Package sizeindex maps a torrent's representative file size to the torrents
// that share it.
package sizeindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Entry is one "{torrent_id}_{info_hash}" token of the index.
type Entry struct {
	TorrentId string `json:"torrentId"`
	InfoHash  string `json:"infoHash"`
}

func (e Entry) String() string {
	return e.TorrentId + "_" + e.InfoHash
}

func ParseToken(token string) (Entry, error) {
	i := strings.LastIndexByte(token, '_')
	if i <= 0 || i == len(token)-1 {
		return Entry{}, fmt.Errorf("invalid index token %q", token)
	}
	return Entry{TorrentId: token[:i], InfoHash: strings.ToLower(token[i+1:])}, nil
}

// Denylist holds sizes shared by too many unrelated torrents to be useful as keys.
type Denylist map[int64]struct{}

func NewDenylist(sizes ...int64) Denylist {
	d := Denylist{}
	for _, size := range sizes {
		d[size] = struct{}{}
	}
	return d
}

func (d Denylist) Contains(size int64) bool {
	_, ok := d[size]
	return ok
}

// RepresentativeSize returns the largest size that is not denylisted. If every
// size is denylisted it returns the largest size. Empty input yields 0.
// The crawler and the matcher must both use this function, or lookups miss.
func RepresentativeSize(sizes []int64, denylist Denylist) int64 {
	largest := int64(0)
	allowed := int64(-1)
	for _, size := range sizes {
		if size > largest {
			largest = size
		}
		if !denylist.Contains(size) && size > allowed {
			allowed = size
		}
	}
	if allowed < 0 {
		return largest
	}
	return allowed
}

// Index is an immutable snapshot. Every key maps to one or more entries.
type Index struct {
	entries map[string][]Entry
}

var ErrInvalidFormat = errors.New("invalid size index file")

func (idx *Index) Lookup(size string) []Entry {
	return slices.Clone(idx.entries[size])
}

func (idx *Index) LookupSize(size int64) []Entry {
	return idx.Lookup(strconv.FormatInt(size, 10))
}

// Len is the number of distinct sizes.
func (idx *Index) Len() int {
	return len(idx.entries)
}

func (idx *Index) Sizes() []string {
	sizes := make([]string, 0, len(idx.entries))
	for size := range idx.entries {
		sizes = append(sizes, size)
	}
	slices.SortFunc(sizes, compareSize)
	return sizes
}

// Load reads a persisted index. Each value is either a single token or a list
// of tokens; both are normalized to a list.
func Load(filename string) (*Index, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Index, error) {
	entries, err := parse(data)
	if err != nil {
		return nil, err
	}
	return &Index{entries: entries}, nil
}

func parse(data []byte) (map[string][]Entry, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	entries := make(map[string][]Entry, len(raw))
	for size, value := range raw {
		if _, err := strconv.ParseInt(size, 10, 64); err != nil {
			return nil, fmt.Errorf("%w: key %q is not a size", ErrInvalidFormat, size)
		}
		var tokens []string
		var token string
		if err := json.Unmarshal(value, &token); err == nil {
			tokens = []string{token}
		} else if err := json.Unmarshal(value, &tokens); err != nil {
			return nil, fmt.Errorf("%w: value of %s is neither a string nor a list of strings", ErrInvalidFormat, size)
		}
		for _, token := range tokens {
			entry, err := ParseToken(token)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
			}
			entries[size] = append(entries[size], entry)
		}
	}
	return entries, nil
}

func marshal(entries map[string][]Entry) ([]byte, error) {
	out := make(map[string]any, len(entries))
	for size, list := range entries {
		if len(list) == 1 {
			out[size] = list[0].String()
			continue
		}
		tokens := make([]string, 0, len(list))
		for _, entry := range list {
			tokens = append(tokens, entry.String())
		}
		out[size] = tokens
	}
	return json.Marshal(out)
}

func compareSize(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

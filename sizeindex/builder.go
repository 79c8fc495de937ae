package sizeindex

import (
	"bytes"
	"errors"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/natefinch/atomic"
)

// Builder is the mutable side of the index, used while crawling. It is safe
// for concurrent use. Snapshots taken from it are never affected by later Adds.
type Builder struct {
	mu      sync.Mutex
	entries map[string][]Entry
	added   int
}

func NewBuilder() *Builder {
	return &Builder{entries: map[string][]Entry{}}
}

// LoadBuilder starts from an existing index file. A missing file is an empty index.
func LoadBuilder(filename string) (*Builder, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return NewBuilder(), nil
	}
	if err != nil {
		return nil, err
	}
	entries, err := parse(data)
	if err != nil {
		return nil, err
	}
	return &Builder{entries: entries}, nil
}

// Add records entry under size. It returns false if the exact token is already present.
func (b *Builder) Add(size int64, entry Entry) bool {
	key := strconv.FormatInt(size, 10)
	b.mu.Lock()
	defer b.mu.Unlock()
	if slices.Contains(b.entries[key], entry) {
		return false
	}
	b.entries[key] = append(b.entries[key], entry)
	b.added++
	return true
}

// Added is the number of tokens added since the builder was created.
func (b *Builder) Added() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.added
}

func (b *Builder) Snapshot() *Index {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := maps.Clone(b.entries)
	for size, list := range entries {
		entries[size] = slices.Clone(list)
	}
	return &Index{entries: entries}
}

func (b *Builder) Marshal() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return marshal(b.entries)
}

// Save writes the index atomically. Keys with a single token are written as a
// plain string so older readers keep working.
func (b *Builder) Save(filename string) error {
	data, err := b.Marshal()
	if err != nil {
		return err
	}
	return atomic.WriteFile(filename, bytes.NewReader(data))
}

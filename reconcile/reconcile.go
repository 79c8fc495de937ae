// Package reconcile decides whether a torrent's declared files correspond to a
// local file or folder, using file sizes only, and infers the renames that make
// the torrent's layout line up with the local one.
//
// Names declared by a torrent are never used to find files. They are decoded
// only to work out which renames the client needs after the torrent is added.
package reconcile

import (
	"cmp"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/sagan/auxseed/torrentutil"
)

const (
	DefaultMaxMissingSize = int64(1024 * 1024 * 1024)
	DefaultMinAnchorSize  = int64(4 * 1024 * 1024)
)

var (
	ErrToleranceExceeded = errors.New("missing size exceeds tolerance")
	ErrSizeMismatch      = errors.New("no local file has a matching size")
	ErrUndecodableName   = errors.New("torrent name cannot be decoded")
	ErrNoFileLocated     = errors.New("no torrent file could be located locally")
)

type Options struct {
	// Torrent content allowed to have no local counterpart, in bytes.
	// For a single-file torrent matched inside a folder it bounds the extra local content instead.
	MaxMissingSize int64
	// Torrent files of this size or smaller never anchor a folder boundary.
	MinAnchorSize int64
	CharMap       map[string]string
	// Tried when a name is not valid UTF-8. nil disables the fallback.
	LegacyEncoding encoding.Encoding
}

func DefaultOptions() Options {
	return Options{
		MaxMissingSize: DefaultMaxMissingSize,
		MinAnchorSize:  DefaultMinAnchorSize,
		CharMap:        DefaultCharMap,
		LegacyEncoding: simplifiedchinese.GBK,
	}
}

type Engine struct {
	opts     Options
	replacer *strings.Replacer
	legacy   encoding.Encoding
}

func New(opts Options) *Engine {
	if opts.CharMap == nil {
		opts.CharMap = DefaultCharMap
	}
	return &Engine{
		opts:     opts,
		replacer: newReplacer(opts.CharMap),
		legacy:   opts.LegacyEncoding,
	}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Match is an accepted correspondence between a torrent and local content.
type Match struct {
	// Where the client should be told the torrent's content lives.
	SavePath string
	// Renames to issue against the client after the torrent is added, in order.
	Renames RenameMap
	// Local files accounted for by the torrent.
	Attributed []string
}

// MatchFile matches a torrent against a single local file.
func (e *Engine) MatchFile(path string, size int64, info *torrentutil.Info) (*Match, error) {
	name, err := e.rootName(info)
	if err != nil {
		return nil, err
	}
	filename := filepath.Base(path)
	match := &Match{
		SavePath:   filepath.Dir(path),
		Attributed: []string{path},
	}
	if !info.MultiFile {
		if info.Length != size {
			return nil, fmt.Errorf("%w: torrent declares %d bytes, local file has %d", ErrSizeMismatch, info.Length, size)
		}
		if name != "" {
			match.Renames.Add(name, filename)
		}
		return match, nil
	}

	anchor := -1
	missing := int64(0)
	for i, file := range info.Files {
		if anchor == -1 && file.Length == size {
			anchor = i
			continue
		}
		missing += file.Length
	}
	if anchor == -1 {
		return nil, fmt.Errorf("%w: no torrent file has %d bytes", ErrSizeMismatch, size)
	}
	if missing > e.opts.MaxMissingSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrToleranceExceeded, missing, e.opts.MaxMissingSize)
	}
	from, ok := e.torrentPath(name, info.Files[anchor].Path)
	if !ok {
		return nil, ErrUndecodableName
	}
	match.Renames.Add(from, filename)
	return match, nil
}

// MatchFolder matches a torrent against the files of a local folder. files is
// only read; the caller removes Match.Attributed from it once the torrent has
// been registered.
func (e *Engine) MatchFolder(root string, files *FileSet, info *torrentutil.Info) (*Match, error) {
	name, err := e.rootName(info)
	if err != nil {
		return nil, err
	}
	if !info.MultiFile {
		return e.matchSingleFileInFolder(name, files, info.Length)
	}
	return e.matchMultiFileInFolder(filepath.Dir(root), name, files, info)
}

func (e *Engine) matchSingleFileInFolder(name string, files *FileSet, length int64) (*Match, error) {
	var anchor *LocalFile
	extra := int64(0)
	for _, file := range files.Files() {
		file := file
		if anchor == nil && file.Size == length {
			anchor = &file
			continue
		}
		extra += file.Size
	}
	if anchor == nil {
		return nil, fmt.Errorf("%w: no local file has %d bytes", ErrSizeMismatch, length)
	}
	if extra > e.opts.MaxMissingSize {
		return nil, fmt.Errorf("%w: %d bytes of other local files", ErrToleranceExceeded, extra)
	}
	match := &Match{
		SavePath:   filepath.Dir(anchor.Path),
		Attributed: []string{anchor.Path},
	}
	if name != "" {
		match.Renames.Add(name, filepath.Base(anchor.Path))
	}
	return match, nil
}

// rootName decodes the torrent's name. A single-file torrent may omit it, in
// which case "" is returned and no rename of the file is inferred.
func (e *Engine) rootName(info *torrentutil.Info) (string, error) {
	if info.Name == nil && !info.MultiFile {
		return "", nil
	}
	name, ok := e.DecodeName(info.Name)
	if !ok || !validComponent(name) {
		return "", ErrUndecodableName
	}
	return name, nil
}

type torrentFile struct {
	index int
	size  int64
	path  string // "name/seg/...", empty if a segment cannot be decoded
}

func (e *Engine) matchMultiFileInFolder(base string, name string, files *FileSet, info *torrentutil.Info) (*Match, error) {
	tfiles := make([]torrentFile, 0, len(info.Files))
	for i, file := range info.Files {
		p, ok := e.torrentPath(name, file.Path)
		if !ok {
			log.Debugf("torrent file %d of %s has an undecodable name", i, name)
			p = ""
		}
		tfiles = append(tfiles, torrentFile{index: i, size: file.Length, path: p})
	}

	// size collisions: the first discovered local file wins
	sizeToPath := map[int64]string{}
	for _, file := range files.Files() {
		if _, ok := sizeToPath[file.Size]; !ok {
			sizeToPath[file.Size] = file.Path
		}
	}

	unmatched := int64(0)
	for _, tfile := range tfiles {
		if _, ok := sizeToPath[tfile.size]; !ok {
			unmatched += tfile.size
		}
	}
	if unmatched > e.opts.MaxMissingSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrToleranceExceeded, unmatched, e.opts.MaxMissingSize)
	}

	localPath := func(p string) string {
		return filepath.Join(base, filepath.FromSlash(p))
	}
	missingSize := func(renames RenameMap) (size int64) {
		for _, tfile := range tfiles {
			if tfile.path == "" || !files.Has(localPath(renames.Apply(tfile.path))) {
				size += tfile.size
			}
		}
		return
	}

	sorted := slices.Clone(tfiles)
	slices.SortStableFunc(sorted, func(a, b torrentFile) int {
		return cmp.Compare(b.size, a.size)
	})
	renames := RenameMap{}
	for _, tfile := range sorted {
		local, ok := sizeToPath[tfile.size]
		if !ok || tfile.size <= e.opts.MinAnchorSize {
			continue
		}
		if missingSize(renames) == unmatched {
			break
		}
		if tfile.path == "" {
			continue
		}
		rel, err := filepath.Rel(base, local)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		corrected := renames.Apply(tfile.path)
		if corrected == rel {
			continue
		}
		if other := claimedBy(tfiles, tfile, rel, renames); other != nil {
			log.Debugf("local file %s is claimed by torrent file %d of the same size, skip inference from %s",
				rel, other.index, tfile.path)
			continue
		}
		from, to := folderBoundary(corrected, rel)
		if renames.Add(from, to) {
			log.Tracef("inferred rename %s -> %s", from, to)
		}
	}

	match := &Match{SavePath: base, Renames: renames}
	seen := map[string]bool{}
	for _, tfile := range tfiles {
		if tfile.path == "" {
			continue
		}
		p := localPath(renames.Apply(tfile.path))
		if files.Has(p) && !seen[p] {
			seen[p] = true
			match.Attributed = append(match.Attributed, p)
		}
	}
	if len(match.Attributed) == 0 {
		return nil, ErrNoFileLocated
	}
	return match, nil
}

// claimedBy returns another torrent file of the same size whose path, after
// the renames inferred so far, already is rel.
func claimedBy(tfiles []torrentFile, tfile torrentFile, rel string, renames RenameMap) *torrentFile {
	for i := range tfiles {
		other := &tfiles[i]
		if other.index != tfile.index && other.size == tfile.size && other.path != "" &&
			renames.Apply(other.path) == rel {
			return other
		}
	}
	return nil
}

// folderBoundary strips the common trailing components of the two paths,
// always keeping at least one leading component on the shorter side. If
// anything was stripped the remaining prefixes are returned as folders
// (trailing '/'), otherwise the full paths are a file-level rename.
func folderBoundary(torrentPath, localPath string) (from, to string) {
	t := strings.Split(torrentPath, "/")
	l := strings.Split(localPath, "/")
	isFile := true
	n := min(len(t), len(l)) - 1
	for i := 0; i < n; i++ {
		if t[len(t)-1] != l[len(l)-1] {
			break
		}
		isFile = false
		t = t[:len(t)-1]
		l = l[:len(l)-1]
	}
	from = strings.Join(t, "/")
	to = strings.Join(l, "/")
	if !isFile {
		from += "/"
		to += "/"
	}
	return
}

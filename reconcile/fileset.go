package reconcile

import (
	"io/fs"
	"path/filepath"
)

type LocalFile struct {
	Path string // full file system path
	Size int64
}

// FileSet is the working set of local files under one source entry, in
// discovery order. Files are removed as torrents claim them.
type FileSet struct {
	files   []LocalFile
	index   map[string]int // path => position in files
	removed int
}

func NewFileSet(files ...LocalFile) *FileSet {
	fileset := &FileSet{index: map[string]int{}}
	for _, file := range files {
		fileset.Add(file.Path, file.Size)
	}
	return fileset
}

// ScanFileSet collects every regular file under root, in lexical walk order.
func ScanFileSet(root string) (*FileSet, error) {
	fileset := NewFileSet()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		fileset.Add(path, info.Size())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fileset, nil
}

// Add appends a file. Adding an existing path is a no-op.
func (fileset *FileSet) Add(path string, size int64) {
	if _, ok := fileset.index[path]; ok || path == "" {
		return
	}
	fileset.index[path] = len(fileset.files)
	fileset.files = append(fileset.files, LocalFile{Path: path, Size: size})
}

func (fileset *FileSet) Has(path string) bool {
	_, ok := fileset.index[path]
	return ok
}

// Remove drops paths from the set and returns how many were present.
func (fileset *FileSet) Remove(paths ...string) (cnt int) {
	for _, path := range paths {
		if i, ok := fileset.index[path]; ok {
			delete(fileset.index, path)
			fileset.files[i].Path = ""
			fileset.removed++
			cnt++
		}
	}
	if fileset.removed > 0 && fileset.removed*2 >= len(fileset.files) {
		fileset.compact()
	}
	return
}

func (fileset *FileSet) compact() {
	files := make([]LocalFile, 0, len(fileset.index))
	for _, file := range fileset.files {
		if file.Path != "" {
			fileset.index[file.Path] = len(files)
			files = append(files, file)
		}
	}
	fileset.files = files
	fileset.removed = 0
}

func (fileset *FileSet) Len() int {
	return len(fileset.index)
}

func (fileset *FileSet) Files() []LocalFile {
	files := make([]LocalFile, 0, len(fileset.index))
	for _, file := range fileset.files {
		if file.Path != "" {
			files = append(files, file)
		}
	}
	return files
}

func (fileset *FileSet) Sizes() []int64 {
	sizes := make([]int64, 0, len(fileset.index))
	for _, file := range fileset.files {
		if file.Path != "" {
			sizes = append(sizes, file.Size)
		}
	}
	return sizes
}

func (fileset *FileSet) TotalSize() (size int64) {
	for _, file := range fileset.files {
		if file.Path != "" {
			size += file.Size
		}
	}
	return
}

func (fileset *FileSet) Clone() *FileSet {
	return NewFileSet(fileset.Files()...)
}

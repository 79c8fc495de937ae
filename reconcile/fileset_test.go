package reconcile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/auxseed/reconcile"
)

func prepareFs(t *testing.T, dir string, files map[string]int64) {
	t.Helper()
	for name, size := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		f, err := os.Create(p)
		require.NoError(t, err)
		require.NoError(t, f.Truncate(size))
		require.NoError(t, f.Close())
	}
}

func TestScanFileSet(t *testing.T) {
	dir := t.TempDir()
	prepareFs(t, dir, map[string]int64{
		"movie/video.mkv":       2048,
		"movie/subs/en.srt":     10,
		"movie/subs/zh.srt":     12,
		"movie/extras/clip.mp4": 512,
	})
	fileset, err := reconcile.ScanFileSet(filepath.Join(dir, "movie"))
	require.NoError(t, err)
	assert.Equal(t, 4, fileset.Len())
	assert.Equal(t, []reconcile.LocalFile{
		{Path: filepath.Join(dir, "movie", "extras", "clip.mp4"), Size: 512},
		{Path: filepath.Join(dir, "movie", "subs", "en.srt"), Size: 10},
		{Path: filepath.Join(dir, "movie", "subs", "zh.srt"), Size: 12},
		{Path: filepath.Join(dir, "movie", "video.mkv"), Size: 2048},
	}, fileset.Files())
	assert.Equal(t, int64(2582), fileset.TotalSize())

	_, err = reconcile.ScanFileSet(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFileSetRemove(t *testing.T) {
	fileset := reconcile.NewFileSet(
		reconcile.LocalFile{Path: "/a", Size: 1},
		reconcile.LocalFile{Path: "/b", Size: 2},
		reconcile.LocalFile{Path: "/c", Size: 3},
		reconcile.LocalFile{Path: "/d", Size: 4},
	)
	clone := fileset.Clone()

	assert.Equal(t, 1, fileset.Remove("/b", "/x"))
	assert.False(t, fileset.Has("/b"))
	assert.Equal(t, []int64{1, 3, 4}, fileset.Sizes())

	assert.Equal(t, 2, fileset.Remove("/a", "/d"))
	assert.Equal(t, []reconcile.LocalFile{{Path: "/c", Size: 3}}, fileset.Files())
	assert.True(t, fileset.Has("/c"))

	fileset.Add("/e", 5)
	assert.Equal(t, []int64{3, 5}, fileset.Sizes())
	assert.Equal(t, 1, fileset.Remove("/c"))
	assert.Equal(t, 1, fileset.Len())

	assert.Equal(t, 4, clone.Len())
}

func TestRenameMap(t *testing.T) {
	m := reconcile.RenameMap{}
	assert.True(t, m.Add("name/", "movie/"))
	assert.False(t, m.Add("name/", "other/"))
	assert.False(t, m.Add("same", "same"))
	assert.True(t, m.Add("movie/a.mkv", "movie/b.mkv"))

	assert.Equal(t, "movie/sub/x.srt", m.Apply("name/sub/x.srt"))
	assert.Equal(t, "movie/b.mkv", m.Apply("name/a.mkv"))
	assert.Equal(t, "movie/a.mkv.nfo", m.Apply("name/a.mkv.nfo"), "file renames match whole paths only")
	assert.Equal(t, "names/x", m.Apply("names/x"), "folder renames match whole components only")
}

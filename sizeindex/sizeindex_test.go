package sizeindex_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/auxseed/sizeindex"
)

func TestRepresentativeSize(t *testing.T) {
	denylist := sizeindex.NewDenylist(1073739776, 4000000000)
	tests := []struct {
		desc     string
		sizes    []int64
		expected int64
	}{
		{
			desc:     "largest is denylisted",
			sizes:    []int64{1073739776, 500000000, 1000},
			expected: 500000000,
		},
		{
			desc:     "only size is denylisted",
			sizes:    []int64{1073739776},
			expected: 1073739776,
		},
		{
			desc:     "all sizes denylisted falls back to largest",
			sizes:    []int64{1073739776, 4000000000},
			expected: 4000000000,
		},
		{
			desc:     "denylisted size that is not the largest is irrelevant",
			sizes:    []int64{1073739776, 2000000000},
			expected: 2000000000,
		},
		{
			desc:     "duplicates of the largest",
			sizes:    []int64{1073739776, 1073739776, 7},
			expected: 7,
		},
		{
			desc:     "empty",
			sizes:    nil,
			expected: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			assert.Equal(t, test.expected, sizeindex.RepresentativeSize(test.sizes, denylist))
		})
	}
}

func TestParseToken(t *testing.T) {
	entry, err := sizeindex.ParseToken("42_ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, sizeindex.Entry{TorrentId: "42", InfoHash: "abcdef"}, entry)
	assert.Equal(t, "42_abcdef", entry.String())

	for _, token := range []string{"", "42", "_abc", "42_"} {
		_, err := sizeindex.ParseToken(token)
		assert.Error(t, err, token)
	}
}

func TestParseScalarOrList(t *testing.T) {
	idx, err := sizeindex.Parse([]byte(`{"2000000000": "42_aa", "5000": ["1_bb", "2_cc"]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []sizeindex.Entry{{TorrentId: "42", InfoHash: "aa"}}, idx.Lookup("2000000000"))
	assert.Equal(t, []sizeindex.Entry{{TorrentId: "1", InfoHash: "bb"}, {TorrentId: "2", InfoHash: "cc"}},
		idx.LookupSize(5000))
	assert.Empty(t, idx.Lookup("1"))
	assert.Equal(t, []string{"5000", "2000000000"}, idx.Sizes())

	for _, data := range []string{`[]`, `{"x": "1_a"}`, `{"1": 3}`, `{"1": ["bad"]}`} {
		_, err := sizeindex.Parse([]byte(data))
		assert.ErrorIs(t, err, sizeindex.ErrInvalidFormat, data)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	idx, err := sizeindex.Parse([]byte(`{"5000": "1_bb"}`))
	require.NoError(t, err)
	got := idx.Lookup("5000")
	got[0].TorrentId = "changed"
	assert.Equal(t, "1", idx.Lookup("5000")[0].TorrentId)

	b := sizeindex.NewBuilder()
	b.Add(5000, sizeindex.Entry{TorrentId: "1", InfoHash: "bb"})
	snapshot := b.Snapshot()
	b.Add(5000, sizeindex.Entry{TorrentId: "2", InfoHash: "cc"})
	b.Add(6000, sizeindex.Entry{TorrentId: "3", InfoHash: "dd"})
	assert.Len(t, snapshot.Lookup("5000"), 1)
	assert.Equal(t, 1, snapshot.Len())
}

func TestBuilderSaveLoad(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "size_id.json")

	b, err := sizeindex.LoadBuilder(filename)
	require.NoError(t, err)
	assert.True(t, b.Add(2000000000, sizeindex.Entry{TorrentId: "42", InfoHash: "aa"}))
	assert.True(t, b.Add(5000, sizeindex.Entry{TorrentId: "1", InfoHash: "bb"}))
	assert.True(t, b.Add(5000, sizeindex.Entry{TorrentId: "2", InfoHash: "cc"}))
	assert.False(t, b.Add(5000, sizeindex.Entry{TorrentId: "2", InfoHash: "cc"}))
	assert.Equal(t, 3, b.Added())
	require.NoError(t, b.Save(filename))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	raw := map[string]any{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "42_aa", raw["2000000000"])
	assert.Equal(t, []any{"1_bb", "2_cc"}, raw["5000"])

	idx, err := sizeindex.Load(filename)
	require.NoError(t, err)
	assert.Len(t, idx.LookupSize(5000), 2)

	b, err = sizeindex.LoadBuilder(filename)
	require.NoError(t, err)
	assert.False(t, b.Add(2000000000, sizeindex.Entry{TorrentId: "42", InfoHash: "aa"}))
	assert.True(t, b.Add(2000000000, sizeindex.Entry{TorrentId: "43", InfoHash: "ee"}))
	assert.Len(t, b.Snapshot().LookupSize(2000000000), 2)
}

package common_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/auxseed/cmd/common"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/xseed"
)

func TestNewEngine(t *testing.T) {
	c := &config.ConfigStruct{
		MaxMissingSizeValue: 100,
		MinAnchorSizeValue:  10,
		LegacyEncoding:      "big5",
	}
	engine, err := common.NewEngine(c)
	require.NoError(t, err)
	assert.Equal(t, int64(100), engine.Options().MaxMissingSize)
	assert.Equal(t, int64(10), engine.Options().MinAnchorSize)
	assert.NotNil(t, engine.Options().LegacyEncoding)

	c.LegacyEncoding = "nope"
	_, err = common.NewEngine(c)
	assert.Error(t, err)
}

func TestOpenCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "torrents")
	cache, err := common.OpenCache(dir, false)
	require.NoError(t, err)
	assert.Nil(t, cache)

	cache, err = common.OpenCache(dir, true)
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.Len())
	assert.DirExists(t, dir)
}

func TestPrintReport(t *testing.T) {
	report := &xseed.Report{Results: []*xseed.Result{
		{Path: "/src/movie", IsDir: true, Size: 2 * 1024 * 1024 * 1024, State: xseed.StateAdded,
			Candidates: []*xseed.CandidateResult{{TorrentId: "42", Status: xseed.CandidateAdded}}},
		{Path: "/src/none.bin", Size: 999, State: xseed.StateNoCandidate},
	}}
	output := &bytes.Buffer{}
	common.PrintReport(output, report, false)
	assert.Contains(t, output.String(), "movie/")
	assert.Contains(t, output.String(), "42:added")
	assert.Contains(t, output.String(), "2.0 GiB")
	assert.NotContains(t, output.String(), "none.bin")
	assert.Contains(t, output.String(), "added torrents: 1 ; no candidate: 1")

	output.Reset()
	common.PrintReport(output, report, true)
	assert.Contains(t, output.String(), "none.bin")
}

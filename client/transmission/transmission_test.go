package transmission

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/auxseed/client"
	"github.com/sagan/auxseed/config"
)

type rpcRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments"`
	Tag       json.RawMessage `json:"tag"`
}

// fakeTr answers rpc calls with canned arguments per method and records requests.
type fakeTr struct {
	answers  map[string]string
	requests []rpcRequest
}

func (f *fakeTr) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.requests = append(f.requests, req)
	arguments, ok := f.answers[req.Method]
	if !ok {
		arguments = "{}"
	}
	fmt.Fprintf(w, `{"arguments":%s,"result":"success","tag":%s}`, arguments, req.Tag)
}

func newTestClient(t *testing.T, f *fakeTr) *Client {
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	c, err := NewClient("tr", &config.ClientConfigStruct{
		Type: "transmission",
		Url:  server.URL + "/transmission/rpc/",
	}, nil)
	require.NoError(t, err)
	return c.(*Client)
}

func TestClient(t *testing.T) {
	f := &fakeTr{answers: map[string]string{
		"torrent-get": `{"torrents":[{"id":1,"hashString":"AAAA"},{"id":2,"hashString":"bbbb"}]}`,
		"torrent-add": `{"torrent-added":{"id":3,"hashString":"cccc","name":"movie"}}`,
	}}
	c := newTestClient(t, f)

	hashes, err := c.GetInfoHashes()
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa", "bbbb"}, hashes)

	require.NoError(t, c.AddTorrent([]byte("d4:infode"), &client.TorrentOption{SavePath: "/src", Pause: true}))
	var add map[string]any
	require.NoError(t, json.Unmarshal(f.requests[1].Arguments, &add))
	assert.Equal(t, "ZDQ6aW5mb2Rl", add["metainfo"])
	assert.Equal(t, "/src", add["download-dir"])
	assert.Equal(t, true, add["paused"])

	require.NoError(t, c.RenameFolder("cccc", "name/", "movie/"))
	last := f.requests[len(f.requests)-1]
	assert.Equal(t, "torrent-rename-path", last.Method)
	assert.JSONEq(t, `{"ids":[3],"path":"name","name":"movie"}`, string(last.Arguments))

	require.NoError(t, c.RenameFile("aaaa", "name/sub/a.mkv", "name/sub/b.mkv"))
	last = f.requests[len(f.requests)-1]
	assert.JSONEq(t, `{"ids":[1],"path":"name/sub/a.mkv","name":"b.mkv"}`, string(last.Arguments))
}

func TestRenameAcrossFolders(t *testing.T) {
	f := &fakeTr{}
	c := newTestClient(t, f)
	err := c.RenameFolder("aaaa", "name/A/", "movie/A1/")
	assert.ErrorIs(t, err, client.ErrUnsupportedRename)
	assert.Empty(t, f.requests)
}

func TestRenameUnknownTorrent(t *testing.T) {
	f := &fakeTr{answers: map[string]string{
		"torrent-get": `{"torrents":[]}`,
	}}
	c := newTestClient(t, f)
	err := c.RenameFolder("dddd", "name", "movie")
	assert.ErrorIs(t, err, client.ErrTorrentNotFound)
}

func TestNewClientInvalidUrl(t *testing.T) {
	for _, u := range []string{"ftp://localhost:9091", "http://:9091", "http://localhost:0/"} {
		_, err := NewClient("tr", &config.ClientConfigStruct{Url: u}, nil)
		assert.Error(t, err, u)
	}
}

package transmission

// use https://github.com/hekmon/transmissionrpc
// protocol: https://github.com/transmission/transmission/blob/3.00/extras/rpc-spec.txt

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"

	transmissionrpc "github.com/hekmon/transmissionrpc/v2"
	log "github.com/sirupsen/logrus"

	"github.com/sagan/auxseed/client"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/util"
)

type Client struct {
	Name         string
	ClientConfig *config.ClientConfigStruct
	Config       *config.ConfigStruct
	client       *transmissionrpc.Client
	mu           sync.Mutex
	ids          map[string]int64 // info hash => torrent id
}

func (trclient *Client) GetName() string {
	return trclient.Name
}

func (trclient *Client) GetClientConfig() *config.ClientConfigStruct {
	return trclient.ClientConfig
}

func (trclient *Client) GetInfoHashes() ([]string, error) {
	torrents, err := trclient.client.TorrentGet(context.TODO(), []string{"id", "hashString"}, nil)
	if err != nil {
		return nil, err
	}
	trclient.mu.Lock()
	defer trclient.mu.Unlock()
	infoHashes := make([]string, 0, len(torrents))
	for _, torrent := range torrents {
		if torrent.HashString == nil || torrent.ID == nil {
			continue
		}
		infoHash := strings.ToLower(*torrent.HashString)
		trclient.ids[infoHash] = *torrent.ID
		infoHashes = append(infoHashes, infoHash)
	}
	return infoHashes, nil
}

func (trclient *Client) AddTorrent(torrentContent []byte, option *client.TorrentOption) error {
	torrentContentB64 := base64.StdEncoding.EncodeToString(torrentContent)
	payload := transmissionrpc.TorrentAddPayload{
		MetaInfo: &torrentContentB64,
	}
	if option != nil {
		payload.Paused = &option.Pause
		if option.SavePath != "" {
			payload.DownloadDir = &option.SavePath
		}
	}
	// returned torrent will only have HashString, ID and Name fields set up.
	torrent, err := trclient.client.TorrentAdd(context.TODO(), payload)
	if err != nil {
		return err
	}
	if torrent.HashString != nil && torrent.ID != nil {
		trclient.mu.Lock()
		trclient.ids[strings.ToLower(*torrent.HashString)] = *torrent.ID
		trclient.mu.Unlock()
	}
	return nil
}

func (trclient *Client) RenameFile(infoHash string, oldPath string, newPath string) error {
	return trclient.renamePath(infoHash, oldPath, newPath)
}

func (trclient *Client) RenameFolder(infoHash string, oldPath string, newPath string) error {
	return trclient.renamePath(infoHash, oldPath, newPath)
}

// tr can only change the last component of a path in place.
func (trclient *Client) renamePath(infoHash string, oldPath string, newPath string) error {
	oldPath = strings.TrimSuffix(oldPath, "/")
	newPath = strings.TrimSuffix(newPath, "/")
	if path.Dir(oldPath) != path.Dir(newPath) {
		return fmt.Errorf("%w: %s => %s changes parent folder", client.ErrUnsupportedRename, oldPath, newPath)
	}
	id, err := trclient.getId(infoHash)
	if err != nil {
		return err
	}
	log.Tracef("tr rename torrent %d path %s => %s", id, oldPath, path.Base(newPath))
	return trclient.client.TorrentRenamePath(context.TODO(), id, oldPath, path.Base(newPath))
}

func (trclient *Client) getId(infoHash string) (int64, error) {
	trclient.mu.Lock()
	id, ok := trclient.ids[infoHash]
	trclient.mu.Unlock()
	if ok {
		return id, nil
	}
	torrents, err := trclient.client.TorrentGetAllForHashes(context.TODO(), []string{infoHash})
	if err != nil {
		return 0, err
	}
	if len(torrents) == 0 || torrents[0].ID == nil {
		return 0, fmt.Errorf("%w: %s", client.ErrTorrentNotFound, infoHash)
	}
	trclient.mu.Lock()
	trclient.ids[infoHash] = *torrents[0].ID
	trclient.mu.Unlock()
	return *torrents[0].ID, nil
}

func (trclient *Client) Close() {
}

func NewClient(name string, clientConfig *config.ClientConfigStruct, config *config.ConfigStruct) (
	client.Client, error) {
	urlObj, err := url.Parse(clientConfig.Url)
	if err != nil {
		return nil, err
	}
	schema := urlObj.Scheme
	hostname := urlObj.Hostname()
	portStr := urlObj.Port()
	port := int64(80)
	isHttps := schema == "https"
	rpcUri := strings.TrimSuffix(urlObj.Path, "/") // Leave empty to use default "/transmission/rpc"
	if portStr != "" {
		port = util.ParseInt(portStr)
	} else if isHttps {
		port = 443
	}
	if (schema != "http" && schema != "https") || hostname == "" || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid tr url: %s", clientConfig.Url)
	}
	trclient, err := transmissionrpc.New(hostname, clientConfig.Username, clientConfig.Password,
		&transmissionrpc.AdvancedConfig{
			HTTPS:  isHttps,
			Port:   uint16(port),
			RPCURI: rpcUri,
		})
	if err != nil {
		return nil, err
	}
	return &Client{
		Name:         name,
		ClientConfig: clientConfig,
		Config:       config,
		client:       trclient,
		ids:          map[string]int64{},
	}, nil
}

func init() {
	client.Register(&client.RegInfo{
		Name:    "transmission",
		Creator: NewClient,
	})
}

var (
	_ client.Client = (*Client)(nil)
)

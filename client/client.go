package client

import (
	"errors"
	"fmt"

	"github.com/sagan/auxseed/config"
)

type TorrentOption struct {
	// Folder the client should look for the torrent's content in.
	SavePath string
	Pause    bool
}

var (
	// The client cannot perform the requested rename, e.g. moving a path to another folder.
	ErrUnsupportedRename = errors.New("unsupported rename")
	ErrTorrentNotFound   = errors.New("torrent not found")
)

// Client is the subset of a BitTorrent client's API needed to register
// cross-seeded torrents.
//
// Torrent-internal paths passed to RenameFile and RenameFolder are "/"
// separated and start with the torrent's root name, e.g. "name/sub/a.mkv".
type Client interface {
	GetName() string
	GetClientConfig() *config.ClientConfigStruct
	// Lowercase hex info hashes of all torrents in client.
	GetInfoHashes() ([]string, error)
	AddTorrent(torrentContent []byte, option *TorrentOption) error
	RenameFile(infoHash string, oldPath string, newPath string) error
	RenameFolder(infoHash string, oldPath string, newPath string) error
	Close()
}

type RegInfo struct {
	Name    string
	Creator func(string, *config.ClientConfigStruct, *config.ConfigStruct) (Client, error)
}

var (
	Registry = []*RegInfo{}
)

func Register(regInfo *RegInfo) {
	Registry = append(Registry, regInfo)
}

func Find(name string) (*RegInfo, error) {
	for _, item := range Registry {
		if item.Name == name {
			return item, nil
		}
	}
	return nil, fmt.Errorf("didn't find client %q", name)
}

func CreateClient(name string) (Client, error) {
	clientConfig := config.GetClientConfig(name)
	if clientConfig == nil {
		return nil, fmt.Errorf("client %s not existed", name)
	}
	return CreateClientWithConfig(clientConfig, config.Get())
}

func CreateClientWithConfig(clientConfig *config.ClientConfigStruct, c *config.ConfigStruct) (Client, error) {
	regInfo, err := Find(clientConfig.Type)
	if err != nil {
		return nil, fmt.Errorf("unsupported client type %s", clientConfig.Type)
	}
	return regInfo.Creator(clientConfig.Name, clientConfig, c)
}

package site

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/constants"
	"github.com/sagan/auxseed/util"
)

type Site interface {
	GetName() string
	GetSiteConfig() *config.SiteConfigStruct
	// download torrent by torrent id (eg. 12345)
	DownloadTorrentById(ctx context.Context, id string) ([]byte, error)
	// Ids of torrents listed on the page-th (0 based) page of the torrents list, newest first.
	// Pinned torrents are not included.
	GetTorrentIds(ctx context.Context, page int64) ([]string, error)
}

type RegInfo struct {
	Name    string
	Aliases []string
	Creator func(string, *config.SiteConfigStruct, *config.ConfigStruct) (Site, error)
}

var (
	registryMap = map[string](*RegInfo){}
	sites       = map[string](Site){}
	mu          sync.Mutex
)

func Register(regInfo *RegInfo) {
	registryMap[regInfo.Name] = regInfo
	for _, alias := range regInfo.Aliases {
		registryMap[alias] = regInfo
	}
}

func CreateSiteInternal(name string,
	siteConfig *config.SiteConfigStruct, config *config.ConfigStruct) (Site, error) {
	regInfo := registryMap[siteConfig.Type]
	if regInfo == nil {
		return nil, fmt.Errorf("unsupported site type %s", siteConfig.Type)
	}
	return regInfo.Creator(name, siteConfig, config)
}

func CreateSite(name string) (Site, error) {
	mu.Lock()
	defer mu.Unlock()
	if sites[name] != nil {
		return sites[name], nil
	}
	siteConfig := config.GetSiteConfig(name)
	if siteConfig == nil {
		return nil, fmt.Errorf("site %s not found", name)
	}
	siteInstance, err := CreateSiteInternal(name, siteConfig, config.Get())
	if err == nil {
		sites[name] = siteInstance
	}
	return siteInstance, err
}

func CreateSiteHttpClient(siteConfig *config.SiteConfigStruct) *http.Client {
	return &http.Client{
		Timeout: time.Duration(siteConfig.Timeout) * time.Second,
	}
}

// general download torrent func
func DownloadTorrentByUrl(ctx context.Context, siteInstance Site, httpClient *http.Client,
	torrentUrl string) ([]byte, error) {
	siteConfig := siteInstance.GetSiteConfig()
	res, err := util.FetchUrl(ctx, torrentUrl, httpClient, siteConfig.Cookie, siteConfig.UserAgent, nil)
	if err != nil {
		return nil, fmt.Errorf("can not fetch torrents from site: %w", err)
	}
	defer res.Body.Close()
	mimeType, _, _ := mime.ParseMediaType(res.Header.Get("content-type"))
	if mimeType != "" && mimeType != "application/octet-stream" && mimeType != constants.TORRENT_FILE_MIME_TYPE {
		return nil, fmt.Errorf("server return invalid content-type: %s", mimeType)
	}
	content, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	// sites return an html error page with a 200 status for invalid passkeys
	if len(content) == 0 || content[0] != constants.TORRENT_FILE_MAGIC_BYTE {
		return nil, fmt.Errorf("server return invalid torrent content (%d bytes)", len(content))
	}
	return content, nil
}

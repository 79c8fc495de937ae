package nexusphp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/site"
	"github.com/sagan/auxseed/util"
)

const (
	SELECTOR_TORRENTS_LIST = `table.torrents`
	SELECTOR_DETAILS_LINK  = `a[href*="details.php?id="]`
	DEFAULT_TORRENTS_URL   = "torrents.php"
)

type Site struct {
	Name       string
	SiteConfig *config.SiteConfigStruct
	Config     *config.ConfigStruct
	HttpClient *http.Client
}

func (npclient *Site) GetName() string {
	return npclient.Name
}

func (npclient *Site) GetSiteConfig() *config.SiteConfigStruct {
	return npclient.SiteConfig
}

func (npclient *Site) DownloadTorrentById(ctx context.Context, id string) ([]byte, error) {
	return site.DownloadTorrentByUrl(ctx, npclient, npclient.HttpClient,
		npclient.SiteConfig.ParseSiteUrl(generateTorrentDownloadUrl(id, npclient.SiteConfig.Passkey), false))
}

func (npclient *Site) GetTorrentIds(ctx context.Context, page int64) ([]string, error) {
	torrentsUrl := npclient.SiteConfig.TorrentsUrl
	if torrentsUrl == "" {
		torrentsUrl = DEFAULT_TORRENTS_URL
	}
	pageUrl := npclient.SiteConfig.ParseSiteUrl(torrentsUrl, true) + fmt.Sprintf("page=%d", page)
	res, err := util.FetchUrl(ctx, pageUrl, npclient.HttpClient,
		npclient.SiteConfig.Cookie, npclient.SiteConfig.UserAgent, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch torrents page %d: %w", page, err)
	}
	defer res.Body.Close()
	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse site page dom: %w", err)
	}
	return parseTorrentIds(doc)
}

// parseTorrentIds returns the ids of the rows of the torrents table, skipping
// the header row and pinned (sticky) rows.
func parseTorrentIds(doc *goquery.Document) ([]string, error) {
	table := doc.Find(SELECTOR_TORRENTS_LIST).First()
	if table.Length() == 0 {
		if log.GetLevel() >= log.TraceLevel {
			log.Tracef("torrents page html: %s", util.DomHtml(doc.Find("html")))
		}
		return nil, fmt.Errorf("torrents table not found (cookie expired?)")
	}
	ids := []string{}
	table.Find("tbody").First().ChildrenFiltered("tr").Each(func(i int, tr *goquery.Selection) {
		if strings.Contains(util.DomHtml(tr), "sticky") {
			return
		}
		href, ok := tr.Find(SELECTOR_DETAILS_LINK).First().Attr("href")
		if !ok {
			return
		}
		if id := parseTorrentIdFromUrl(href); id != "" {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

func parseTorrentIdFromUrl(torrentUrl string) string {
	urlObj, err := url.Parse(torrentUrl)
	if err != nil {
		return ""
	}
	id := urlObj.Query().Get("id")
	if !util.IsIntString(id) {
		return ""
	}
	return id
}

// return relative (without leading "/") torrent download url
func generateTorrentDownloadUrl(id string, passkey string) string {
	downloadUrl := "download.php?id=" + url.QueryEscape(id)
	if passkey != "" {
		downloadUrl += "&passkey=" + url.QueryEscape(passkey)
	}
	return downloadUrl + "&https=1"
}

func NewSite(name string, siteConfig *config.SiteConfigStruct, config *config.ConfigStruct) (site.Site, error) {
	if siteConfig.Url == "" {
		return nil, fmt.Errorf("site %s url not set", name)
	}
	if siteConfig.Cookie == "" && siteConfig.Passkey == "" {
		return nil, fmt.Errorf("site %s must set cookie or passkey", name)
	}
	return &Site{
		Name:       name,
		SiteConfig: siteConfig,
		Config:     config,
		HttpClient: site.CreateSiteHttpClient(siteConfig),
	}, nil
}

func init() {
	site.Register(&site.RegInfo{
		Name:    "nexusphp",
		Creator: NewSite,
	})
}

var (
	_ site.Site = (*Site)(nil)
)

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	toml "github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sagan/auxseed/util"
)

const (
	DEFAULT_INDEX_FILE        = "size_id.json"
	DEFAULT_DB_FILE           = "auxseed.db"
	DEFAULT_TORRENTS_FOLDER   = "torrents"
	DEFAULT_LEGACY_ENCODING   = "gbk"
	DEFAULT_MAX_MISSING_SIZE  = int64(1024 * 1024 * 1024)
	DEFAULT_MIN_ANCHOR_SIZE   = int64(4 * 1024 * 1024)
	DEFAULT_FETCH_CONCURRENCY = int64(5)
	DEFAULT_TASK_CONCURRENCY  = int64(8)
	DEFAULT_SITE_TIMEOUT      = int64(30)
)

// Sizes shared by many unrelated torrents (padding files, round split volumes),
// never used as a torrent's representative size.
var DEFAULT_DUPLICATE_SIZES = []int64{
	1073739776, 1073709056, 1073565696, 4681957376, 1000000000,
	1073735680, 2200000000, 2000000000, 4000000000, 1073731584,
	1073737728, 1073727488, 13407799296,
}

type ClientConfigStruct struct {
	Type     string `yaml:"type"` // qbittorrent | transmission
	Name     string `yaml:"name"`
	Disabled bool   `yaml:"disabled"`
	Url      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type SiteConfigStruct struct {
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Disabled    bool   `yaml:"disabled"`
	Url         string `yaml:"url"`
	TorrentsUrl string `yaml:"torrentsUrl"`
	Cookie      string `yaml:"cookie"`
	Passkey     string `yaml:"passkey"`
	UserAgent   string `yaml:"userAgent"`
	Timeout     int64  `yaml:"timeout"` // seconds
	// Stop paging after this many list pages. 0 means no limit.
	MaxPages int64 `yaml:"maxPages"`
}

type ConfigStruct struct {
	SrcPath          string                `yaml:"srcPath"`
	TorrentsFolder   string                `yaml:"torrentsFolder"`
	IndexFile        string                `yaml:"indexFile"`
	DbFile           string                `yaml:"dbFile"`
	MaxMissingSize   string                `yaml:"maxMissingSize"`
	MinAnchorSize    string                `yaml:"minAnchorSize"`
	DuplicateSizes   []int64               `yaml:"duplicateSizes"`
	CharMap          map[string]string     `yaml:"charMap"`
	LegacyEncoding   string                `yaml:"legacyEncoding"`
	FetchConcurrency int64                 `yaml:"fetchConcurrency"`
	TaskConcurrency  int64                 `yaml:"taskConcurrency"`
	LogFile          string                `yaml:"logFile"`
	UserAgent        string                `yaml:"userAgent"`
	Client           string                `yaml:"client"`
	Site             string                `yaml:"site"`
	Clients          []*ClientConfigStruct `yaml:"clients"`
	Sites            []*SiteConfigStruct   `yaml:"sites"`

	MaxMissingSizeValue int64
	MinAnchorSizeValue  int64
}

var (
	VerboseLevel               = 0
	ConfigDir                  = ""
	ConfigFile                 = ""
	LockFile                   = ""
	configLoaded               = false
	configData   *ConfigStruct = &ConfigStruct{}
	mu           sync.Mutex
)

// Get returns the config parsed from ConfigFile. A missing config file yields
// all defaults; a malformed one is fatal.
func Get() *ConfigStruct {
	mu.Lock()
	defer mu.Unlock()
	if !configLoaded {
		log.Debugf("Read config file %s", ConfigFile)
		data, err := Load(ConfigFile)
		if err != nil {
			log.Fatalf("Error parsing config file: %v", err)
		}
		configData = data
		configLoaded = true
	}
	return configData
}

// Load reads and normalizes a toml or yaml config file. Relative paths in it are
// resolved against the file's folder.
func Load(filename string) (*ConfigStruct, error) {
	configData := &ConfigStruct{}
	file, err := os.ReadFile(filename)
	if err == nil {
		if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
			err = yaml.Unmarshal(file, configData)
		} else if strings.HasSuffix(filename, ".toml") {
			err = toml.Unmarshal(file, configData)
		} else {
			err = fmt.Errorf("unsupported config file format. Neither toml nor yaml")
		}
		if err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	if err := configData.normalize(filepath.Dir(filename)); err != nil {
		return nil, err
	}
	return configData, nil
}

func (c *ConfigStruct) normalize(dir string) (err error) {
	if c.MaxMissingSizeValue, err = parseSize(c.MaxMissingSize, DEFAULT_MAX_MISSING_SIZE); err != nil {
		return fmt.Errorf("invalid maxMissingSize: %w", err)
	}
	if c.MinAnchorSizeValue, err = parseSize(c.MinAnchorSize, DEFAULT_MIN_ANCHOR_SIZE); err != nil {
		return fmt.Errorf("invalid minAnchorSize: %w", err)
	}
	if c.DuplicateSizes == nil {
		c.DuplicateSizes = DEFAULT_DUPLICATE_SIZES
	}
	if c.LegacyEncoding == "" {
		c.LegacyEncoding = DEFAULT_LEGACY_ENCODING
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = DEFAULT_FETCH_CONCURRENCY
	}
	if c.TaskConcurrency <= 0 {
		c.TaskConcurrency = DEFAULT_TASK_CONCURRENCY
	}
	if c.IndexFile == "" {
		c.IndexFile = DEFAULT_INDEX_FILE
	}
	if c.DbFile == "" {
		c.DbFile = DEFAULT_DB_FILE
	}
	if c.TorrentsFolder == "" {
		c.TorrentsFolder = DEFAULT_TORRENTS_FOLDER
	}
	c.IndexFile = resolvePath(dir, c.IndexFile)
	c.DbFile = resolvePath(dir, c.DbFile)
	c.TorrentsFolder = resolvePath(dir, c.TorrentsFolder)
	if c.LogFile != "" {
		c.LogFile = resolvePath(dir, c.LogFile)
	}

	c.Clients = util.Filter(c.Clients, func(c *ClientConfigStruct) bool {
		return !c.Disabled
	})
	for _, client := range c.Clients {
		if client.Name == "" {
			client.Name = client.Type
		}
		if client.Url != "" {
			urlObj, err := url.Parse(client.Url)
			if err != nil {
				return fmt.Errorf("failed to parse client %s url config: %w", client.Name, err)
			}
			client.Url = urlObj.String()
			if !strings.HasSuffix(client.Url, "/") {
				client.Url += "/"
			}
		}
	}
	c.Sites = util.Filter(c.Sites, func(s *SiteConfigStruct) bool {
		return !s.Disabled
	})
	for _, site := range c.Sites {
		if site.Name == "" {
			site.Name = site.Type
		}
		if site.UserAgent == "" {
			site.UserAgent = c.UserAgent
		}
		if site.Timeout <= 0 {
			site.Timeout = DEFAULT_SITE_TIMEOUT
		}
		if site.Url != "" {
			urlObj, err := url.Parse(site.Url)
			if err != nil {
				return fmt.Errorf("failed to parse site %s url config: %w", site.Name, err)
			}
			site.Url = urlObj.String()
			if !strings.HasSuffix(site.Url, "/") {
				site.Url += "/"
			}
		}
	}
	if c.Client == "" && len(c.Clients) > 0 {
		c.Client = c.Clients[0].Name
	}
	if c.Site == "" && len(c.Sites) > 0 {
		c.Site = c.Sites[0].Name
	}
	return nil
}

func (c *ConfigStruct) GetClientConfig(name string) *ClientConfigStruct {
	for _, client := range c.Clients {
		if client.Name == name {
			return client
		}
	}
	return nil
}

func (c *ConfigStruct) GetSiteConfig(name string) *SiteConfigStruct {
	for _, site := range c.Sites {
		if site.Name == name {
			return site
		}
	}
	return nil
}

func GetClientConfig(name string) *ClientConfigStruct {
	return Get().GetClientConfig(name)
}

func GetSiteConfig(name string) *SiteConfigStruct {
	return Get().GetSiteConfig(name)
}

// parse a site internal url (eg. torrents.php), return absolute url
func (siteConfig *SiteConfigStruct) ParseSiteUrl(siteUrl string, appendQueryStringDelimiter bool) string {
	pageUrl := ""
	if siteUrl != "" {
		if util.IsUrl(siteUrl) {
			pageUrl = siteUrl
		} else {
			pageUrl = siteConfig.Url + strings.TrimPrefix(siteUrl, "/")
		}
	}
	if appendQueryStringDelimiter {
		pageUrl = util.AppendUrlQueryStringDelimiter(pageUrl)
	}
	return pageUrl
}

// "" means defaultValue. Accepts plain byte counts and human sizes ("1GiB", "500MB").
func parseSize(str string, defaultValue int64) (int64, error) {
	if str == "" {
		return defaultValue, nil
	}
	v, err := humanize.ParseBytes(str)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func resolvePath(dir string, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(dir, p)
}

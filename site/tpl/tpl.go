package tpl

// 站点模板。只需在配置文件里填写 cookie / passkey 即可使用。

import (
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/site"
	"github.com/sagan/auxseed/util"
)

type template struct {
	Type        string
	Aliases     []string
	Url         string
	TorrentsUrl string
	Comment     string
}

var (
	SITES = map[string]*template{
		"u2": {
			Type:    "nexusphp",
			Aliases: []string{"dmhy"},
			Url:     "https://u2.dmhy.org/",
			Comment: "U2 (动漫花园)",
		},
	}
	SITENAMES = []string{}
)

func init() {
	SITENAMES = util.MapKeys(SITES)
	for _, name := range SITENAMES {
		tpl := SITES[name]
		for _, alias := range tpl.Aliases {
			SITES[alias] = tpl
		}
		site.Register(&site.RegInfo{
			Name:    name,
			Aliases: tpl.Aliases,
			Creator: create,
		})
	}
}

// Fields set in siteConfig take precedence over the template.
func create(name string, siteConfig *config.SiteConfigStruct, globalConfig *config.ConfigStruct) (
	site.Site, error) {
	tpl := SITES[siteConfig.Type]
	sc := *siteConfig // copy
	sc.Type = tpl.Type
	if sc.Url == "" {
		sc.Url = tpl.Url
	}
	if sc.TorrentsUrl == "" {
		sc.TorrentsUrl = tpl.TorrentsUrl
	}
	return site.CreateSiteInternal(name, &sc, globalConfig)
}

package tpl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/site"
	_ "github.com/sagan/auxseed/site/nexusphp"
	"github.com/sagan/auxseed/site/tpl"
)

func TestTemplates(t *testing.T) {
	assert.Contains(t, tpl.SITENAMES, "u2")

	for _, siteType := range []string{"u2", "dmhy"} {
		siteConfig := &config.SiteConfigStruct{Type: siteType, Name: "mine", Passkey: "abc"}
		s, err := site.CreateSiteInternal("mine", siteConfig, nil)
		require.NoError(t, err, siteType)
		assert.Equal(t, "nexusphp", s.GetSiteConfig().Type)
		assert.Equal(t, "https://u2.dmhy.org/", s.GetSiteConfig().Url)
		assert.Equal(t, siteType, siteConfig.Type, "template does not modify the config")
	}

	s, err := site.CreateSiteInternal("mine", &config.SiteConfigStruct{
		Type:    "u2",
		Url:     "https://mirror.example.com/",
		Passkey: "abc",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.com/", s.GetSiteConfig().Url)
}

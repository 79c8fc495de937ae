package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Outer html of the first node of el, for logging.
func DomHtml(el *goquery.Selection) string {
	if el.Length() == 0 {
		return ""
	}
	sb := &strings.Builder{}
	if err := html.Render(sb, el.Get(0)); err != nil {
		return ""
	}
	return sb.String()
}

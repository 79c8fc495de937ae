package util

import (
	"regexp"
	"strconv"
	"strings"
)

var intRegexp = regexp.MustCompile(`^\d+$`)

func IsUrl(str string) bool {
	return strings.HasPrefix(str, "http://") || strings.HasPrefix(str, "https://")
}

func IsIntString(str string) bool {
	return intRegexp.MatchString(str)
}

// Parse a (possibly comma-grouped) integer, 0 if invalid.
func ParseInt(str string) int64 {
	str = strings.TrimSpace(strings.ReplaceAll(str, ",", ""))
	v, _ := strconv.ParseInt(str, 10, 0)
	return v
}

func AppendUrlQueryStringDelimiter(url string) string {
	if strings.Contains(url, "?") {
		if !strings.HasSuffix(url, "?") && !strings.HasSuffix(url, "&") {
			url += "&"
		}
	} else {
		url += "?"
	}
	return url
}

package util

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var (
	// Default headers of a desktop Chrome navigation request.
	CHROME_HTTP_REQUEST_HEADERS = map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
		"Upgrade-Insecure-Requests": "1",
		"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	}
)

// FetchUrl issues a GET request with browser headers. Non-200 responses are
// errors; on success the caller must close the response body.
func FetchUrl(ctx context.Context, url string, client *http.Client,
	cookie string, ua string, otherHeaders map[string]string) (*http.Response, error) {
	log.Tracef("FetchUrl url=%s hasCookie=%t", url, cookie != "")
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	SetHttpRequestBrowserHeaders(req, ua)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	for header, value := range otherHeaders {
		req.Header.Set(header, value)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	log.Tracef("FetchUrl response status=%d", res.StatusCode)
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("failed to fetch url: status=%d", res.StatusCode)
	}
	return res, nil
}

func SetHttpRequestBrowserHeaders(req *http.Request, ua string) {
	for key, value := range CHROME_HTTP_REQUEST_HEADERS {
		req.Header.Set(key, value)
	}
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
}

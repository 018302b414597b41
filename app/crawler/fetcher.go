package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const contentFetchTimeout = 60 * time.Second

// Fetcher retrieves article bodies through a reader proxy that converts
// pages to markdown. The proxied URL is simply appended to the proxy base.
type Fetcher struct {
	httpClient *http.Client
	proxyBase  string
	userAgent  string
}

func NewFetcher(httpClient *http.Client, proxyBase string, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		proxyBase:  strings.TrimRight(proxyBase, "/"),
		userAgent:  userAgent,
	}
}

// Fetch returns the proxied body verbatim. No markdown post-processing
// happens here; downstream stages consume the text as-is.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, contentFetchTimeout)
	defer cancel()

	proxied := f.proxyBase + "/" + url

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", proxied, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return string(data), nil
}

package tle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// maxResponseBytes caps a single source download. CelesTrak's full active
// catalog is ~2 MB, so 50 MB is far beyond any legitimate response.
const maxResponseBytes = 50 * 1024 * 1024

// Fetcher retrieves raw TLE data from a primary source plus optional extra
// sources. Extra sources are best-effort: a failure is logged and skipped,
// only a primary failure aborts the fetch.
type Fetcher struct {
	sourceURL  string
	extraURLs  []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the given source URLs. An empty primary
// URL selects the default CelesTrak active-satellite catalog.
func NewFetcher(sourceURL string, logger *slog.Logger, extraURLs ...string) *Fetcher {
	if sourceURL == "" {
		sourceURL = defaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		extraURLs: extraURLs,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SourceURL returns the configured primary source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch downloads the primary source and all extra sources, returning the
// concatenated raw TLE text.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	data, err := f.fetchOne(ctx, f.sourceURL)
	if err != nil {
		return nil, err
	}

	for _, url := range f.extraURLs {
		extra, err := f.fetchOne(ctx, url)
		if err != nil {
			f.logger.Warn("extra TLE source failed", "url", url, "error", err)
			continue
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		data = append(data, extra...)
	}

	return data, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", url, maxResponseBytes)
	}

	return body, nil
}

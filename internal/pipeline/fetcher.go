package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hivenet/teachhanna/internal/cache"
	"github.com/hivenet/teachhanna/internal/model"
	"github.com/hivenet/teachhanna/internal/util"
)

// ErrRobotsDisallowed marks a URL the site's robots.txt forbids scraping.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-success HTTP status from the source site.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher fetches page markup from source URLs. Fetch failures are per-item
// and never retried: source content is assumed immutable within a run.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	store      cache.Cache         // nil when caching disabled
	robots     *util.RobotsChecker // nil when robots checking disabled
}

// NewFetcher creates a fetcher from the pipeline configuration.
func NewFetcher(cfg *model.Config) (*Fetcher, error) {
	tlsCfg, err := util.NewTLSConfig(cfg.HTTP.InsecureTLS, cfg.HTTP.CACertPath)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy:           util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
				TLSClientConfig: tlsCfg,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
	}

	if cfg.Cache.Enabled {
		memory := cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
		if cfg.Cache.Dir != "" {
			f.store = cache.NewLayeredCache(memory, cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.TTL))
		} else {
			f.store = memory
		}
	}

	if cfg.Robots.Enabled {
		f.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	return f, nil
}

// FetchResult contains the fetched markup and where it finally came from.
type FetchResult struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// Fetch retrieves markup from the given URL with a bounded body size and a
// capped redirect chain.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil && !f.robots.IsAllowed(ctx, rawURL) {
		return nil, ErrRobotsDisallowed
	}

	if f.store != nil {
		if data, found := f.store.Get(cache.Key(rawURL)); found {
			return &FetchResult{HTML: string(data), FinalURL: rawURL, StatusCode: http.StatusOK}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.store != nil {
		_ = f.store.Set(cache.Key(rawURL), body, 0)
	}

	return &FetchResult{
		HTML:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

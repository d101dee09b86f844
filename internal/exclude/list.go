// Package exclude implements the excluded-domains list consulted before any
// web fetch. The list is loaded once per run and is immutable afterwards, so
// it can be shared across workers without locking.
package exclude

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
)

// ConfigError indicates the exclusion artifact was present but unusable.
// It is fatal: the run must not start with a half-loaded list.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("exclusion list %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Entry mirrors one object of the exclusion artifact.
type Entry struct {
	Domain string `json:"domain"`
}

// List is an immutable set of excluded domains.
type List struct {
	domains map[string]struct{}
	skipped int
}

// Load reads the exclusion artifact at path: a JSON array of objects with a
// "domain" field. An empty path or a missing file yields an empty list
// (nothing excluded). Malformed entries are skipped and counted; an
// unreadable or unparseable artifact is a ConfigError.
func Load(path string) (*List, error) {
	l := &List{domains: make(map[string]struct{})}
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, &ConfigError{Path: path, Err: err}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	for _, e := range entries {
		domain := strings.ToLower(strings.TrimSpace(e.Domain))
		// Entries carry bare domains: no scheme, no path.
		if domain == "" || strings.Contains(domain, "/") || strings.Contains(domain, ":") {
			l.skipped++
			continue
		}
		l.domains[domain] = struct{}{}
	}

	return l, nil
}

// IsExcluded reports whether the URL's host matches an excluded domain,
// either exactly or as a subdomain. Partial labels never match:
// "notexample.com" is not excluded by entry "example.com". A URL without a
// parseable host is not excluded; normalization rejects it later.
func (l *List) IsExcluded(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	for domain := range l.domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// Len returns the number of loaded domains.
func (l *List) Len() int { return len(l.domains) }

// Skipped returns the number of malformed entries dropped during load.
func (l *List) Skipped() int { return l.skipped }

// Domains returns the loaded domains in sorted order.
func (l *List) Domains() []string {
	out := make([]string, 0, len(l.domains))
	for domain := range l.domains {
		out = append(out, domain)
	}
	sort.Strings(out)
	return out
}

// Package pypi provides a PyPI-backed implementation of
// reswirl.MetadataService using the registry's public JSON API.
package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/lmmx/reswirl"
)

// DefaultBaseURL is the public PyPI endpoint.
const DefaultBaseURL = "https://pypi.org"

// DefaultTimeout is the default timeout for metadata requests.
const DefaultTimeout = 10 * time.Second

// Ensure MetadataService implements reswirl.MetadataService at compile time.
var _ reswirl.MetadataService = (*MetadataService)(nil)

// MetadataService looks up package metadata from PyPI's JSON API.
type MetadataService struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// Option configures a MetadataService.
type Option func(*MetadataService)

// WithBaseURL overrides the registry endpoint. Useful for tests.
func WithBaseURL(u string) Option {
	return func(s *MetadataService) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the timeout for metadata requests.
// Defaults to DefaultTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(s *MetadataService) {
		s.timeout = d
	}
}

// NewMetadataService creates a new PyPI-backed MetadataService.
func NewMetadataService(opts ...Option) *MetadataService {
	s := &MetadataService{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = &http.Client{
		Timeout: s.timeout,
	}

	return s
}

// projectResponse mirrors the subset of PyPI's JSON API consumed here.
type projectResponse struct {
	Info struct {
		Name        string            `json:"name"`
		DocsURL     string            `json:"docs_url"`
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

// ProjectMetadata retrieves metadata for a package from PyPI.
func (s *MetadataService) ProjectMetadata(ctx context.Context, pkg string) (*reswirl.ProjectMetadata, error) {
	if pkg == "" {
		return nil, reswirl.Errorf(reswirl.EINVALID, "package name required")
	}

	url := fmt.Sprintf("%s/pypi/%s/json", s.baseURL, pkg)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, reswirl.Errorf(reswirl.EINVALID, "building metadata request for %q: %v", pkg, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, reswirl.Errorf(reswirl.EFETCH, "fetching metadata for %q from %s: %v", pkg, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, reswirl.Errorf(reswirl.ENOTFOUND, "package %q not found on %s", pkg, s.baseURL)
	case resp.StatusCode != http.StatusOK:
		return nil, reswirl.Errorf(reswirl.EFETCH, "metadata request for %q returned HTTP %d", pkg, resp.StatusCode)
	}

	var body projectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, reswirl.Errorf(reswirl.EFORMAT, "decoding metadata for %q: %v", pkg, err)
	}

	return &reswirl.ProjectMetadata{
		Name:     body.Info.Name,
		Homepage: strings.TrimSpace(body.Info.HomePage),
		DocURLs:  rankDocURLs(body.Info.ProjectURLs, body.Info.DocsURL),
	}, nil
}

// Documentation-style project_urls keys, best rank first. Keys are
// compared case-insensitively.
var docKeyRanks = []func(string) bool{
	func(k string) bool { return k == "documentation" },
	func(k string) bool { return k == "docs" },
	hasDocWord,
}

// hasDocWord reports whether any word in the key is a documentation term.
// Substring matching is too loose here: "Docker" is not a docs link.
func hasDocWord(k string) bool {
	words := strings.FieldsFunc(k, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		switch w {
		case "doc", "docs", "documentation":
			return true
		}
	}
	return false
}

// rankDocURLs selects the documentation URL candidates at the best
// available rank. Candidates sharing that rank are all returned: the
// registry offers no way to choose between them, and the caller must not
// guess. The legacy docs_url field ranks below all project_urls matches.
func rankDocURLs(projectURLs map[string]string, legacyDocsURL string) []string {
	for _, match := range docKeyRanks {
		var urls []string
		seen := make(map[string]struct{})
		for key, u := range projectURLs {
			u = strings.TrimSpace(u)
			if u == "" || !match(strings.ToLower(key)) {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
		if len(urls) > 0 {
			// Deterministic order for error reporting.
			slices.Sort(urls)
			return urls
		}
	}

	if u := strings.TrimSpace(legacyDocsURL); u != "" {
		return []string{u}
	}
	return nil
}

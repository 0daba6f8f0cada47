// Package jobdesc turns a job posting URL into plain job-description text.
package jobdesc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/shared/apperr"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeTailor/1.0)"
	DefaultMaxBytes  = 2 << 20

	opFetch = "jobdesc.fetch"
)

// noiseSelector lists elements that never hold the posting itself.
const noiseSelector = "nav, footer, header, script, style, noscript, svg, form, iframe, .cookie-banner, .sidebar, .ads, .advertisement"

// blockSelector lists elements whose text ends a line.
const blockSelector = "p, div, li, h1, h2, h3, h4, h5, h6, tr, section, article, ul, ol, dd, dt"

// contentSelectors are tried in order; the first match wins, then body.
var contentSelectors = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
	"#content",
	".content",
}

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	// HTTPClient replaces the default client, and with it the address guard.
	HTTPClient *http.Client
	// AllowPrivateNetworks lets the default client reach loopback and
	// private addresses. Off in every shipped binary.
	AllowPrivateNetworks bool
}

// Fetcher downloads job postings.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewFetcher constructs a Fetcher, filling unset options with defaults.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	client := opts.HTTPClient
	if client == nil && opts.AllowPrivateNetworks {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if client == nil {
		client = newGuardedClient(opts.Timeout)
	}
	return &Fetcher{client: client, userAgent: opts.UserAgent, maxBytes: opts.MaxBytes}
}

// Fetch downloads rawURL and returns its normalized main text. Every failure
// other than cancellation is an InvalidInput: the caller supplied a URL that
// does not yield a job description.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", apperr.New(apperr.InvalidInput, opFetch, "job URL must be an absolute http(s) URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, opFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", apperr.Wrap(apperr.InvalidInput, opFetch, fmt.Errorf("get %s: %w", parsed.Host, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.InvalidInput, opFetch, fmt.Sprintf("job URL answered HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", apperr.Wrap(apperr.InvalidInput, opFetch, fmt.Errorf("read body: %w", err))
	}

	var text string
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		text = extract.Normalize(string(body))
	} else {
		text, err = ExtractText(string(body))
		if err != nil {
			return "", apperr.Wrap(apperr.InvalidInput, opFetch, err)
		}
	}
	if text == "" {
		return "", apperr.New(apperr.InvalidInput, opFetch, "job URL has no readable text")
	}
	return text, nil
}

// ExtractText parses HTML and returns the posting's main text with one line per
// block element.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noiseSelector).Remove()
	doc.Find("br").AfterHtml("\n")
	doc.Find(blockSelector).AppendHtml("\n")

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}
	return extract.Normalize(main.Text()), nil
}

package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/document"
	"golang.org/x/net/html/charset"
)

const (
	UserAgent = "eventscrape/1.0 (github.com/pfrederiksen/eventscrape)"
	Timeout   = 30 * time.Second
	// MaxBodySize caps how much of a response is read
	MaxBodySize = 10 << 20
)

// ErrUnexpectedStatus is returned for any response other than 200 OK
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Scraper fetches event pages
type Scraper struct {
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// Option configures a Scraper
type Option func(*Scraper)

func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithClient replaces the HTTP client; its timeout is kept as is
func WithClient(c *http.Client) Option {
	return func(s *Scraper) {
		if c != nil {
			s.client = c
		}
	}
}

// WithClock sets the clock used for FetchedAt
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent: UserAgent,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fetch downloads url and parses it. The document's source URL is the final URL
// after redirects.
func (s *Scraper) Fetch(ctx context.Context, url string) (*document.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, MaxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return s.parse(body, finalURL, resp.StatusCode)
}

// ReadFile parses a saved page as if it had been fetched from sourceURL
func (s *Scraper) ReadFile(path, sourceURL string) (*document.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() // nolint:errcheck

	body, err := charset.NewReader(f, "text/html")
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return s.parse(body, sourceURL, http.StatusOK)
}

func (s *Scraper) parse(r io.Reader, sourceURL string, status int) (*document.RawDocument, error) {
	doc, err := document.Parse(r, sourceURL, s.now(), status)
	if err != nil && !errors.Is(err, document.ErrEmptyDocument) {
		return nil, err
	}
	return doc, nil
}

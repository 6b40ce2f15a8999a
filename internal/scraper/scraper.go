package scraper

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/deusflow/econbrief/internal/retry"
)

// ErrStatus marks responses with a non-2xx status code.
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError carries the status code of a rejected response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d for %s", e.Code, e.URL)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// ClientConfig is everything a Fetcher needs to talk to news sites.
type ClientConfig struct {
	Timeout            time.Duration
	UserAgent          string
	AcceptLanguage     string
	InsecureSkipVerify bool
	// PolitenessDelay is the minimum spacing between requests to one host.
	PolitenessDelay time.Duration
	Retry           retry.RetryConfig
	// MaxBodyBytes caps how much of a page is read. 0 means 8 MiB.
	MaxBodyBytes int64
}

// Fetcher performs paced GET requests with a fixed identity.
type Fetcher struct {
	client *http.Client
	cfg    ClientConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher builds a Fetcher with its own http.Client.
func NewFetcher(cfg ClientConfig) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return NewFetcherWithClient(&http.Client{Timeout: cfg.Timeout, Transport: transport}, cfg)
}

// NewFetcherWithClient uses the given client as-is.
func NewFetcherWithClient(client *http.Client, cfg ClientConfig) *Fetcher {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 8 << 20
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = Retryable
	}
	return &Fetcher{
		client:   client,
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Retryable reports whether a fetch error is transient: network failures,
// 429 and 5xx responses.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// Get fetches rawURL and returns the raw body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := f.get(ctx, rawURL)
	return body, err
}

// Document fetches rawURL and parses it as HTML, decoding legacy Korean
// charsets (EUC-KR) to UTF-8 when the response declares them.
func (f *Fetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, contentType, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		r = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML from %s: %w", rawURL, err)
	}
	return doc, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var (
		body        []byte
		contentType string
	)
	err := retry.WithRetry(ctx, f.cfg.Retry, func() error {
		b, ct, err := f.getOnce(ctx, rawURL)
		if err != nil {
			return err
		}
		body, contentType = b, ct
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

func (f *Fetcher) getOnce(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := f.wait(ctx, rawURL); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("error building request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	if f.cfg.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("error reading body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// wait blocks until the host of rawURL may be contacted again.
func (f *Fetcher) wait(ctx context.Context, rawURL string) error {
	if f.cfg.PolitenessDelay <= 0 {
		return nil
	}
	host := hostOf(rawURL)

	f.mu.Lock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(f.cfg.PolitenessDelay), 1)
		f.limiters[host] = lim
	}
	f.mu.Unlock()

	return lim.Wait(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}

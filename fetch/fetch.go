// Package fetch retrieves register documents over HTTP: it discovers PDF
// links on a council's listing page and downloads them to local files for
// processing. Requests are rate limited to stay polite toward small
// council web servers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"
)

// Config controls HTTP behavior.
type Config struct {
	// Timeout bounds each individual request.
	Timeout time.Duration

	// RequestsPerMinute caps the request rate. Zero means unlimited.
	RequestsPerMinute int

	UserAgent string
}

// DefaultConfig returns conservative client settings.
func DefaultConfig() Config {
	return Config{
		Timeout:           60 * time.Second,
		RequestsPerMinute: 12,
		UserAgent:         "scriba/1.0",
	}
}

// Client fetches listing pages and documents.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// NewClient creates a rate-limited HTTP client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: unexpected status %s", rawURL, resp.Status)
	}
	return resp, nil
}

// DocumentLinks fetches the listing page and returns the absolute URLs of
// the PDF documents it links to, in page order and deduplicated.
func (c *Client) DocumentLinks(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url %s: %w", pageURL, err)
	}

	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing page %s: %w", pageURL, err)
	}

	links := documentLinks(doc, base)
	c.logger.Info("listing page scanned", "url", pageURL, "documents", len(links))
	return links, nil
}

// Download fetches the document at rawURL into dir and returns the local
// path. The file name is taken from the URL path.
func (c *Client) Download(ctx context.Context, rawURL, dir string) (string, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	dest := uniquePath(dir, fileName(rawURL))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}

	c.logger.Info("document downloaded", "url", rawURL, "path", dest, "bytes", n)
	return dest, nil
}

// documentLinks walks the parsed page collecting anchor hrefs that point
// at PDFs, resolved against base.
func documentLinks(root *html.Node, base *url.URL) []string {
	var links []string
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attrValue(n, "href"); ok && isPDFLink(href) {
				if abs, err := base.Parse(href); err == nil {
					s := abs.String()
					if !seen[s] {
						seen[s] = true
						links = append(links, s)
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return links
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isPDFLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// uniquePath returns a destination in dir for name that does not collide
// with an existing file. Distinct listing links can share a base name, so
// colliding names get a numeric suffix before the extension.
func uniquePath(dir, name string) string {
	dest := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			return dest
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}

func fileName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return "document.pdf"
}

package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	trafilatura "github.com/markusmobius/go-trafilatura"
)

// extract fetches a page and pulls out the main article text and title.
// Trafilatura runs first; readability and raw goquery selectors are
// fallbacks for pages it cannot handle. A non-nil error means the fetch
// itself failed; an unusable page comes back as empty text.
func (c *Crawler) extract(ctx context.Context, url string) (text, title string, err error) {
	if strings.TrimSpace(url) == "" {
		return "", "", fmt.Errorf("empty article url")
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	req.Header.Set("User-Agent", c.userAgent())
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	// read once, reuse across all extractors
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if len(bodyBytes) == 0 {
		return "", "", fmt.Errorf("fetch %s: empty body", url)
	}

	base, _ := neturl.Parse(url)
	res, err := trafilatura.Extract(bytes.NewReader(bodyBytes), trafilatura.Options{
		OriginalURL:    base,
		EnableFallback: true,
		Focus:          trafilatura.Balanced,
	})
	if err == nil && res != nil {
		if txt := strings.TrimSpace(res.ContentText); len(txt) > 100 {
			return txt, strings.TrimSpace(res.Metadata.Title), nil
		}
	}

	art, err := readability.FromReader(bytes.NewReader(bodyBytes), base)
	if err == nil && len(strings.TrimSpace(art.TextContent)) > 100 {
		return strings.TrimSpace(art.TextContent), strings.TrimSpace(art.Title), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(bodyBytes))
	if err != nil {
		return "", "", err
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	selectors := []string{"article", "main", "#content", ".post", ".article"}
	for _, sel := range selectors {
		if s := strings.TrimSpace(doc.Find(sel).Text()); len(s) > 100 {
			return s, title, nil
		}
	}
	if body := strings.TrimSpace(doc.Text()); len(body) > 200 {
		return body, title, nil
	}
	return "", title, nil
}

// discoverListing scrapes anchors off an HTML listing page, keeping links
// that stay on the same host and look like article pages.
func (c *Crawler) discoverListing(ctx context.Context, src string) ([]task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent())
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	base, err := neturl.Parse(src)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var out []task
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		u, err := base.Parse(href)
		if err != nil || u.Host != base.Host {
			return
		}
		u.Fragment = ""
		link := u.String()
		if link == src {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		out = append(out, task{
			SourceURL: src,
			URL:       link,
			Title:     strings.TrimSpace(s.Text()),
			Host:      u.Host,
			// Listing pages carry no dates; use fetch time.
			PublishedAt: time.Now().UTC(),
		})
	})
	return out, nil
}

func (c *Crawler) userAgent() string {
	if strings.TrimSpace(c.Cfg.UserAgent) != "" {
		return c.Cfg.UserAgent
	}
	return "blogpilot/0.1"
}

// Package cleaner normalizes crawled article bodies into plain text
// suitable for storage and prompt building.
package cleaner

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	tagFallbackRe = regexp.MustCompile(`<[^>]+>`)
	scriptStyle   = map[string]bool{"script": true, "style": true, "noscript": true, "iframe": true}

	// Common boilerplate lines that survive extraction.
	boilerplateRe = regexp.MustCompile(`(?i)^(무단\s*전재|저작권자|copyright|ⓒ|©|sponsored|advertisement|구독하기|공유하기|관련\s*기사).*$`)

	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Angle brackets surviving in text (decoded entities, "3 < 5") are
	// re-escaped so cleaned output never parses as markup again.
	angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")
)

// Clean strips markup and boilerplate from raw article text and collapses
// whitespace. Angle brackets left in the text after parsing are kept
// entity-escaped. Clean is idempotent: running it on its own output returns
// the same string.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<>") {
		s = stripHTML(s)
	}
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if boilerplateRe.MatchString(line) {
			continue
		}
		line = emailRe.ReplaceAllString(line, "")
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Summary returns the first max characters of cleaned text, cut at a word
// boundary with a trailing ellipsis. max <= 0 means the default of 200.
func Summary(text string, max int) string {
	if max <= 0 {
		max = 200
	}
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= max {
		return flat
	}
	cut := string(runes[:max])
	// Back off to the last full word unless that would drop most of the
	// summary.
	if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// WordCount counts whitespace-separated tokens in cleaned text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// stripHTML walks the node tree and concatenates text nodes, keeping block
// boundaries as newlines so paragraph structure survives.
func stripHTML(s string) string {
	n, err := html.Parse(strings.NewReader(s))
	if err != nil || n == nil {
		return angleEscaper.Replace(tagFallbackRe.ReplaceAllString(s, " "))
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && scriptStyle[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(angleEscaper.Replace(t))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) && b.Len() > 0 {
			b.WriteString("\n")
		}
	}
	walk(n)
	return b.String()
}

func isBlock(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "section", "article", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
		return true
	}
	return false
}

// Package markdown converts between HTML and Markdown. Crawled pages are
// reduced to Markdown for storage and prompting; generated posts are
// rendered back to HTML for the blog platform API.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// FromHTML converts an HTML string to markdown.
func FromHTML(htmlStr string) string {
	if strings.TrimSpace(htmlStr) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}
	var body *html.Node
	var findBody func(*html.Node)
	findBody = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			findBody(child)
		}
	}
	findBody(doc)
	root := doc
	if body != nil {
		root = body
	}
	out := convertNode(root)
	// Collapse runs of blank lines left by nested block elements.
	out = regexp.MustCompile(`\n{3,}`).ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out) + "\n"
}

func convertNode(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		return convertElement(n)
	case html.DocumentNode:
		return convertChildren(n)
	default:
		return ""
	}
}

func convertChildren(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(convertNode(c))
	}
	return b.String()
}

func convertElement(n *html.Node) string {
	switch strings.ToLower(n.Data) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		content := strings.TrimSpace(convertChildren(n))
		if content == "" {
			return ""
		}
		return "\n" + strings.Repeat("#", level) + " " + content + "\n\n"
	case "p":
		content := strings.TrimSpace(convertChildren(n))
		if content == "" {
			return ""
		}
		return "\n\n" + content + "\n\n"
	case "strong", "b":
		if c := convertChildren(n); c != "" {
			return "**" + c + "**"
		}
		return ""
	case "em", "i":
		if c := convertChildren(n); c != "" {
			return "*" + c + "*"
		}
		return ""
	case "a":
		content := convertChildren(n)
		href := attr(n, "href")
		if content == "" {
			return ""
		}
		if href == "" {
			return content
		}
		return "[" + content + "](" + href + ")"
	case "img":
		alt := attr(n, "alt")
		src := attr(n, "src")
		if src == "" {
			return ""
		}
		return "![" + alt + "](" + src + ")"
	case "br":
		return "\n"
	case "hr":
		return "\n---\n"
	case "ul", "ol":
		return "\n\n" + convertList(n) + "\n"
	case "code":
		if c := convertChildren(n); c != "" {
			return "`" + c + "`"
		}
		return ""
	case "pre":
		if c := convertChildren(n); c != "" {
			return "\n\n```\n" + strings.Trim(c, "`\n") + "\n```\n\n"
		}
		return ""
	case "blockquote":
		content := strings.TrimSpace(convertChildren(n))
		if content == "" {
			return ""
		}
		var quoted []string
		for _, line := range strings.Split(content, "\n") {
			if strings.TrimSpace(line) == "" {
				quoted = append(quoted, ">")
			} else {
				quoted = append(quoted, "> "+strings.TrimSpace(line))
			}
		}
		return "\n\n" + strings.Join(quoted, "\n") + "\n\n"
	case "table":
		return convertTable(n)
	case "script", "style", "noscript":
		return ""
	default:
		return convertChildren(n)
	}
}

func convertList(list *html.Node) string {
	ordered := strings.EqualFold(list.Data, "ol")
	var b strings.Builder
	i := 0
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !strings.EqualFold(c.Data, "li") {
			continue
		}
		content := strings.TrimSpace(convertChildren(c))
		if content == "" {
			continue
		}
		i++
		if ordered {
			fmt.Fprintf(&b, "%d. %s\n", i, content)
		} else {
			fmt.Fprintf(&b, "- %s\n", content)
		}
	}
	return b.String()
}

func convertTable(table *html.Node) string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "tr") {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (strings.EqualFold(c.Data, "td") || strings.EqualFold(c.Data, "th")) {
					cells = append(cells, strings.TrimSpace(convertChildren(c)))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString("| " + strings.Join(rows[0], " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
	for _, row := range rows[1:] {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")
	return b.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

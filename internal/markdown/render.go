package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	boldRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe  = regexp.MustCompile(`\*([^*]+)\*`)
	linkRe    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	codeRe    = regexp.MustCompile("`([^`]+)`")
	listRe    = regexp.MustCompile(`^[-*]\s+(.*)$`)
	numListRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	tableRe   = regexp.MustCompile(`^\|(.+)\|$`)
	sepRowRe  = regexp.MustCompile(`^\|(\s*:?-+:?\s*\|)+$`)
)

// ToHTML renders the Markdown subset produced by the generator into HTML.
// It covers headings, paragraphs, emphasis, links, lists and tables, which
// is all the blog platform editor accepts.
func ToHTML(md string) string {
	lines := strings.Split(md, "\n")
	var b strings.Builder
	var listItems []string
	var ordered bool
	var tableRows [][]string

	flushList := func() {
		if len(listItems) == 0 {
			return
		}
		tag := "ul"
		if ordered {
			tag = "ol"
		}
		b.WriteString("<" + tag + ">\n")
		for _, it := range listItems {
			b.WriteString("<li>" + it + "</li>\n")
		}
		b.WriteString("</" + tag + ">\n")
		listItems = nil
	}
	flushTable := func() {
		if len(tableRows) == 0 {
			return
		}
		b.WriteString("<table>\n<tr>")
		for _, cell := range tableRows[0] {
			b.WriteString("<th>" + cell + "</th>")
		}
		b.WriteString("</tr>\n")
		for _, row := range tableRows[1:] {
			b.WriteString("<tr>")
			for _, cell := range row {
				b.WriteString("<td>" + cell + "</td>")
			}
			b.WriteString("</tr>\n")
		}
		b.WriteString("</table>\n")
		tableRows = nil
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		if m := tableRe.FindStringSubmatch(trimmed); m != nil {
			flushList()
			if sepRowRe.MatchString(trimmed) {
				continue
			}
			var cells []string
			for _, c := range strings.Split(m[1], "|") {
				cells = append(cells, inline(strings.TrimSpace(c)))
			}
			tableRows = append(tableRows, cells)
			continue
		}
		flushTable()

		switch {
		case trimmed == "":
			flushList()
		case headingRe.MatchString(trimmed):
			flushList()
			m := headingRe.FindStringSubmatch(trimmed)
			level := len(m[1])
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", level, inline(m[2]), level)
		case trimmed == "---":
			flushList()
			b.WriteString("<hr>\n")
		case listRe.MatchString(trimmed):
			if len(listItems) > 0 && ordered {
				flushList()
			}
			ordered = false
			listItems = append(listItems, inline(listRe.FindStringSubmatch(trimmed)[1]))
		case numListRe.MatchString(trimmed):
			if len(listItems) > 0 && !ordered {
				flushList()
			}
			ordered = true
			listItems = append(listItems, inline(numListRe.FindStringSubmatch(trimmed)[1]))
		case strings.HasPrefix(trimmed, "> "):
			flushList()
			b.WriteString("<blockquote>" + inline(strings.TrimPrefix(trimmed, "> ")) + "</blockquote>\n")
		default:
			flushList()
			b.WriteString("<p>" + inline(trimmed) + "</p>\n")
		}
	}
	flushList()
	flushTable()
	return b.String()
}

func inline(s string) string {
	s = html.EscapeString(s)
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = linkRe.ReplaceAllString(s, `<a href="$2">$1</a>`)
	return s
}

package importer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// TextFromHTML extracts the readable text of an HTML page. Script, style
// and chrome elements are skipped; block elements become line breaks so
// the section structure of the page survives.
func TextFromHTML(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sb strings.Builder
	walkText(doc, &sb, 0)

	return collapseBlankLines(sb.String()), nil
}

func walkText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 50 {
		return
	}

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header":
			return
		case "br":
			sb.WriteString("\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "section", "article", "blockquote":
			sb.WriteString("\n")
		}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// lineSectionRe matches the start of a changing-line section: the line
// index 0-5 followed by a separator, e.g. "0." or "3、" or "5:".
var lineSectionRe = regexp.MustCompile(`^([0-5])\s*[.。．、：:]\s*(.*)$`)

// ExtractRecords parses a source page for one parent coordinate. Pages lay
// out the hexagram body text first, followed by six line sections numbered
// 0-5; the body becomes the shared parent text and each numbered section a
// child record.
func ExtractRecords(htmlContent, parent string) ([]Record, error) {
	if !parentKeyRe.MatchString(parent) {
		return nil, fmt.Errorf("invalid parent coordinate %q", parent)
	}

	text, err := TextFromHTML(htmlContent)
	if err != nil {
		return nil, err
	}

	var (
		intro    []string
		order    []string
		sections = make(map[string][]string)
		current  string
	)

	for _, line := range strings.Split(text, "\n") {
		if m := lineSectionRe.FindStringSubmatch(line); m != nil {
			current = m[1]
			if _, seen := sections[current]; !seen {
				order = append(order, current)
			}
			sections[current] = nil
			if rest := strings.TrimSpace(m[2]); rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}
		if current == "" {
			intro = append(intro, line)
		} else {
			sections[current] = append(sections[current], line)
		}
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("page for %s contains no line sections", parent)
	}

	parentText := strings.TrimSpace(strings.Join(intro, "\n"))
	records := make([]Record, 0, len(order))
	for _, child := range order {
		records = append(records, Record{
			Parent:     parent,
			Child:      child,
			ParentText: parentText,
			ChildText:  strings.TrimSpace(strings.Join(sections[child], "\n")),
		})
	}
	return records, nil
}

// Package format converts message bodies into plain text suitable for a prompt.
package format

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Converter handles document format conversions.
type Converter struct{}

var skippedElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"title":    true,
	"noscript": true,
	"template": true,
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// HTML2Text renders the visible text of an HTML document, one block per line.
func (c Converter) HTML2Text(raw []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("html.Parse failed: %w", err)
	}

	var sb strings.Builder
	renderText(&sb, doc)

	return tidyLines(sb.String()), nil
}

func renderText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") && startsWithSpace(n.Data) {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
			if endsWithSpace(n.Data) {
				sb.WriteByte(' ')
			}
		}
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		if n.Data == "br" {
			sb.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		lineBreak(sb)
	}
	if n.Type == html.ElementNode && n.Data == "li" {
		sb.WriteString("- ")
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		renderText(sb, child)
	}

	switch {
	case block:
		lineBreak(sb)
	case n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th"):
		sb.WriteByte(' ')
	}
}

func lineBreak(sb *strings.Builder) {
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteByte('\n')
	}
}

// tidyLines trims every line and collapses runs of blank lines into one.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsAny(s[:1], " \t\r\n")
}

func endsWithSpace(s string) bool {
	return s != "" && strings.ContainsAny(s[len(s)-1:], " \t\r\n")
}

// Package fence extracts the payload of Markdown fenced code blocks from model replies.
package fence

import (
	"strings"
)

// Block is a fenced code block found in a reply.
type Block struct {
	Lang string
	Body string
}

// Unwrap returns the body of the first fenced block in s, or s itself (trimmed)
// when s carries no complete fenced block.
func Unwrap(s string) string {
	if b, ok := Find(s); ok {
		return b.Body
	}
	return strings.TrimSpace(s)
}

// Find locates the first complete fenced block in s. The opening fence is a run of
// at least three backticks optionally followed by a language tag; the block ends at
// the next run of at least the same number of backticks.
func Find(s string) (Block, bool) {
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], "```")
		if idx < 0 {
			return Block{}, false
		}
		start := offset + idx
		ticks := countTicks(s[start:])
		rest := s[start+ticks:]

		if b, ok := parseBlock(rest, ticks); ok {
			return b, true
		}

		offset = start + ticks
	}

	return Block{}, false
}

func parseBlock(rest string, ticks int) (Block, bool) {
	closing := strings.Repeat("`", ticks)

	nl := strings.IndexByte(rest, '\n')
	header := rest
	if nl >= 0 {
		header = rest[:nl]
	}

	// Inline form: ```json {"a":1}``` on a single line.
	if end := strings.Index(header, closing); end >= 0 {
		lang, body := splitInlineTag(header[:end])
		return Block{Lang: lang, Body: strings.TrimSpace(body)}, true
	}

	if nl < 0 {
		return Block{}, false
	}

	lang := strings.TrimSpace(header)
	if !isTag(lang) {
		return Block{}, false
	}

	body := rest[nl+1:]
	end := findClosing(body, ticks)
	if end < 0 {
		return Block{}, false
	}

	return Block{Lang: lang, Body: strings.TrimSpace(body[:end])}, true
}

// findClosing returns the offset of the closing fence in body, or -1.
func findClosing(body string, ticks int) int {
	closing := strings.Repeat("`", ticks)

	lineStart := 0
	for lineStart <= len(body) {
		lineEnd := strings.IndexByte(body[lineStart:], '\n')
		line := body[lineStart:]
		if lineEnd >= 0 {
			line = body[lineStart : lineStart+lineEnd]
		}

		if strings.HasPrefix(strings.TrimLeft(line, " \t"), closing) {
			return lineStart
		}
		// Closing fence glued to the end of a content line: {"a":1}```
		if trimmed := strings.TrimRight(line, " \t\r"); strings.HasSuffix(trimmed, closing) {
			return lineStart + len(trimmed) - ticks
		}
		if lineEnd < 0 {
			return -1
		}

		lineStart += lineEnd + 1
	}

	return -1
}

func splitInlineTag(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i <= 0 {
		return "", s
	}
	if tag := s[:i]; isTag(tag) && !strings.ContainsAny(tag, "{[\"") {
		return tag, s[i:]
	}
	return "", s
}

func isTag(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '+', r == '.':
		default:
			return false
		}
	}
	return true
}

func countTicks(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

package quotepipe

import (
	"fmt"
	"strings"
	"unicode"
)

// delimiter separates the quote body from its author.
const delimiter = "-"

// quoteChars are stripped, one layer per side, by the document parsers.
const quoteChars = "\"“”"

// lineSplitter turns text lines into quotes following the shared rule:
// split on every delimiter, token 0 is the body, token 1 the author, and any
// further tokens are discarded with a warning.
type lineSplitter struct {
	path        string
	stripQuotes bool
	opts        *ParseOptions
}

// split appends the quote held by line (1-based lineNo) to dst. Blank lines
// are ignored.
func (s *lineSplitter) split(dst []Quote, lineNo int, line string) ([]Quote, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return dst, nil
	}
	parts := strings.Split(line, delimiter)
	if len(parts) < 2 {
		if s.opts.Malformed == MalformedSkip {
			s.opts.logger().Warn("line without delimiter dropped",
				"path", s.path, "line", lineNo, "text", line)
			return dst, nil
		}
		return dst, fmt.Errorf("line %d: %w: %q", lineNo, ErrMissingDelimiter, line)
	}
	if len(parts) > 2 {
		s.opts.logger().Warn("extra delimiter tokens discarded",
			"path", s.path, "line", lineNo, "discarded", strings.Join(parts[2:], delimiter))
	}
	body, author := cleanToken(parts[0], s.stripQuotes), cleanToken(parts[1], s.stripQuotes)
	return append(dst, NewQuote(body, author)), nil
}

func (s *lineSplitter) splitAll(lines []string) ([]Quote, error) {
	var quotes []Quote
	var err error
	for i, line := range lines {
		if quotes, err = s.split(quotes, i+1, line); err != nil {
			return nil, err
		}
	}
	return quotes, nil
}

func cleanToken(tok string, stripQuotes bool) string {
	tok = strings.TrimSpace(tok)
	if !stripQuotes {
		return tok
	}
	tok = trimOneQuote(tok)
	return strings.TrimSpace(tok)
}

// trimOneQuote removes at most one leading and one trailing quote character.
func trimOneQuote(s string) string {
	for _, q := range quoteChars {
		if strings.HasPrefix(s, string(q)) {
			s = s[len(string(q)):]
			break
		}
	}
	for _, q := range quoteChars {
		if strings.HasSuffix(s, string(q)) {
			s = s[:len(s)-len(string(q))]
			break
		}
	}
	return s
}

// printableASCII drops every byte outside 0x20-0x7E. Tabs become spaces.
func printableASCII(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t':
			sb.WriteByte(' ')
		case r >= 0x20 && r <= 0x7e:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// printableOnly drops runes that are not printable (control chars, PUA, U+FFFD).
func printableOnly(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == 0xFFFD || (r >= 0xE000 && r <= 0xF8FF) {
			continue
		}
		if unicode.IsPrint(r) {
			sb.WriteRune(r)
		} else if r == '\t' {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// splitLines normalises line endings and splits on '\n'.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

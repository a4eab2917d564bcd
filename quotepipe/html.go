package quotepipe

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser reads quotes from an .html page. Invisible content is pruned,
// the page is converted to markdown, block markers are stripped, and each
// remaining line follows the same rule as DocxParser.
type HTMLParser struct {
	Options ParseOptions

	conv *converter.Converter
}

// NewHTMLParser returns an HTMLParser with a commonmark converter.
func NewHTMLParser(opts ParseOptions) *HTMLParser {
	return &HTMLParser{
		Options: opts,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

func (p *HTMLParser) CanIngest(path string) bool { return hasExt(path, FormatHTML) }

func (p *HTMLParser) Parse(path string) ([]Quote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	visible, err := visibleHTML(data)
	if err != nil {
		return nil, err
	}
	md, err := p.conv.ConvertString(visible)
	if err != nil {
		return nil, err
	}

	lines := splitLines(md)
	for i, line := range lines {
		lines[i] = stripMarkdown(line)
	}
	s := &lineSplitter{path: path, stripQuotes: true, opts: &p.Options}
	return s.splitAll(lines)
}

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

// visibleHTML drops head, script, style, template and noscript elements and
// anything hidden by attribute or inline style, then renders the rest.
func visibleHTML(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	pruneHidden(doc)
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pruneHidden(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isHidden(c) {
			n.RemoveChild(c)
		} else {
			pruneHidden(c)
		}
		c = next
	}
}

func isHidden(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Noscript:
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

// stripMarkdown removes block-level markers (blockquote, list bullets,
// headings, emphasis) and backslash escapes from one markdown line.
func stripMarkdown(line string) string {
	line = strings.TrimSpace(line)
	for {
		trimmed := line
		switch {
		case strings.HasPrefix(trimmed, ">"):
			trimmed = strings.TrimPrefix(trimmed, ">")
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "), strings.HasPrefix(trimmed, "+ "):
			trimmed = trimmed[2:]
		case strings.HasPrefix(trimmed, "#"):
			trimmed = strings.TrimLeft(trimmed, "#")
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == line {
			break
		}
		line = trimmed
	}
	line = strings.NewReplacer("**", "", "__", "").Replace(line)

	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' && i+1 < len(line) && isASCIIPunct(line[i+1]) {
			i++
		}
		sb.WriteByte(line[i])
	}
	return sb.String()
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}

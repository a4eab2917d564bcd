package quotepipe

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ODTParser reads one quote per text:p or text:h element of an OpenDocument
// text file, with the same rule as DocxParser.
type ODTParser struct {
	Options ParseOptions
}

func (p *ODTParser) CanIngest(path string) bool { return hasExt(path, FormatODT) }

func (p *ODTParser) Parse(path string) ([]Quote, error) {
	paragraphs, err := odtParagraphs(path)
	if err != nil {
		return nil, err
	}
	s := &lineSplitter{path: path, stripQuotes: true, opts: &p.Options}
	return s.splitAll(paragraphs)
}

func odtParagraphs(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	rc, err := openZipMember(&r.Reader, "content.xml")
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	// open counts enclosing text:p / text:h elements; spans and nested
	// paragraphs inside a note contribute to the outermost one.
	open := 0
	depth := 0

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode content.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return nil, fmt.Errorf("%w (max %d)", ErrXMLDepth, maxXMLDepth)
			}
			switch t.Name.Local {
			case "p", "h":
				if open == 0 {
					current.Reset()
				}
				open++
			case "s", "tab", "line-break":
				if open > 0 {
					current.WriteByte(' ')
				}
			}

		case xml.CharData:
			if open > 0 {
				current.Write(t)
			}

		case xml.EndElement:
			depth--
			if (t.Name.Local == "p" || t.Name.Local == "h") && open > 0 {
				open--
				if open == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			}
		}
	}

	return paragraphs, nil
}

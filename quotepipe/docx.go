package quotepipe

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxXMLDepth bounds element nesting in document XML (XML bomb guard).
const maxXMLDepth = 256

// wordNS is the WordprocessingML namespace; DrawingML a:p / a:t elements
// inside text boxes are ignored.
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxParser reads one quote per paragraph of a .docx file.
type DocxParser struct {
	Options ParseOptions
}

func (p *DocxParser) CanIngest(path string) bool { return hasExt(path, FormatDocx) }

func (p *DocxParser) Parse(path string) ([]Quote, error) {
	paragraphs, err := docxParagraphs(path)
	if err != nil {
		return nil, err
	}
	s := &lineSplitter{path: path, stripQuotes: true, opts: &p.Options}
	return s.splitAll(paragraphs)
}

// docxParagraphs returns the text of every w:p in word/document.xml, in
// document order. Empty paragraphs are kept so line numbers match paragraphs.
func docxParagraphs(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	rc, err := openZipMember(&r.Reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	// open counts enclosing w:p elements; a paragraph inside a text box
	// (w:txbxContent) contributes to the outermost one.
	open := 0
	inText := false
	depth := 0

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return nil, fmt.Errorf("%w (max %d)", ErrXMLDepth, maxXMLDepth)
			}
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				if open == 0 {
					current.Reset()
				} else {
					current.WriteByte(' ')
				}
				open++
			case "t":
				inText = open > 0
			case "tab", "br", "cr":
				if open > 0 {
					current.WriteByte(' ')
				}
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}

		case xml.EndElement:
			depth--
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if open > 0 {
					open--
					if open == 0 {
						paragraphs = append(paragraphs, current.String())
					}
				}
			}
		}
	}

	return paragraphs, nil
}

func openZipMember(r *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", name, err)
			}
			return rc, nil
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

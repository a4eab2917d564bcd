package quotepipe

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

func writeZip(t *testing.T, path, member, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, err := w.Create(member)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

// writeDocx builds a minimal .docx with one w:p per paragraph. An empty
// string produces an empty <w:p/>.
func writeDocx(t *testing.T, dir, name string, paragraphs ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		if p == "" {
			b.WriteString(`<w:p/>`)
			continue
		}
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + xmlEscape(p) + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)

	path := filepath.Join(dir, name)
	writeZip(t, path, "word/document.xml", b.String())
	return path
}

func writeODT(t *testing.T, dir, name string, paragraphs ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">`)
	b.WriteString(`<office:body><office:text>`)
	for _, p := range paragraphs {
		b.WriteString(`<text:p>` + xmlEscape(p) + `</text:p>`)
	}
	b.WriteString(`</office:text></office:body></office:document-content>`)

	path := filepath.Join(dir, name)
	writeZip(t, path, "content.xml", b.String())
	return path
}

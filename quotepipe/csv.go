package quotepipe

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSV header names for the two required columns.
const (
	columnBody   = "body"
	columnAuthor = "author"
)

// CSVParser reads quotes from a .csv file whose first row names the columns.
// The body and author columns may appear in any position; other columns are
// ignored.
type CSVParser struct{}

func (p *CSVParser) CanIngest(path string) bool { return hasExt(path, FormatCSV) }

func (p *CSVParser) Parse(path string) ([]Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file, expected header %q", ErrMissingColumn, columnBody+","+columnAuthor)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	bodyIdx, authorIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case columnBody:
			bodyIdx = i
		case columnAuthor:
			authorIdx = i
		}
	}
	if bodyIdx < 0 {
		return nil, fmt.Errorf("header: %w %q", ErrMissingColumn, columnBody)
	}
	if authorIdx < 0 {
		return nil, fmt.Errorf("header: %w %q", ErrMissingColumn, columnAuthor)
	}

	var quotes []Quote
	for row := 2; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if bodyIdx >= len(record) || authorIdx >= len(record) {
			return nil, fmt.Errorf("row %d: %w (got %d fields)", row, ErrMissingColumn, len(record))
		}
		quotes = append(quotes, NewQuote(
			strings.TrimSpace(record[bodyIdx]),
			strings.TrimSpace(record[authorIdx]),
		))
	}
	return quotes, nil
}

package quotepipe

// Format identifies a quote source document type by its extension.
type Format string

const (
	FormatTXT  Format = ".txt"
	FormatCSV  Format = ".csv"
	FormatDocx Format = ".docx"
	FormatPDF  Format = ".pdf"
	FormatODT  Format = ".odt"
	FormatHTML Format = ".html"
)

// Quote is one attributed quotation. Either field may be empty; parsers do
// not validate content.
type Quote struct {
	Body   string `json:"body"`
	Author string `json:"author"`
}

// NewQuote builds a Quote from exactly two extracted tokens.
func NewQuote(body, author string) Quote {
	return Quote{Body: body, Author: author}
}

// FileResult is the outcome of ingesting a single file with IngestEach.
type FileResult struct {
	Path   string  `json:"path"`
	Quotes []Quote `json:"quotes,omitempty"`
	Err    error   `json:"-"`
}

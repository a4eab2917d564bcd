package quotepipe

import (
	"os"
)

// TextParser reads one "body - author" quote per line from a .txt file.
// Unless Options.KeepNonASCII is set, characters outside printable ASCII are
// filtered from each line before the split.
type TextParser struct {
	Options ParseOptions
}

func (p *TextParser) CanIngest(path string) bool { return hasExt(path, FormatTXT) }

func (p *TextParser) Parse(path string) ([]Quote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lines := splitLines(string(data))
	if !p.Options.KeepNonASCII {
		for i, line := range lines {
			lines[i] = printableASCII(line)
		}
	}

	s := &lineSplitter{path: path, opts: &p.Options}
	return s.splitAll(lines)
}

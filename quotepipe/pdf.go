package quotepipe

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFParser reads one quote per text line of a .pdf file. Lines are
// reconstructed from the page content streams; non-printable characters are
// removed and lines left empty are skipped.
type PDFParser struct {
	Options ParseOptions
}

func (p *PDFParser) CanIngest(path string) bool { return hasExt(path, FormatPDF) }

func (p *PDFParser) Parse(path string) ([]Quote, error) {
	lines, err := pdfLines(path)
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		lines[i] = printableOnly(line)
	}
	s := &lineSplitter{path: path, stripQuotes: true, opts: &p.Options}
	return s.splitAll(lines)
}

// pdfLines returns the text lines of every page, in page order.
func pdfLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var lines []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		// Pages without a readable content stream carry no text.
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		lines = append(lines, streamLines(data)...)
	}

	if len(lines) == 0 {
		return nil, ErrNoText
	}
	return lines, nil
}

// kernSpace is the TJ displacement (thousandths of an em) past which a gap
// is read as a word space.
const kernSpace = -200

// baselineSlack is how far (text space units) the baseline may drift before
// shown text counts as a new line. It absorbs rounding, not sub/superscript.
const baselineSlack = 1.0

// streamLines walks a decoded content stream and returns the text shown by
// Tj, TJ, ' and " grouped into lines. A line ends when text is shown on a
// different baseline than the pending text, or on T*, ' and ". Sideways
// moves (Td with ty 0, a Tm or new BT block on the same y) join the runs with
// a single space.
func streamLines(data []byte) []string {
	var lines []string
	var line strings.Builder
	var operands []string
	var nums []float64
	inArray := false

	// y is the current baseline; lineY the baseline of the pending text.
	y, lineY, scale, leading := 0.0, 0.0, 1.0, 0.0
	moved := false

	flush := func() {
		if strings.TrimSpace(line.String()) != "" {
			lines = append(lines, line.String())
		}
		line.Reset()
	}
	show := func(text string) {
		if line.Len() > 0 && math.Abs(y-lineY) > baselineSlack {
			flush()
		}
		if line.Len() > 0 && moved && !endsInSpace(line.String()) && !strings.HasPrefix(text, " ") {
			line.WriteByte(' ')
		}
		line.WriteString(text)
		lineY = y
		moved = false
	}
	nextLine := func() {
		flush()
		y -= leading * scale
		moved = false
	}

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isPDFSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			raw, n := readPDFLiteral(data[i:])
			operands = append(operands, pdfText(decodePDFString(raw)))
			i += n
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			raw, n := readPDFHex(data[i:])
			operands = append(operands, pdfText(raw))
			i += n
		case c == '[':
			inArray = true
			i++
		case c == ']':
			inArray = false
			i++
		case c == '/':
			i++
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
		default:
			start := i
			for i < len(data) && !isPDFSpace(data[i]) && !isPDFDelim(data[i]) {
				i++
			}
			if i == start {
				i++ // stray delimiter
				continue
			}
			tok := string(data[start:i])
			if isPDFNumber(tok) {
				v, _ := strconv.ParseFloat(tok, 64)
				switch {
				case !inArray:
					nums = append(nums, v)
				case len(operands) > 0 && v < kernSpace:
					operands = append(operands, " ")
				}
				continue
			}
			switch tok {
			case "BT":
				y, scale = 0, 1
				moved = true
			case "Td", "TD":
				if len(nums) >= 2 {
					ty := nums[len(nums)-1]
					y += ty * scale
					if tok == "TD" {
						leading = -ty
					}
				}
				moved = true
			case "TL":
				if len(nums) >= 1 {
					leading = nums[len(nums)-1]
				}
			case "Tm":
				if len(nums) >= 6 {
					m := nums[len(nums)-6:]
					if m[3] != 0 {
						scale = m[3]
					}
					y = m[5]
				}
				moved = true
			case "T*":
				nextLine()
			case "Tj", "TJ":
				show(strings.Join(operands, ""))
			case "'":
				nextLine()
				show(strings.Join(operands, ""))
			case "\"":
				nextLine()
				if len(operands) > 0 {
					show(operands[len(operands)-1])
				}
			}
			operands = operands[:0]
			nums = nums[:0]
		}
	}
	flush()
	return lines
}

func endsInSpace(s string) bool {
	return s != "" && s[len(s)-1] == ' '
}

// readPDFLiteral returns the raw bytes of the balanced string literal at the
// start of data and the number of bytes consumed.
func readPDFLiteral(data []byte) ([]byte, int) {
	depth := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return data[1:i], i + 1
			}
		}
	}
	return data[1:], len(data)
}

// readPDFHex decodes the hex string at the start of data.
func readPDFHex(data []byte) ([]byte, int) {
	var out []byte
	var hi byte
	half := false
	i := 1
	for ; i < len(data) && data[i] != '>'; i++ {
		v, ok := hexVal(data[i])
		if !ok {
			continue
		}
		if !half {
			hi, half = v, true
			continue
		}
		out = append(out, hi<<4|v)
		half = false
	}
	if half {
		out = append(out, hi<<4)
	}
	if i < len(data) {
		i++
	}
	return out, i
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			out = append(out, raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b', 'f':
			// Backspace and form feed carry no text.
		case '\n':
			// Line continuation.
		case '\\', '(', ')':
			out = append(out, raw[i])
		default:
			// Octal escape (e.g. \040 for space).
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				out = append(out, byte(val))
			} else {
				out = append(out, raw[i])
			}
		}
	}
	return out
}

// pdfText converts a PDF string to UTF-8: UTF-16BE when it carries a byte
// order mark, Latin-1 otherwise.
func pdfText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

func isPDFSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isPDFDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isPDFNumber(tok string) bool {
	digits := 0
	for i, c := range tok {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
		case (c == '-' || c == '+') && i == 0:
		default:
			return false
		}
	}
	return digits > 0
}

// Package meme composites a quote onto an image.
//
// The image is scaled down to the requested width (aspect ratio kept), the
// body is drawn word-wrapped from (50,50) and "- author" below it. Output
// files are content-addressed: the same image, text and width always map to
// the same file.
package meme

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // decode only
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultWidth is the output width used when Make gets width <= 0.
const DefaultWidth = 500

// textOrigin is where the first body line starts.
var textOrigin = image.Pt(50, 50)

var (
	bodyColor   = color.RGBA{25, 200, 255, 255}
	authorColor = color.RGBA{2, 255, 255, 255}
)

var (
	ErrEmptyText        = errors.New("meme: body and author must not be empty")
	ErrUnsupportedImage = errors.New("meme: unsupported image format")
)

// Engine writes memes into one output directory.
type Engine struct {
	dir    string
	face   font.Face
	logger *slog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithFace sets the font face (default basicfont.Face7x13).
func WithFace(f font.Face) Option { return func(e *Engine) { e.face = f } }

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// New returns an Engine writing to outputDir, creating it if needed.
func New(outputDir string, opts ...Option) (*Engine, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("meme: create output dir: %w", err)
	}
	e := &Engine{dir: outputDir, face: basicfont.Face7x13, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Dir returns the output directory.
func (e *Engine) Dir() string { return e.dir }

// Make composites body and author onto the image at imgPath and returns the
// path of the written file. jpeg input is written as jpeg, png and gif as png.
func (e *Engine) Make(imgPath, body, author string, width int) (string, error) {
	if body == "" || author == "" {
		return "", ErrEmptyText
	}
	if width <= 0 {
		width = DefaultWidth
	}

	data, err := os.ReadFile(imgPath)
	if err != nil {
		return "", fmt.Errorf("meme: read image: %w", err)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, imgPath)
		}
		return "", fmt.Errorf("meme: decode %s: %w", imgPath, err)
	}

	canvas := fit(src, width)
	e.drawCaption(canvas, body, author)

	ext := ".png"
	if format == "jpeg" {
		ext = ".jpg"
	}
	out := filepath.Join(e.dir, outputName(data, body, author, width)+ext)
	if err := writeImage(out, canvas, ext); err != nil {
		return "", err
	}

	e.logger.Debug("meme written", "src", imgPath, "format", format,
		"size", canvas.Bounds().Size().String(), "path", out)
	return out, nil
}

// fit copies src onto an RGBA canvas, scaling down to width when wider.
func fit(src image.Image, width int) *image.RGBA {
	b := src.Bounds()
	if b.Dx() <= width {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func (e *Engine) drawCaption(dst *image.RGBA, body, author string) {
	metrics := e.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	maxWidth := dst.Bounds().Dx() - textOrigin.X - 10

	d := &font.Drawer{Dst: dst, Face: e.face}
	y := textOrigin.Y + metrics.Ascent.Ceil()

	d.Src = image.NewUniform(bodyColor)
	for _, line := range wrap(body, maxWidth, func(s string) int { return d.MeasureString(s).Ceil() }) {
		drawString(d, line, textOrigin.X, y)
		y += lineHeight
	}

	d.Src = image.NewUniform(authorColor)
	drawString(d, "- "+author, textOrigin.X, y+lineHeight/2)
}

func drawString(d *font.Drawer, s string, x, y int) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// outputName is the hex BLAKE2b-128 of the image bytes, text and width.
func outputName(img []byte, body, author string, width int) string {
	h, _ := blake2b.New(16, nil)
	h.Write(img)
	for _, s := range []string{body, author, strconv.Itoa(width)} {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeImage(path string, img image.Image, ext string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("meme: create output: %w", err)
	}
	switch ext {
	case ".jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("meme: encode %s: %w", path, err)
	}
	return nil
}

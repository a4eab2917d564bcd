package safefetch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hazyhaar/memegen/idgen"
)

// imageExts maps sniffed content types to the extension the file is saved
// under. Anything else is refused.
var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Fetcher downloads remote images into a temporary directory.
type Fetcher struct {
	// Client defaults to a client with a 15s timeout.
	Client *http.Client

	// MaxBytes defaults to MaxImageBytes.
	MaxBytes int64

	// TempDir defaults to os.TempDir().
	TempDir string

	// AllowPrivate disables the SSRF check. Only tests set it.
	AllowPrivate bool

	NewID  idgen.Generator
	Logger *slog.Logger

	once    sync.Once
	guarded *http.Client
}

// client derives the HTTP client used for every download. Unless
// AllowPrivate is set, its transport refuses to connect to private or
// loopback addresses, whatever the host name resolved to.
func (f *Fetcher) client() *http.Client {
	f.once.Do(func() {
		base := f.Client
		if base == nil {
			base = &http.Client{Timeout: 15 * time.Second}
		}
		c := *base
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("safefetch: too many redirects")
			}
			return f.check(req.URL.String())
		}
		if !f.AllowPrivate {
			c.Transport = guardedTransport(c.Transport)
		}
		f.guarded = &c
	})
	return f.guarded
}

// guardedTransport clones rt, or the default transport when rt is not an
// *http.Transport, and makes it dial public addresses only. Proxies are
// disabled so the checked address is the one connected to.
func guardedTransport(rt http.RoundTripper) *http.Transport {
	t, ok := rt.(*http.Transport)
	if !ok {
		t = http.DefaultTransport.(*http.Transport)
	}
	t = t.Clone()
	t.Proxy = nil
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   dialControl,
	}
	t.DialContext = dialer.DialContext
	return t
}

// dialControl runs after name resolution, on the literal address about to
// be connected.
func dialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("safefetch: dial %s: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || isPrivateIP(ip) {
		return fmt.Errorf("%w: dial %s", ErrSSRF, host)
	}
	return nil
}

func (f *Fetcher) check(rawURL string) error {
	if f.AllowPrivate {
		u, err := parseURL(rawURL)
		if err != nil {
			return err
		}
		return validateScheme(u)
	}
	return ValidateURL(rawURL)
}

// FetchImage downloads rawURL and writes it to a new file in TempDir. The
// body must sniff as jpeg, png or gif. The caller removes the returned file.
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) (string, error) {
	if err := f.check(rawURL); err != nil {
		return "", err
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("safefetch: build request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("safefetch: get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("safefetch: get %s: status %d", rawURL, resp.StatusCode)
	}

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = MaxImageBytes
	}
	data, err := LimitedReadAll(resp.Body, maxBytes)
	if err != nil {
		return "", err
	}

	ctype := http.DetectContentType(data)
	ext, ok := imageExts[strings.Split(ctype, ";")[0]]
	if !ok {
		return "", fmt.Errorf("safefetch: %s is not an image (%s)", rawURL, ctype)
	}

	dir := f.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	newID := f.NewID
	if newID == nil {
		newID = idgen.Prefixed("img_", idgen.NanoID(12))
	}
	path := filepath.Join(dir, newID()+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("safefetch: write temp image: %w", err)
	}

	logger.Debug("image fetched", "url", rawURL, "bytes", len(data), "path", path)
	return path, nil
}

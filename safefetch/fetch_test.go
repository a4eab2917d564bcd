package safefetch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/memegen/idgen"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := pngBytes(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>not an image</body></html>"))
	})
	mux.HandleFunc("/big.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
		w.Write(bytes.Repeat([]byte{0}, 4096))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cat.png", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchImage(t *testing.T) {
	srv := imageServer(t)
	dir := t.TempDir()
	f := &Fetcher{AllowPrivate: true, TempDir: dir, NewID: idgen.Sequence("dl")}

	path, err := f.FetchImage(context.Background(), srv.URL+"/cat.png")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "dl1.png") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, pngBytes(t)) {
		t.Error("downloaded bytes differ")
	}
}

func TestFetchImage_FollowsRedirect(t *testing.T) {
	srv := imageServer(t)
	f := &Fetcher{AllowPrivate: true, TempDir: t.TempDir()}

	if _, err := f.FetchImage(context.Background(), srv.URL+"/moved"); err != nil {
		t.Fatal(err)
	}
}

func TestFetchImage_Rejects(t *testing.T) {
	srv := imageServer(t)
	f := &Fetcher{AllowPrivate: true, TempDir: t.TempDir(), MaxBytes: 1024}
	ctx := context.Background()

	if _, err := f.FetchImage(ctx, srv.URL+"/page.html"); err == nil || !strings.Contains(err.Error(), "not an image") {
		t.Errorf("html page: %v", err)
	}
	if _, err := f.FetchImage(ctx, srv.URL+"/missing.png"); err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("missing: %v", err)
	}
	if _, err := f.FetchImage(ctx, srv.URL+"/big.png"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized: %v", err)
	}
	if _, err := f.FetchImage(ctx, "ftp://example.com/cat.png"); !errors.Is(err, ErrUnsafeScheme) {
		t.Errorf("ftp: %v", err)
	}
}

func TestFetchImage_SSRFGuard(t *testing.T) {
	srv := imageServer(t)
	f := &Fetcher{TempDir: t.TempDir()}

	_, err := f.FetchImage(context.Background(), srv.URL+"/cat.png")
	if !errors.Is(err, ErrSSRF) {
		t.Fatalf("expected ErrSSRF for loopback server, got %v", err)
	}
}

// A host that passed ValidateURL can still resolve to a private address at
// dial time. The transport must refuse the connection itself.
func TestFetcherClient_RefusesPrivateDial(t *testing.T) {
	srv := imageServer(t)
	f := &Fetcher{TempDir: t.TempDir()}

	resp, err := f.client().Get(srv.URL + "/cat.png")
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected the dial to a loopback address to fail")
	}
	if !errors.Is(err, ErrSSRF) {
		t.Fatalf("expected ErrSSRF from the dialer, got %v", err)
	}
}

func TestFetcherClient_LocalhostName(t *testing.T) {
	srv := imageServer(t)
	f := &Fetcher{TempDir: t.TempDir()}
	u := strings.Replace(srv.URL, "127.0.0.1", "localhost", 1)

	resp, err := f.client().Get(u + "/cat.png")
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected localhost to be refused at dial time")
	}
	if !errors.Is(err, ErrSSRF) {
		t.Fatalf("expected ErrSSRF, got %v", err)
	}
}

func TestDialControl(t *testing.T) {
	tests := []struct {
		address string
		wantErr bool
	}{
		{"127.0.0.1:80", true},
		{"[::1]:443", true},
		{"10.0.0.7:8080", true},
		{"169.254.169.254:80", true},
		{"93.184.216.34:443", false},
		{"not-an-address", true},
	}
	for _, tt := range tests {
		err := dialControl("tcp", tt.address, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("dialControl(%q) = %v, wantErr %v", tt.address, err, tt.wantErr)
		}
	}
}

func TestValidateURL_UnresolvableHost(t *testing.T) {
	if err := ValidateURL("http://nonexistent.invalid/cat.png"); err == nil {
		t.Error("expected an error for a host that does not resolve")
	}
}

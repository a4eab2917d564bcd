package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/memegen/quotepipe"
)

// run executes the root command in a fresh working directory with flag
// state reset between invocations.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	configPath, logLevel = "", ""
	ingestParallel, ingestKeepGoing = 0, false
	makePath, makeBody, makeAuthor, makeOut, makeWidth = "", "", "", "", 0

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEMEGEN_LISTEN", ":7000")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":7000" {
		t.Errorf("listen = %q, want env override", cfg.Listen)
	}
	if cfg.DBPath != "data/memegen.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
}

func TestLoadConfig_DefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	write(t, dir, defaultConfigFile, "meme_width: 320\n")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MemeWidth != 320 {
		t.Errorf("meme_width = %d", cfg.MemeWidth)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := loadConfig("nope.yaml"); err == nil {
		t.Fatal("expected error for missing --config file")
	}
}

func TestIngestCmd_PrintsJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	write(t, dir, "a.txt", "Bark - Rex\n")
	write(t, dir, "b.csv", "body,author\nChase the ball,Spot\n")

	out, _, err := run(t, "ingest", "a.txt", "b.csv")
	if err != nil {
		t.Fatal(err)
	}
	var got []quotepipe.Quote
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := []quotepipe.Quote{{Body: "Bark", Author: "Rex"}, {Body: "Chase the ball", Author: "Spot"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quotes mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestCmd_FailFast(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	write(t, dir, "a.txt", "Bark - Rex\n")

	out, _, err := run(t, "ingest", "a.txt", "missing.txt")
	if err == nil {
		t.Fatal("expected error")
	}
	if out != "" {
		t.Errorf("no output expected on failure, got %q", out)
	}
}

func TestIngestCmd_KeepGoing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	write(t, dir, "a.txt", "Bark - Rex\n")

	out, errOut, err := run(t, "ingest", "--keep-going", "a.txt", "missing.txt")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, `"Rex"`) {
		t.Errorf("good file quotes missing: %q", out)
	}
	if !strings.Contains(errOut, "a.txt: 1 quotes") || !strings.Contains(errOut, "missing.txt: error") {
		t.Errorf("summary = %q", errOut)
	}
}

func TestMakeCmd_AuthorRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	_, _, err := run(t, "make", "--body", "hello")
	if err == nil || !strings.Contains(err.Error(), "--author") {
		t.Fatalf("err = %v", err)
	}
}

func writePhoto(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.Black)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestMakeCmd_WritesMeme(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writePhoto(t, filepath.Join(dir, "photo.png"))

	out, _, err := run(t, "make", "--path", "photo.png", "--body", "Stay", "--author", "Rex", "--out", "memes")
	if err != nil {
		t.Fatal(err)
	}
	path := strings.TrimSpace(out)
	if !strings.HasPrefix(path, "memes") || filepath.Ext(path) != ".png" {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("meme not written: %v", err)
	}
}

func TestMakeCmd_RandomQuoteWithoutAuthor(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.Mkdir(filepath.Join(dir, "photos"), 0o755); err != nil {
		t.Fatal(err)
	}
	writePhoto(t, filepath.Join(dir, "photos", "one.png"))
	write(t, dir, "q.txt", "Just a thought - \n")
	write(t, dir, defaultConfigFile, "quote_sources: [q.txt]\nimages_dir: photos\noutput_dir: out\n")

	out, _, err := run(t, "make")
	if err != nil {
		t.Fatalf("make with an authorless quote: %v", err)
	}
	path := strings.TrimSpace(out)
	if !strings.HasPrefix(path, "out") {
		t.Errorf("path = %q, want it under output_dir", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("meme not written: %v", err)
	}
}

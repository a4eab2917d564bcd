package memeserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/memegen/dbopen"
	"github.com/hazyhaar/memegen/quotepipe"
	"github.com/hazyhaar/memegen/store"
)

func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	csv := filepath.Join(dir, "b.csv")
	os.WriteFile(txt, []byte("Bark - Rex\nWoof - Fido\n"), 0o644)
	os.WriteFile(csv, []byte("body,author\nChase the ball,Spot\n"), 0o644)

	st := store.NewStore(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	pipe := quotepipe.New(quotepipe.Config{})
	ctx := context.Background()

	for _, workers := range []int{0, 4} {
		n, err := LoadCorpus(ctx, pipe, st, []string{txt, csv}, workers)
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 {
			t.Errorf("workers=%d: loaded %d quotes", workers, n)
		}
		quotes, _ := st.Quotes(ctx)
		if quotes[2].Author != "Spot" {
			t.Errorf("workers=%d: order lost: %v", workers, quotes)
		}
	}

	// A failing source leaves the stored corpus untouched.
	if _, err := LoadCorpus(ctx, pipe, st, []string{txt, filepath.Join(dir, "c.rtf")}, 0); err == nil {
		t.Fatal("expected error")
	}
	if n, _ := st.CountQuotes(ctx); n != 3 {
		t.Errorf("corpus changed after failed load: %d", n)
	}
}

func TestWatchCorpus_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	os.WriteFile(txt, []byte("Bark - Rex\n"), 0o644)

	st := store.NewStore(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	pipe := quotepipe.New(quotepipe.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := LoadCorpus(ctx, pipe, st, []string{txt}, 0); err != nil {
		t.Fatal(err)
	}
	w := WatchCorpus(ctx, pipe, st, []string{txt}, 0, 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	os.WriteFile(txt, []byte("Bark - Rex\nWoof - Fido\n"), 0o644)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := st.CountQuotes(ctx); n == 2 && w.Stats().Reloads > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("corpus not reloaded after source change")
}

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// counter is a detector the test controls directly.
type counter struct{ v atomic.Int64 }

func (c *counter) detect(context.Context) (int64, error) { return c.v.Load(), nil }

func TestFileVersion(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	det := FileVersion([]string{a})
	ctx := context.Background()

	missing, err := det(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if missing < 0 {
		t.Fatalf("negative token %d", missing)
	}

	os.WriteFile(a, []byte("Bark - Rex\n"), 0o644)
	created, _ := det(ctx)
	if created == missing {
		t.Fatal("creating the file did not change the token")
	}
	again, _ := det(ctx)
	if again != created {
		t.Fatal("token not stable without changes")
	}

	os.WriteFile(a, []byte("Bark - Rex\nWoof - Fido\n"), 0o644)
	grown, _ := det(ctx)
	if grown == created {
		t.Fatal("resizing the file did not change the token")
	}

	later := time.Now().Add(time.Hour)
	os.Chtimes(a, later, later)
	touched, _ := det(ctx)
	if touched == grown {
		t.Fatal("touching the file did not change the token")
	}
}

func TestOnChange_FiresOnVersionChange(t *testing.T) {
	var c counter
	var reloadCount atomic.Int32
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.OnChange(ctx, func() error {
		reloadCount.Add(1)
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	if got := reloadCount.Load(); got != 0 {
		t.Fatalf("initial version fired %d reloads", got)
	}

	c.v.Store(1)
	time.Sleep(80 * time.Millisecond)
	if got := reloadCount.Load(); got != 1 {
		t.Fatalf("expected 1 reload, got %d", got)
	}

	c.v.Store(2)
	time.Sleep(80 * time.Millisecond)
	if got := reloadCount.Load(); got != 2 {
		t.Fatalf("expected 2 reloads, got %d", got)
	}

	time.Sleep(80 * time.Millisecond)
	if got := reloadCount.Load(); got != 2 {
		t.Fatalf("expected still 2, got %d", got)
	}
}

func TestOnChange_Debounce(t *testing.T) {
	var c counter
	var reloadCount atomic.Int32
	w := New(Options{
		Interval: 20 * time.Millisecond,
		Debounce: 100 * time.Millisecond,
		Detector: c.detect,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.OnChange(ctx, func() error {
		reloadCount.Add(1)
		return nil
	})
	time.Sleep(50 * time.Millisecond)

	for i := int64(1); i <= 5; i++ {
		c.v.Store(i)
		time.Sleep(15 * time.Millisecond)
	}
	if got := reloadCount.Load(); got != 0 {
		t.Fatalf("expected 0 reloads during debounce, got %d", got)
	}

	time.Sleep(200 * time.Millisecond)
	if got := reloadCount.Load(); got != 1 {
		t.Fatalf("expected exactly 1 debounced reload, got %d", got)
	}
	if v := w.Version(); v != 5 {
		t.Fatalf("version = %d, want 5", v)
	}
}

func TestOnChange_ErrorDoesNotAdvanceVersion(t *testing.T) {
	var c counter
	var callCount atomic.Int32
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.OnChange(ctx, func() error {
		if callCount.Add(1) == 1 {
			return errors.New("boom")
		}
		return nil
	})
	time.Sleep(50 * time.Millisecond)

	c.v.Store(1)
	time.Sleep(120 * time.Millisecond)

	if got := callCount.Load(); got < 2 {
		t.Fatalf("expected at least 2 calls (1 fail + 1 success), got %d", got)
	}
	if v := w.Version(); v != 1 {
		t.Fatalf("expected version 1, got %d", v)
	}
}

func TestStats(t *testing.T) {
	var c counter
	w := New(Options{Interval: 20 * time.Millisecond, Detector: c.detect})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.OnChange(ctx, func() error { return nil })
	time.Sleep(50 * time.Millisecond)

	c.v.Store(1)
	time.Sleep(80 * time.Millisecond)

	s := w.Stats()
	if s.Checks == 0 {
		t.Fatal("expected checks > 0")
	}
	if s.ChangesDetected == 0 {
		t.Fatal("expected changes > 0")
	}
	if s.Reloads == 0 {
		t.Fatal("expected reloads > 0")
	}
}

// Package watch provides a generic "poll, detect change, debounce, reload"
// loop. The version token comes from a ChangeDetector; FileVersion derives one
// from the size and modification time of a set of files.
//
// Typical usage:
//
//	w := watch.New(watch.Options{Interval: time.Second, Debounce: 500*time.Millisecond, Detector: watch.FileVersion(paths)})
//	go w.OnChange(ctx, func() error { return reload(ctx) })
package watch

import (
	"context"
	"encoding/binary"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ChangeDetector returns a version token. Two calls that return different
// values mean "something changed". Tokens are non-negative.
type ChangeDetector func(ctx context.Context) (int64, error)

// Options tunes the watcher behaviour.
type Options struct {
	// Interval is the polling frequency. Default: 1s.
	Interval time.Duration
	// Debounce is the quiet period after a change is detected before the
	// action fires. If more changes arrive during the window the timer
	// resets. 0 means fire immediately. Default: 0.
	Debounce time.Duration
	// Detector is required.
	Detector ChangeDetector
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher polls a detector and runs an action when the token changes.
// It is safe for concurrent use.
type Watcher struct {
	opts Options

	// version is the last successfully processed token.
	version atomic.Int64

	checks   atomic.Int64
	changes  atomic.Int64
	errors   atomic.Int64
	reloads  atomic.Int64
	reloadNs atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Checks          int64         `json:"checks"`
	ChangesDetected int64         `json:"changes_detected"`
	Errors          int64         `json:"errors"`
	Reloads         int64         `json:"reloads"`
	AvgReloadTime   time.Duration `json:"avg_reload_time"`
}

// New creates a Watcher. Call OnChange to start the loop.
func New(opts Options) *Watcher {
	opts.defaults()
	return &Watcher{opts: opts}
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	s := Stats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errors.Load(),
		Reloads:         w.reloads.Load(),
	}
	if s.Reloads > 0 {
		s.AvgReloadTime = time.Duration(w.reloadNs.Load() / s.Reloads)
	}
	return s
}

// Version returns the last processed version token.
func (w *Watcher) Version() int64 { return w.version.Load() }

// OnChange blocks until ctx is cancelled, polling at opts.Interval. When the
// detector reports a new token and the debounce window passes without
// further changes, action is called. The initial token is recorded without
// firing.
//
// If action returns an error the version is not advanced and the action is
// retried on the next poll cycle.
func (w *Watcher) OnChange(ctx context.Context, action func() error) {
	log := w.opts.Logger

	v, err := w.opts.Detector(ctx)
	if err != nil {
		log.Warn("watch: initial version check failed", "error", err)
	} else {
		w.version.Store(v)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	pendingVersion := int64(-1)

	log.Info("watch: started", "interval", w.opts.Interval, "debounce", w.opts.Debounce)

	for {
		select {
		case <-ctx.Done():
			log.Info("watch: stopped")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.opts.Detector(ctx)
			if err != nil {
				w.errors.Add(1)
				log.Warn("watch: version check failed", "error", err)
				continue
			}
			if cur == w.version.Load() || cur == pendingVersion {
				continue
			}
			w.changes.Add(1)
			pendingVersion = cur

			if w.opts.Debounce <= 0 {
				w.fire(log, action, pendingVersion)
				pendingVersion = -1
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.opts.Debounce)
			debounceCh = debounceTimer.C
			log.Debug("watch: change detected, debouncing", "pending_version", cur)

		case <-debounceCh:
			debounceCh = nil
			if pendingVersion >= 0 {
				w.fire(log, action, pendingVersion)
				pendingVersion = -1
			}
		}
	}
}

func (w *Watcher) fire(log *slog.Logger, action func() error, ver int64) {
	log.Info("watch: reloading", "old_version", w.version.Load(), "new_version", ver)
	start := time.Now()
	if err := action(); err != nil {
		w.errors.Add(1)
		log.Error("watch: reload failed", "error", err, "version", ver)
		return
	}
	elapsed := time.Since(start)
	w.reloads.Add(1)
	w.reloadNs.Add(int64(elapsed))
	w.version.Store(ver)
	log.Info("watch: reload complete", "version", ver, "duration", elapsed)
}

// FileVersion returns a detector whose token changes whenever any of paths
// is created, removed, resized or touched.
func FileVersion(paths []string) ChangeDetector {
	return func(ctx context.Context) (int64, error) {
		h, _ := blake2b.New256(nil)
		for _, p := range paths {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			h.Write([]byte(p))
			h.Write([]byte{0})
			info, err := os.Stat(p)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				h.Write([]byte("-"))
			case err != nil:
				return 0, err
			default:
				h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
				h.Write([]byte{0})
				h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
			}
			h.Write([]byte{0})
		}
		sum := h.Sum(nil)
		return int64(binary.BigEndian.Uint64(sum[:8]) >> 1), nil
	}
}

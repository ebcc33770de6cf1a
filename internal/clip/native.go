package clip

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.design/x/clipboard"

	"go.klb.dev/clipvault/internal/snapshot"
)

const defaultPollInterval = 250 * time.Millisecond

// initOnce guards clipboard.Init, which must run at most once per process.
var (
	initOnce sync.Once
	initErr  error
)

// nativeDevice reads text and image representations via
// golang.design/x/clipboard. Change detection is a poll loop comparing raw
// payloads; platforms with push notification still work, they just pay the
// poll interval in latency.
type nativeDevice struct {
	watchCh chan struct{}
	done    chan struct{}

	mu       sync.Mutex
	lastText []byte
	lastImg  []byte
}

func newNative(pollInterval time.Duration) (Device, error) {
	initOnce.Do(func() { initErr = clipboard.Init() })
	if initErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, initErr)
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	d := &nativeDevice{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go d.poll(pollInterval)
	return d, nil
}

func (d *nativeDevice) Name() string { return "native" }

func (d *nativeDevice) poll(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-t.C:
			text := clipboard.Read(clipboard.FmtText)
			img := clipboard.Read(clipboard.FmtImage)
			d.mu.Lock()
			changed := !bytes.Equal(text, d.lastText) || !bytes.Equal(img, d.lastImg)
			if changed {
				d.lastText = text
				d.lastImg = img
			}
			d.mu.Unlock()
			if changed {
				select {
				case d.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (d *nativeDevice) Read() (map[snapshot.Kind][]byte, error) {
	reps := make(map[snapshot.Kind][]byte, 2)
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		reps[snapshot.KindText] = text
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		reps[snapshot.KindImage] = img
	}
	return reps, nil
}

func (d *nativeDevice) Write(reps map[snapshot.Kind][]byte) error {
	wrote := false
	for k, data := range reps {
		switch k {
		case snapshot.KindText:
			clipboard.Write(clipboard.FmtText, data)
			wrote = true
		case snapshot.KindImage:
			clipboard.Write(clipboard.FmtImage, data)
			wrote = true
		default:
			// The backend cannot offer this format natively; the caller
			// already wrote the text projection when one exists.
			slog.Debug("native backend skipping unsupported kind", "kind", k)
		}
	}
	if !wrote {
		return fmt.Errorf("no representation writable by %s backend", d.Name())
	}
	// Refresh the poll baseline so our own write does not double-signal.
	text := clipboard.Read(clipboard.FmtText)
	img := clipboard.Read(clipboard.FmtImage)
	d.mu.Lock()
	d.lastText = text
	d.lastImg = img
	d.mu.Unlock()
	return nil
}

func (d *nativeDevice) Watch() <-chan struct{} { return d.watchCh }
func (d *nativeDevice) Close()                { close(d.done) }

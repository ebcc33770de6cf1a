package clip

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"go.klb.dev/clipvault/internal/snapshot"
)

// cmdlineDevice is a text-only fallback that shells out through
// atotto/clipboard (xclip/xsel/pbcopy/...). Used when the native backend
// cannot initialise, typically over SSH with X forwarding or on systems
// without cgo support.
type cmdlineDevice struct {
	watchCh chan struct{}
	done    chan struct{}

	mu   sync.Mutex
	last string
}

func newCmdline(pollInterval time.Duration) (Device, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("%w: no clipboard helper found", ErrUnavailable)
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	d := &cmdlineDevice{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go d.poll(pollInterval)
	return d, nil
}

func (d *cmdlineDevice) Name() string { return "cmdline (text only)" }

func (d *cmdlineDevice) poll(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-t.C:
			text, err := clipboard.ReadAll()
			if err != nil {
				continue
			}
			d.mu.Lock()
			changed := text != d.last
			if changed {
				d.last = text
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

func (d *cmdlineDevice) Read() (map[snapshot.Kind][]byte, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	if text == "" {
		return nil, nil
	}
	return map[snapshot.Kind][]byte{snapshot.KindText: []byte(text)}, nil
}

func (d *cmdlineDevice) Write(reps map[snapshot.Kind][]byte) error {
	text, ok := reps[snapshot.KindText]
	if !ok {
		return fmt.Errorf("no representation writable by %s backend", d.Name())
	}
	if err := clipboard.WriteAll(string(text)); err != nil {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	d.mu.Lock()
	d.last = string(text)
	d.mu.Unlock()
	return nil
}

func (d *cmdlineDevice) Watch() <-chan struct{} { return d.watchCh }
func (d *cmdlineDevice) Close()                { close(d.done) }

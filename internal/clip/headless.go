package clip

import "go.klb.dev/clipvault/internal/snapshot"

// headlessDevice is a no-op clipboard for environments without any display
// server (containers, CI). It never signals changes and discards writes.
type headlessDevice struct {
	watchCh chan struct{}
}

func newHeadless() Device {
	return &headlessDevice{watchCh: make(chan struct{})}
}

func (d *headlessDevice) Name() string                            { return "headless (no-op)" }
func (d *headlessDevice) Read() (map[snapshot.Kind][]byte, error) { return nil, nil }
func (d *headlessDevice) Write(_ map[snapshot.Kind][]byte) error  { return nil }
func (d *headlessDevice) Watch() <-chan struct{}                  { return d.watchCh }
func (d *headlessDevice) Close()                                  {}

//go:build !windows

package ipc

import (
	"net"
	"os"
	"path/filepath"
)

func socketPath() string {
	if s := os.Getenv("CLIPVAULT_SOCKET"); s != "" {
		return s
	}
	// Linux: prefer XDG_RUNTIME_DIR (per-user, cleaned on logout).
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipvault.sock")
	}
	// macOS / fallback
	return filepath.Join(os.TempDir(), "clipvault.sock")
}

func listenIPC(path string) (net.Listener, error) {
	// Remove a stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

func dialIPC(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}

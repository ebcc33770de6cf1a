// Package ipc provides the local control channel between the clipvault
// daemon and its CLI tools (list, restore, status, ...). On Unix it is a
// socket in the user's runtime directory; on Windows a named pipe. The
// channel carries the newline-delimited JSON protocol from
// internal/message — no auth, the endpoint is owner-restricted by the OS.
package ipc

import "net"

// SocketPath returns the platform-appropriate endpoint, honouring the
// CLIPVAULT_SOCKET override.
func SocketPath() string {
	return socketPath()
}

// IsRunning reports whether a clipvault daemon appears to be listening.
// A cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates the IPC listener, removing any stale endpoint left by a
// crashed run first.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to the daemon's IPC endpoint.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}

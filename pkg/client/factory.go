package client

import (
	"net"
	"os"
	"time"

	"github.com/grovetools/fleet/config"
)

// New returns a Client that uses the fleet server when its socket is live,
// otherwise falls back to in-process discovery.
//
// This implements the transparent server pattern: callers don't need to
// know whether the server is running. The same API works in both modes.
func New(cfg *config.Config) (Client, error) {
	socketPath := cfg.SocketPath()
	if SocketAlive(socketPath) {
		if remote, err := NewRemote(socketPath); err == nil {
			return remote, nil
		}
	}
	return NewLocal(cfg)
}

// SocketAlive reports whether something accepts connections on the socket.
func SocketAlive(socketPath string) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	conn, err := net.DialTimeout("unix", socketPath, 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

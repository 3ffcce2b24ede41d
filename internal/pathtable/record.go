// Package pathtable implements the concurrent path table shared by the
// client and server routers: a mapping from path identity (interface name
// on the client, observed source address on the server) to a path record
// tracking the socket, addresses and liveness of one egress path.
package pathtable

import (
	"net"
	"sync"
	"time"
)

// Record is one entry in a Table. A Record is created once and lives until
// it is removed from its owning Table; removal closes the socket if the
// record owns it.
//
// ID, Socket, LocalAddr and RemoteAddr are set at construction and never
// change afterwards — only the mutex-guarded fields below may mutate over
// the record's lifetime.
type Record struct {
	ID         string
	Socket     *net.UDPConn
	LocalAddr  *net.UDPAddr
	RemoteAddr *net.UDPAddr

	// ownsSocket is true for client paths, which each bind a dedicated
	// per-interface socket, and false for server paths, which all share
	// the single client-facing socket. Remove only closes owned sockets.
	ownsSocket bool

	mu                 sync.Mutex
	lastReceivedAt     time.Time
	totalReceivedBytes uint64
	closing            bool
}

// NewRecord constructs a Record with lastReceivedAt set to now.
func NewRecord(id string, socket *net.UDPConn, local, remote *net.UDPAddr, ownsSocket bool) *Record {
	return &Record{
		ID:             id,
		Socket:         socket,
		LocalAddr:      local,
		RemoteAddr:     remote,
		ownsSocket:     ownsSocket,
		lastReceivedAt: time.Now(),
	}
}

// Touch records a successful receive of n bytes at the current time.
func (r *Record) Touch(n int) {
	r.mu.Lock()
	r.lastReceivedAt = time.Now()
	r.totalReceivedBytes += uint64(n)
	r.mu.Unlock()
}

// LastReceivedAt returns the timestamp of the most recent successful receive.
func (r *Record) LastReceivedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReceivedAt
}

// TotalReceivedBytes returns the cumulative byte count received on this path.
func (r *Record) TotalReceivedBytes() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalReceivedBytes
}

// MarkClosing sets the closing flag. Once set it is never cleared; the
// record is logically dead and awaits removal by the next poll/sweep.
func (r *Record) MarkClosing() {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()
}

// IsClosing reports whether MarkClosing has been called.
func (r *Record) IsClosing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closing
}

// close releases the record's socket, if owned. Safe to call once, from
// Table.Remove only.
func (r *Record) close() error {
	if r.ownsSocket && r.Socket != nil {
		return r.Socket.Close()
	}
	return nil
}

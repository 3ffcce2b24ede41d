package clientrouter

import (
	"net"
	"sync"
)

// peerCell holds the most recently observed address of the local VPN
// daemon. Written once per tunnel datagram by tunnel ingress; read on every
// path reply by every path-ingress reader. nil until the first datagram is
// observed — readers treat nil as "no peer yet, drop silently" rather than
// sending to the unspecified address (spec §3, §9 Design Notes).
type peerCell struct {
	mu   sync.Mutex
	addr *net.UDPAddr
}

func (c *peerCell) set(addr *net.UDPAddr) {
	c.mu.Lock()
	c.addr = addr
	c.mu.Unlock()
}

func (c *peerCell) get() *net.UDPAddr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

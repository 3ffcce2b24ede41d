// Package netiface enumerates local network interfaces and selects the
// eligible IPv4 address each one contributes to the client's path table,
// per the rules in spec §4.2.
package netiface

import "net"

// Interface describes one local network interface as discovered by a
// Lister, along with its chosen eligible address (nil if it has none).
type Interface struct {
	Name string
	Addr net.IP
}

// Lister enumerates local network interfaces. The production implementation
// (Linux-only, netiface_linux.go) is backed by netlink; tests inject a fake
// that returns a fixed set of interfaces without touching the host's real
// NICs.
type Lister interface {
	List() ([]Interface, error)
}

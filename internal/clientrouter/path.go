package clientrouter

import (
	"context"
	"fmt"
	"net"
)

// dialDestination resolves the configured destination host:port via DNS and
// takes the first returned address (spec §4.3 step 1). Resolution is
// repeated on every path creation, matching the spec's "re-resolved each
// time a path appears."
func dialDestination(ctx context.Context, dstAddr string) (*net.UDPAddr, error) {
	host, port, err := net.SplitHostPort(dstAddr)
	if err != nil {
		return nil, fmt.Errorf("clientrouter: split destination %q: %w", dstAddr, err)
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("clientrouter: resolve %q: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("clientrouter: resolve %q: no addresses returned", host)
	}

	portNum, err := net.LookupPort("udp", port)
	if err != nil {
		return nil, fmt.Errorf("clientrouter: parse destination port %q: %w", port, err)
	}

	return &net.UDPAddr{IP: ips[0].IP, Port: portNum}, nil
}

//go:build linux

package netiface

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// NetlinkLister lists interfaces using Linux netlink, grounded on the
// teacher's internal/wireguard.NetlinkController, which already uses
// vishvananda/netlink for all link-level introspection on this platform.
type NetlinkLister struct{}

// NewNetlinkLister returns a Lister backed by netlink.
func NewNetlinkLister() *NetlinkLister {
	return &NetlinkLister{}
}

// List enumerates every interface netlink knows about and attaches the
// eligible IPv4 address selected from its address list, if any.
func (NetlinkLister) List() ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("netiface: list links: %w", err)
	}

	out := make([]Interface, 0, len(links))
	for _, link := range links {
		name := link.Attrs().Name

		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			return nil, fmt.Errorf("netiface: list addrs for %s: %w", name, err)
		}

		ips := make([]net.IP, 0, len(addrs))
		for _, a := range addrs {
			ips = append(ips, a.IP)
		}

		iface := Interface{Name: name}
		if ip, ok := SelectEligibleAddress(ips); ok {
			iface.Addr = ip
		}
		out = append(out, iface)
	}

	return out, nil
}

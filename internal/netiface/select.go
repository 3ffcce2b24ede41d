package netiface

import "net"

// SelectEligibleAddress picks the single eligible IPv4 address for an
// interface out of its full address list, applying the per-address rule
// from spec §4.2 in list order: private (RFC1918), loopback (127/8) and
// link-local (169.254/16) addresses are all accepted immediately; a
// multicast address is rejected and the scan continues to the next
// address; any other IPv4 address is accepted; IPv6 addresses are always
// skipped. It returns ok=false if no address in the list is eligible.
func SelectEligibleAddress(addrs []net.IP) (ip net.IP, ok bool) {
	for _, addr := range addrs {
		if v4, eligible := eligibleV4(addr); eligible {
			return v4, true
		}
	}
	return nil, false
}

func eligibleV4(addr net.IP) (net.IP, bool) {
	v4 := addr.To4()
	if v4 == nil {
		// Either an IPv6 address, or an IPv4-mapped form we don't
		// recognize; IPv6 is intentionally unsupported (spec §9).
		return nil, false
	}
	switch {
	case v4.IsPrivate():
		return v4, true
	case v4.IsLoopback():
		return v4, true
	case v4.IsLinkLocalUnicast():
		return v4, true
	case v4.IsMulticast():
		return nil, false
	default:
		return v4, true
	}
}

//go:build linux

package netiface

import "testing"

// Compile-time check that NetlinkLister implements Lister.
var _ Lister = (*NetlinkLister)(nil)

func TestNetlinkLister_List(t *testing.T) {
	lister := NewNetlinkLister()
	ifaces, err := lister.List()
	if err != nil {
		t.Skipf("skipping: netlink unavailable in this environment: %v", err)
	}

	// The loopback interface is present on every Linux host and always
	// carries an eligible (loopback) address.
	found := false
	for _, iface := range ifaces {
		if iface.Name == "lo" {
			found = true
			if iface.Addr == nil {
				t.Errorf("expected lo to have an eligible address")
			}
		}
	}
	if !found {
		t.Errorf("expected loopback interface to be present")
	}
}

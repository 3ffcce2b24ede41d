//go:build linux

package clientrouter

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// bindToDeviceControl returns a net.ListenConfig.Control callback that binds
// the socket to ifaceName at the OS level via SO_BINDTODEVICE, grounded on
// the teacher's internal/nodeapi/auth_unix.go raw.Control pattern for
// socket-level options.
func bindToDeviceControl(ifaceName string) func(network, address string, c syscall.RawConn) error {
	return func(_, _ string, c syscall.RawConn) error {
		var opErr error
		err := c.Control(func(fd uintptr) {
			opErr = unix.BindToDevice(int(fd), ifaceName)
		})
		if err != nil {
			return fmt.Errorf("clientrouter: bind to device %s: control: %w", ifaceName, err)
		}
		return opErr
	}
}

// bindEgressSocket opens a UDP socket bound to sourceIP:0 and, if ifaceName
// is non-empty, binds it to that interface (spec §4.3 steps 2–3).
func bindEgressSocket(ctx context.Context, sourceIP net.IP, ifaceName string) (*net.UDPConn, error) {
	lc := net.ListenConfig{}
	if ifaceName != "" {
		lc.Control = bindToDeviceControl(ifaceName)
	}

	pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort(sourceIP.String(), "0"))
	if err != nil {
		return nil, fmt.Errorf("clientrouter: bind %s on %s: %w", sourceIP, ifaceName, err)
	}

	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("clientrouter: bind %s on %s: unexpected conn type %T", sourceIP, ifaceName, pc)
	}
	return conn, nil
}

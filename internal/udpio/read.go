// Package udpio provides a context-cancellable blocking read over
// *net.UDPConn, since net.Conn has no native context-aware read.
package udpio

import (
	"context"
	"net"
	"time"
)

// pastDeadline is used to force a blocked Read call to return immediately.
var pastDeadline = time.Unix(0, 1)

// ReadFromUDP performs a blocking read on conn that is preemptible by ctx
// cancellation. Cancellation is implemented by racing a companion goroutine
// that forces the read to return early via SetReadDeadline, mirroring the
// cancellable-read shape used for streaming reads elsewhere in the stack.
// When the read is interrupted by ctx, the returned error is ctx.Err().
func ReadFromUDP(ctx context.Context, conn *net.UDPConn, buf []byte) (int, *net.UDPAddr, error) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(pastDeadline)
		case <-done:
		}
	}()

	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil && ctx.Err() != nil {
		return n, addr, ctx.Err()
	}
	return n, addr, err
}

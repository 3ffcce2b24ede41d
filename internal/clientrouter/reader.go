package clientrouter

import (
	"context"

	"github.com/lthau91/engarde/internal/udpio"
)

// datagramBufferSize is the fixed receive buffer size for every client-side
// reader, tunnel ingress and path ingress alike (the server package defines
// its own equal constant; spec §6 wire protocol: 1500-byte Ethernet MTU,
// oversized datagrams truncated by the fixed-size buffer).
const datagramBufferSize = 1500

// runPathReader implements spec §4.4: read replies from a path's egress
// socket and forward each one to the currently remembered VPN peer. The
// reader's lifetime is bound to the record's presence in the table — it
// looks up the record at the top of every iteration and exits as soon as
// the record is gone (spec §9 Design Notes, "per-path reader lifecycle").
func (s *Service) runPathReader(ctx context.Context, identity string) {
	buf := make([]byte, datagramBufferSize)

	for {
		rec, ok := s.table.Get(identity)
		if !ok {
			return
		}
		if rec.IsClosing() {
			return
		}

		n, _, err := udpio.ReadFromUDP(ctx, rec.Socket, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			rec.MarkClosing()
			s.logger.Warn("path read failed, marking closing",
				"component", "clientrouter", "interface", identity, "error", err)
			return
		}

		rec.Touch(n)

		peer := s.peer.get()
		if peer == nil {
			continue
		}
		if _, err := s.tunnelConn.WriteToUDP(buf[:n], peer); err != nil {
			// Preserve log-and-continue per spec §9 Open Question: a failed
			// send to the VPN peer does not tear down the path.
			s.logger.Warn("send to VPN peer failed",
				"component", "clientrouter", "interface", identity, "error", err)
		}
	}
}

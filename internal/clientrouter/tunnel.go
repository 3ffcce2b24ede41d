package clientrouter

import (
	"context"
	"sync"

	"github.com/lthau91/engarde/internal/udpio"
)

// runTunnelIngress implements spec §4.5: read from the local VPN-facing
// socket, remember the peer address, and fan the datagram out to every live
// path.
func (s *Service) runTunnelIngress(ctx context.Context) error {
	buf := make([]byte, datagramBufferSize)

	for {
		n, addr, err := udpio.ReadFromUDP(ctx, s.tunnelConn, buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("tunnel read failed", "component", "clientrouter", "error", err)
			continue
		}

		s.peer.set(addr)
		s.fanOut(buf[:n])
	}
}

// fanOut implements spec §4.5's fan-out: concurrent sends across all live
// paths, collecting failures into a drop list applied after the iteration
// completes rather than holding the table's write lock across sends.
func (s *Service) fanOut(payload []byte) {
	records := s.table.Snapshot()

	var (
		mu       sync.Mutex
		dropList []string
		wg       sync.WaitGroup
	)

	for _, rec := range records {
		rec := rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rec.Socket.WriteToUDP(payload, rec.RemoteAddr); err != nil {
				s.logger.Warn("fan-out send failed", "component", "clientrouter", "interface", rec.ID, "error", err)
				mu.Lock()
				dropList = append(dropList, rec.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, id := range dropList {
		if err := s.table.Remove(id); err != nil {
			s.logger.Warn("failed to remove path after send failure", "component", "clientrouter", "interface", id, "error", err)
		}
	}
}

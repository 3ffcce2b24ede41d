package serverrouter

import (
	"context"
	"sync"
	"time"

	"github.com/lthau91/engarde/internal/udpio"
)

// runTunnelIngress implements spec §4.7: read from the upstream VPN socket
// and fan the datagram out to every live client address, dropping clients
// that have gone silent beyond the client timeout or whose send failed.
func (s *Service) runTunnelIngress(ctx context.Context) error {
	buf := make([]byte, datagramBufferSize)

	for {
		n, _, err := udpio.ReadFromUDP(ctx, s.upstreamConn, buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("upstream read failed", "component", "serverrouter", "error", err)
			continue
		}

		s.fanOut(buf[:n])
	}
}

// fanOut implements spec §4.7: an inline timeout check ahead of each send,
// plus per-path send failures, both feeding the same drop list applied
// after the iteration.
func (s *Service) fanOut(payload []byte) {
	now := time.Now()
	timeout := s.cfg.ClientTimeoutDuration()
	records := s.table.Snapshot()

	var (
		mu       sync.Mutex
		dropList []string
		wg       sync.WaitGroup
	)

	for _, rec := range records {
		if now.Sub(rec.LastReceivedAt()) > timeout {
			dropList = append(dropList, rec.ID)
			continue
		}

		rec := rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.clientConn.WriteToUDP(payload, rec.RemoteAddr); err != nil {
				s.logger.Warn("fan-out send failed", "component", "serverrouter", "client", rec.ID, "error", err)
				mu.Lock()
				dropList = append(dropList, rec.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, id := range dropList {
		if err := s.table.Remove(id); err != nil {
			s.logger.Warn("failed to remove client path", "component", "serverrouter", "client", id, "error", err)
			continue
		}
		s.logger.Info("client removed", "component", "serverrouter", "client", id)
	}
}

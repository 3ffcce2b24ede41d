package serverrouter

import (
	"context"
	"net"

	"github.com/lthau91/engarde/internal/pathtable"
	"github.com/lthau91/engarde/internal/udpio"
)

// runClientIngress implements spec §4.6: accept datagrams from any client
// source address, upsert its path record, and forward upstream. No per-path
// socket is opened — the shared client-facing socket is reused for sending.
func (s *Service) runClientIngress(ctx context.Context) error {
	buf := make([]byte, datagramBufferSize)

	for {
		n, addr, err := udpio.ReadFromUDP(ctx, s.clientConn, buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("client ingress read failed", "component", "serverrouter", "error", err)
			continue
		}

		s.upsertPath(addr, n)

		if _, err := s.upstreamConn.WriteToUDP(buf[:n], s.upstreamAddr); err != nil {
			s.logger.Warn("forward to upstream failed", "component", "serverrouter", "error", err)
		}
	}
}

// upsertPath implements spec §4.6's upsert: update an existing record's
// accounting, or create a new one seeded with this datagram.
func (s *Service) upsertPath(addr *net.UDPAddr, n int) {
	id := addr.String()

	if rec, ok := s.table.Get(id); ok {
		rec.Touch(n)
		return
	}

	rec := pathtable.NewRecord(id, s.clientConn, nil, addr, false)
	stored, inserted := s.table.InsertIfAbsent(rec)
	stored.Touch(n)
	if inserted {
		s.logger.Info("client connected", "component", "serverrouter", "client", id)
	}
}

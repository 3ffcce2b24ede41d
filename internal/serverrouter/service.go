// Package serverrouter implements the server-side fan-out/fan-in datagram
// router: client ingress, tunnel ingress, the expiry sweeper, and the
// lifecycle controller tying them together (spec §2, §4.6-§4.9).
package serverrouter

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/lthau91/engarde/internal/config"
	"github.com/lthau91/engarde/internal/pathtable"
)

// datagramBufferSize is the fixed receive buffer size for every reader
// (spec §6 wire protocol).
const datagramBufferSize = 1500

// Service is the server-side lifecycle controller. It owns the
// client-facing socket (shared by every path record), the upstream VPN
// socket, and the path table, and runs client ingress, tunnel ingress and
// the expiry sweeper as top-level activities (spec §4.9).
type Service struct {
	cfg    *config.Server
	logger *slog.Logger

	table *pathtable.Table

	clientConn   *net.UDPConn
	upstreamConn *net.UDPConn
	upstreamAddr *net.UDPAddr

	wg sync.WaitGroup
}

// NewService constructs a server Service.
func NewService(cfg *config.Server, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
		table:  pathtable.New(),
	}
}

// Run binds the client-facing and upstream sockets and runs client ingress,
// tunnel ingress and the sweeper until ctx is cancelled. Unlike the client,
// a terminated activity is logged as a warning and does not itself stop the
// server: the remaining activities keep serving (spec §4.9, §7).
func (s *Service) Run(ctx context.Context) error {
	clientAddr, err := net.ResolveUDPAddr("udp4", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("serverrouter: resolve listen address: %w", err)
	}
	clientConn, err := net.ListenUDP("udp4", clientAddr)
	if err != nil {
		return fmt.Errorf("serverrouter: bind client-facing socket: %w", err)
	}
	s.clientConn = clientConn
	defer clientConn.Close()

	upstreamAddr, err := net.ResolveUDPAddr("udp4", s.cfg.DstAddr)
	if err != nil {
		return fmt.Errorf("serverrouter: resolve upstream address: %w", err)
	}
	s.upstreamAddr = upstreamAddr

	upstreamConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(0, 0, 0, 0)})
	if err != nil {
		return fmt.Errorf("serverrouter: bind upstream socket: %w", err)
	}
	s.upstreamConn = upstreamConn
	defer upstreamConn.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	activities := []func(context.Context) error{
		s.runClientIngress,
		s.runTunnelIngress,
		s.runSweeper,
	}
	errCh := make(chan error, len(activities))

	s.wg.Add(len(activities))
	for _, activity := range activities {
		activity := activity
		go func() {
			defer s.wg.Done()
			errCh <- activity(runCtx)
		}()
	}

	var result error
loop:
	for {
		select {
		case <-ctx.Done():
			result = ctx.Err()
			break loop
		case activityErr := <-errCh:
			if activityErr != nil {
				s.logger.Warn("top-level activity terminated, continuing",
					"component", "serverrouter", "error", activityErr)
			}
		}
	}

	cancel()
	s.wg.Wait()

	for _, rec := range s.table.Snapshot() {
		_ = s.table.Remove(rec.ID)
	}

	return result
}

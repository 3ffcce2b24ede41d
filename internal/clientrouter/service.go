// Package clientrouter implements the client-side fan-out/fan-in datagram
// router: the interface poller, path-ingress readers, tunnel ingress, and
// the lifecycle controller tying them together (spec §2, §4.2-§4.5, §4.9).
package clientrouter

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/lthau91/engarde/internal/config"
	"github.com/lthau91/engarde/internal/netiface"
	"github.com/lthau91/engarde/internal/pathtable"
)

// Service is the client-side lifecycle controller. It owns the VPN-facing
// tunnel socket, the path table and the shared VPN-peer cell, and runs the
// poller and tunnel ingress as top-level activities (spec §4.9).
type Service struct {
	cfg    *config.Client
	lister netiface.Lister
	logger *slog.Logger

	table *pathtable.Table
	peer  *peerCell

	tunnelConn *net.UDPConn

	wg sync.WaitGroup
}

// NewService constructs a client Service. lister supplies interface
// enumeration for the poller; production callers pass
// netiface.NewNetlinkLister(), tests inject a fake implementation.
func NewService(cfg *config.Client, lister netiface.Lister, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		lister: lister,
		logger: logger,
		table:  pathtable.New(),
		peer:   &peerCell{},
	}
}

// Run binds the tunnel socket and runs the poller and tunnel ingress until
// ctx is cancelled or either top-level activity terminates — on the client,
// a terminated activity triggers full shutdown (spec §4.9).
func (s *Service) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("clientrouter: resolve listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("clientrouter: bind tunnel socket: %w", err)
	}
	s.tunnelConn = conn
	defer conn.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		errCh <- s.runPoller(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		errCh <- s.runTunnelIngress(runCtx)
	}()

	var result error
	select {
	case <-ctx.Done():
		result = ctx.Err()
	case activityErr := <-errCh:
		if activityErr != nil {
			s.logger.Error("top-level activity terminated, shutting down",
				"component", "clientrouter", "error", activityErr)
			result = activityErr
		}
	}

	cancel()
	s.wg.Wait()

	for _, rec := range s.table.Snapshot() {
		_ = s.table.Remove(rec.ID)
	}

	return result
}

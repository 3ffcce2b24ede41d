package clientrouter

import (
	"context"
	"net"
	"time"
)

// pollInterval is the interface poller's wall-clock cadence (spec §4.2).
const pollInterval = 1 * time.Second

// runPoller implements spec §4.2: every second, enumerate local network
// interfaces and reconcile the path table against the current set.
func (s *Service) runPoller(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	s.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

// reconcile runs the six-step reconciliation from spec §4.2.
func (s *Service) reconcile(ctx context.Context) {
	ifaces, err := s.lister.List()
	if err != nil {
		s.logger.Warn("interface enumeration failed", "component", "clientrouter", "error", err)
		return
	}

	excluded := s.cfg.ExcludedSet()

	// current holds only interfaces that are not excluded and have an
	// eligible address; everything else is implicitly "should not have a
	// path" and is handled by the removal loop below (steps 1-3).
	current := make(map[string]net.IP, len(ifaces))
	for _, iface := range ifaces {
		if iface.Addr == nil {
			continue
		}
		if _, isExcluded := excluded[iface.Name]; isExcluded {
			continue
		}
		current[iface.Name] = iface.Addr
	}

	var dropList []string
	for _, rec := range s.table.Snapshot() {
		addr, stillEligible := current[rec.ID]
		switch {
		case !stillEligible:
			// Covers exclusion, interface disappearance, and loss of an
			// eligible address in one check (steps 1-3).
			dropList = append(dropList, rec.ID)
		case rec.IsClosing():
			// The path's reader failed and marked it closing; remove it
			// here so step 6 rebuilds it on the same interface.
			dropList = append(dropList, rec.ID)
		case !addr.Equal(rec.LocalAddr.IP):
			// Step 4: address changed, rebuild rather than mutate.
			dropList = append(dropList, rec.ID)
		}
	}

	// Step 5.
	for _, id := range dropList {
		if err := s.table.Remove(id); err != nil {
			s.logger.Warn("failed to remove stale path", "component", "clientrouter", "interface", id, "error", err)
			continue
		}
		s.logger.Info("path removed", "component", "clientrouter", "interface", id)
	}

	// Step 6.
	for name, addr := range current {
		if s.table.Has(name) {
			continue
		}
		s.createPath(ctx, name, addr)
	}
}

package clientrouter

import (
	"context"
	"fmt"
	"net"

	"github.com/lthau91/engarde/internal/pathtable"
)

// DebugPanicOnDuplicatePath causes createPath to panic instead of logging
// when the path table already holds a record for the interface. Spec §4.3
// step 4 calls this a programming error that "must be treated as fatal in
// debug builds". It defaults to false, in which case the duplicate is
// logged at ERROR and skipped; nothing in this repository sets it to true.
var DebugPanicOnDuplicatePath = false

// createPath implements spec §4.3: resolve the destination, bind an egress
// socket to the interface, insert the path record, and spawn its reader.
// Failure of any step is logged and the poller continues; no retry is
// scheduled beyond the next one-second poll.
func (s *Service) createPath(ctx context.Context, ifaceName string, sourceIP net.IP) {
	dst, err := dialDestination(ctx, s.cfg.DstAddr)
	if err != nil {
		s.logger.Warn("path creation failed: resolve destination",
			"component", "clientrouter", "interface", ifaceName, "error", err)
		return
	}

	conn, err := bindEgressSocket(ctx, sourceIP, ifaceName)
	if err != nil {
		s.logger.Warn("path creation failed: bind socket",
			"component", "clientrouter", "interface", ifaceName, "error", err)
		return
	}

	local, _ := conn.LocalAddr().(*net.UDPAddr)
	record := pathtable.NewRecord(ifaceName, conn, local, dst, true)

	if _, inserted := s.table.InsertIfAbsent(record); !inserted {
		conn.Close()
		if DebugPanicOnDuplicatePath {
			panic(fmt.Sprintf("clientrouter: duplicate path creation for interface %q", ifaceName))
		}
		s.logger.Error("duplicate path creation attempted", "component", "clientrouter", "interface", ifaceName)
		return
	}

	s.logger.Info("path added", "component", "clientrouter", "interface", ifaceName, "local", local, "remote", dst)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPathReader(ctx, ifaceName)
	}()
}

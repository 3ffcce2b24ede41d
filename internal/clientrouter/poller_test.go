package clientrouter

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lthau91/engarde/internal/config"
	"github.com/lthau91/engarde/internal/netiface"
	"github.com/lthau91/engarde/internal/pathtable"
)

// fakeLister is a test-only netiface.Lister backed by a settable slice,
// grounded on the teacher's pattern of injecting fakes for components that
// would otherwise depend on real host state (controller_linux_test.go).
type fakeLister struct {
	mu     sync.Mutex
	ifaces []netiface.Interface
}

func (f *fakeLister) set(ifaces []netiface.Interface) {
	f.mu.Lock()
	f.ifaces = ifaces
	f.mu.Unlock()
}

func (f *fakeLister) List() ([]netiface.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]netiface.Interface, len(f.ifaces))
	copy(out, f.ifaces)
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestService(t *testing.T, lister netiface.Lister) *Service {
	t.Helper()
	cfg := &config.Client{
		ListenAddr: "127.0.0.1:0",
		DstAddr:    "127.0.0.1:0",
	}
	s := &Service{
		cfg:    cfg,
		lister: lister,
		logger: discardLogger(),
		table:  pathtable.New(),
		peer:   &peerCell{},
	}
	// Removing every remaining path closes its socket, which ends any reader
	// createPath spawned; waiting on wg keeps goleak.VerifyTestMain clean.
	t.Cleanup(func() {
		for _, rec := range s.table.Snapshot() {
			_ = s.table.Remove(rec.ID)
		}
		s.wg.Wait()
	})
	return s
}

// skipUnlessCanBindToDevice skips the calling test when SO_BINDTODEVICE is
// unavailable (e.g. missing CAP_NET_RAW in a sandboxed environment),
// mirroring the teacher's privilege-gated test skip pattern
// (controller_linux_test.go).
func skipUnlessCanBindToDevice(t *testing.T) {
	t.Helper()
	conn, err := bindEgressSocket(context.Background(), net.IPv4(127, 0, 0, 1), "lo")
	if err != nil {
		t.Skipf("skipping: SO_BINDTODEVICE unavailable in this environment: %v", err)
	}
	conn.Close()
}

func TestReconcile_AddsNewEligibleInterface(t *testing.T) {
	skipUnlessCanBindToDevice(t)

	lister := &fakeLister{}
	lister.set([]netiface.Interface{{Name: "lo", Addr: net.IPv4(127, 0, 0, 1)}})

	dst := mustListenUDP(t)
	defer dst.Close()
	s := newTestService(t, lister)
	s.cfg.DstAddr = dst.LocalAddr().String()

	s.reconcile(context.Background())

	if !s.table.Has("lo") {
		t.Fatalf("expected lo path to be created")
	}
}

func TestReconcile_SkipsExcludedInterface(t *testing.T) {
	skipUnlessCanBindToDevice(t)

	lister := &fakeLister{}
	lister.set([]netiface.Interface{{Name: "lo", Addr: net.IPv4(127, 0, 0, 1)}})

	dst := mustListenUDP(t)
	defer dst.Close()
	s := newTestService(t, lister)
	s.cfg.DstAddr = dst.LocalAddr().String()
	s.cfg.ExcludedInterfaces = []string{"lo"}

	s.reconcile(context.Background())

	if s.table.Has("lo") {
		t.Fatalf("excluded interface should never get a path")
	}
}

func TestReconcile_RemovesDisappearedInterface(t *testing.T) {
	skipUnlessCanBindToDevice(t)

	lister := &fakeLister{}
	lister.set([]netiface.Interface{{Name: "lo", Addr: net.IPv4(127, 0, 0, 1)}})

	dst := mustListenUDP(t)
	defer dst.Close()
	s := newTestService(t, lister)
	s.cfg.DstAddr = dst.LocalAddr().String()

	s.reconcile(context.Background())
	if !s.table.Has("lo") {
		t.Fatalf("expected lo path to be created")
	}

	lister.set(nil)
	s.reconcile(context.Background())

	if s.table.Has("lo") {
		t.Fatalf("expected lo path to be removed once interface disappears")
	}
}

func TestReconcile_RebuildsOnAddressChange(t *testing.T) {
	skipUnlessCanBindToDevice(t)

	lister := &fakeLister{}
	lister.set([]netiface.Interface{{Name: "lo", Addr: net.IPv4(127, 0, 0, 1)}})

	dst := mustListenUDP(t)
	defer dst.Close()
	s := newTestService(t, lister)
	s.cfg.DstAddr = dst.LocalAddr().String()

	s.reconcile(context.Background())
	rec, ok := s.table.Get("lo")
	if !ok {
		t.Fatalf("expected lo path to be created")
	}
	oldLocal := rec.LocalAddr.String()

	// 127.0.0.0/8 is entirely loopback on Linux, so this rebinds without
	// needing a real interface alias.
	lister.set([]netiface.Interface{{Name: "lo", Addr: net.IPv4(127, 0, 0, 2)}})
	s.reconcile(context.Background())

	rec2, ok := s.table.Get("lo")
	if !ok {
		t.Fatalf("expected lo path to still exist after rebuild")
	}
	if rec2.LocalAddr.String() == oldLocal {
		t.Fatalf("expected rebuilt path to bind a different local address")
	}
	if !rec2.LocalAddr.IP.Equal(net.IPv4(127, 0, 0, 2)) {
		t.Fatalf("expected rebuilt path bound to new address, got %v", rec2.LocalAddr.IP)
	}
}

func TestReconcile_InterfaceWithNoEligibleAddressGetsNoPath(t *testing.T) {
	lister := &fakeLister{}
	lister.set([]netiface.Interface{{Name: "eth0", Addr: nil}})

	dst := mustListenUDP(t)
	defer dst.Close()
	s := newTestService(t, lister)
	s.cfg.DstAddr = dst.LocalAddr().String()

	s.reconcile(context.Background())

	if s.table.Has("eth0") {
		t.Fatalf("interface with no eligible address must not get a path")
	}
}

func mustListenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	return conn
}

func TestRunPoller_StopsOnContextCancellation(t *testing.T) {
	lister := &fakeLister{}
	s := newTestService(t, lister)

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- s.runPoller(ctx)
	}()

	cancel()

	select {
	case err := <-doneCh:
		if err == nil {
			t.Fatalf("expected context error on cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runPoller did not stop after cancellation")
	}
}

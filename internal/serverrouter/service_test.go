package serverrouter

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/lthau91/engarde/internal/config"
	"github.com/lthau91/engarde/internal/pathtable"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func mustListenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, timeoutSeconds int) *Service {
	t.Helper()
	cfg := &config.Server{
		ListenAddr:    "127.0.0.1:0",
		DstAddr:       "127.0.0.1:0",
		ClientTimeout: timeoutSeconds,
	}
	return &Service{
		cfg:    cfg,
		logger: discardLogger(),
		table:  pathtable.New(),
	}
}

func TestService_Run_ShutsDownCleanlyOnContextCancellation(t *testing.T) {
	upstream := mustListenUDP(t)
	defer upstream.Close()

	cfg := &config.Server{
		ListenAddr:    "127.0.0.1:0",
		DstAddr:       upstream.LocalAddr().String(),
		ClientTimeout: 30,
	}
	svc := NewService(cfg, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- svc.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-doneCh:
		if err == nil {
			t.Fatalf("expected context error from Run")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not shut down after context cancellation")
	}
}

func TestService_Run_FailsFastOnBadListenAddr(t *testing.T) {
	cfg := &config.Server{
		ListenAddr:    "not-an-address",
		DstAddr:       "127.0.0.1:9",
		ClientTimeout: 30,
	}
	svc := NewService(cfg, discardLogger())

	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid listen address")
	}
}

func TestService_EndToEnd_ClientIngressAndFanOut(t *testing.T) {
	upstream := mustListenUDP(t)
	defer upstream.Close()

	clientConn := mustListenUDP(t)
	cfg := &config.Server{
		ListenAddr:    "127.0.0.1:0",
		DstAddr:       upstream.LocalAddr().String(),
		ClientTimeout: 30,
	}
	svc := NewService(cfg, discardLogger())
	svc.clientConn = clientConn
	svc.upstreamConn, _ = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	defer svc.upstreamConn.Close()
	svc.upstreamAddr = upstream.LocalAddr().(*net.UDPAddr)

	clientPeer := mustListenUDP(t)
	defer clientPeer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ingressDone := make(chan struct{})
	go func() {
		defer close(ingressDone)
		svc.runClientIngress(ctx)
	}()

	if _, err := clientPeer.WriteToUDP([]byte("ping"), clientConn.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatalf("WriteToUDP: %v", err)
	}

	upstream.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1500)
	n, err := upstream.Read(buf)
	if err != nil {
		t.Fatalf("expected datagram forwarded upstream: %v", err)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("got %q, want %q", buf[:n], "ping")
	}

	id := clientPeer.LocalAddr().String()
	if !svc.table.Has(id) {
		t.Fatalf("expected client path to be created for %s", id)
	}

	if _, err := upstream.WriteToUDP([]byte("pong"), svc.upstreamConn.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatalf("WriteToUDP reply: %v", err)
	}
	n2, _, err := svc.upstreamConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	svc.fanOut(buf[:n2])

	clientPeer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n3, err := clientPeer.Read(buf)
	if err != nil {
		t.Fatalf("expected fanned-out datagram at client: %v", err)
	}
	if string(buf[:n3]) != "pong" {
		t.Fatalf("got %q, want %q", buf[:n3], "pong")
	}

	cancel()
	<-ingressDone
}

package probe

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

type trackedConn struct {
	net.Conn
	closed atomic.Bool
}

func (c *trackedConn) Close() error {
	c.closed.Store(true)
	if c.Conn != nil {
		return c.Conn.Close()
	}
	return nil
}

func TestTCPProber_Connects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	p := NewTCPProber(time.Second)
	var tracked *trackedConn
	base := p.Dial
	p.Dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		c, err := base(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		tracked = &trackedConn{Conn: c}
		return tracked, nil
	}

	out := p.Probe(context.Background(), domain.Target{ID: "tcp", Kind: domain.KindTCP, Address: ln.Addr().String()})
	if !out.OK || out.Error != "" {
		t.Fatalf("want ok, got %+v", out)
	}
	if out.StatusCode != nil {
		t.Fatalf("tcp outcome must not carry a status code")
	}
	if tracked == nil || !tracked.closed.Load() {
		t.Fatalf("connection was not closed")
	}
}

func TestTCPProber_TimeoutDoesNotHang(t *testing.T) {
	p := NewTCPProber(80 * time.Millisecond)
	p.Dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	out := p.Probe(context.Background(), domain.Target{ID: "tcp", Kind: domain.KindTCP, Address: "10.255.255.1:22"})
	if out.OK {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Error != domain.TimeoutMessage || out.ErrorKind != domain.ProbeTimeout {
		t.Fatalf("want Timeout, got %q (%s)", out.Error, out.ErrorKind)
	}
	if took := time.Since(start); took > time.Second {
		t.Fatalf("probe hung for %s", took)
	}
}

func TestTCPProber_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	out := NewTCPProber(time.Second).Probe(context.Background(), domain.Target{ID: "tcp", Kind: domain.KindTCP, Address: addr})
	if out.OK || out.Error == "" || out.ErrorKind != domain.ProbeTransportError {
		t.Fatalf("want refused transport error, got %+v", out)
	}
}

func TestTCPProber_ClosesConnReturnedWithError(t *testing.T) {
	c := &trackedConn{}
	p := NewTCPProber(time.Second)
	p.Dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return c, errors.New("handshake failed")
	}
	out := p.Probe(context.Background(), domain.Target{ID: "tcp", Kind: domain.KindTCP, Address: "x:1"})
	if out.OK || out.Error != "handshake failed" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !c.closed.Load() {
		t.Fatalf("conn returned alongside an error must still be closed")
	}
}

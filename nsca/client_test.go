package nsca

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/NicolasLM/sauna/status"
)

// startFakeServer listens once, sends a zero-IV init packet, reads exactly
// one service packet, and closes. Returns its address.
func startFakeServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		init := make([]byte, InitPacketSize)
		binary.BigEndian.PutUint32(init[IVSize:], 1000)
		conn.Write(init)

		buf := make([]byte, ServicePacketSize)
		io.ReadFull(conn, buf)
	}()

	return ln.Addr().String()
}

func TestClientSendToSucceeds(t *testing.T) {
	addr := startFakeServer(t)

	c := NewClient(nil, ModeNone, nil, 2*time.Second)
	err := c.sendTo(context.Background(), addr, status.ServiceCheck{
		Timestamp: time.Now(),
		Hostname:  "host1",
		Name:      "check1",
		Status:    status.OK,
		Output:    "ok",
	})
	if err != nil {
		t.Fatalf("sendTo: %v", err)
	}
}

func TestClientSendToFailsOnClosedPort(t *testing.T) {
	// A listener bound then immediately closed frees the port but nothing
	// answers on it, so dialing should fail (connection refused).
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewClient(nil, ModeNone, nil, 1*time.Second)
	err = c.sendTo(context.Background(), addr, status.ServiceCheck{Timestamp: time.Now()})
	if err == nil {
		t.Fatal("expected send to a closed port to fail")
	}
}

// Literal scenario 6 shape: resolver returns 3 addresses, first send
// succeeds on the first address, remembered as MRU for next time.
func TestClientFailoverRemembersMRU(t *testing.T) {
	good := startFakeServer(t)

	c := NewClient([]string{"testserver"}, ModeNone, nil, 2*time.Second)
	c.addrCache.Set(context.Background(), "testserver", encodeAddrList([]string{good, "127.0.0.1:1", "127.0.0.1:2"}), addressCacheTTL)

	err := c.sendOnce(context.Background(), status.ServiceCheck{Timestamp: time.Now(), Hostname: "h", Name: "n"})
	if err != nil {
		t.Fatalf("sendOnce: %v", err)
	}

	cached, _ := c.addrCache.Get(context.Background(), "testserver")
	addrs := decodeAddrList(cached)
	if addrs[0] != good {
		t.Errorf("MRU address = %q, want %q first", addrs[0], good)
	}
}

func TestClientFailoverFallsThroughToSecondAddress(t *testing.T) {
	good := startFakeServer(t)

	c := NewClient([]string{"testserver"}, ModeNone, nil, 2*time.Second)
	// First address is unreachable (port closed), second is the real server.
	c.addrCache.Set(context.Background(), "testserver", encodeAddrList([]string{"127.0.0.1:1", good}), addressCacheTTL)

	err := c.sendOnce(context.Background(), status.ServiceCheck{Timestamp: time.Now(), Hostname: "h", Name: "n"})
	if err != nil {
		t.Fatalf("sendOnce: %v", err)
	}

	cached, _ := c.addrCache.Get(context.Background(), "testserver")
	addrs := decodeAddrList(cached)
	if addrs[0] != good {
		t.Errorf("MRU address = %q, want %q promoted to front after fallback success", addrs[0], good)
	}
}

func TestClientAllAddressesFailSurfacesError(t *testing.T) {
	c := NewClient([]string{"testserver"}, ModeNone, nil, 500*time.Millisecond)
	c.addrCache.Set(context.Background(), "testserver", encodeAddrList([]string{"127.0.0.1:1", "127.0.0.1:2"}), addressCacheTTL)

	if err := c.sendOnce(context.Background(), status.ServiceCheck{Timestamp: time.Now()}); err == nil {
		t.Fatal("expected an I/O error when every address fails")
	}
}

func TestEncodeDecodeAddrList(t *testing.T) {
	addrs := []string{"1.1.1.1:1", "2.2.2.2:2", "3.3.3.3:3"}
	got := decodeAddrList(encodeAddrList(addrs))
	if len(got) != 3 || got[0] != addrs[0] || got[2] != addrs[2] {
		t.Errorf("round trip = %v, want %v", got, addrs)
	}
}

package nsca

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/NicolasLM/sauna/cache"
	"github.com/NicolasLM/sauna/resilience"
	"github.com/NicolasLM/sauna/status"
)

const addressCacheTTL = 5 * time.Minute

// Client sends ServiceChecks to one or more NSCA servers, implementing
// registry.Sender. Host names are re-resolved periodically (see resolve)
// and the most-recently-successful address is tried first on every send.
type Client struct {
	ServerAddrs []string // host:port pairs, or bare hosts using DefaultPort
	Mode        EncryptionMode
	Key         []byte
	Timeout     time.Duration

	addrCache *cache.MemoryCache
	dialer    net.Dialer
}

// DefaultPort is the conventional NSCA daemon port.
const DefaultPort = "5667"

// NewClient builds a Client. addrs is the configured list of servers
// (host or host:port); each is resolved to its full address list lazily
// and cached for addressCacheTTL.
func NewClient(addrs []string, mode EncryptionMode, key []byte, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		ServerAddrs: addrs,
		Mode:        mode,
		Key:         key,
		Timeout:     timeout,
		addrCache:   cache.NewMemoryCache(cache.Policy{DefaultTTL: addressCacheTTL}),
	}
}

// Send implements registry.Sender: encode, encrypt, and deliver check to
// the first address (MRU) that accepts a connection, remembering it for
// next time. All configured servers are tried in order before giving up.
// A check whose hostname or service name is too long is dropped with a
// warning and nil is returned, so it is not retried.
func (c *Client) Send(check status.ServiceCheck) error {
	if _, err := (ServicePacket{Hostname: check.Hostname, Service: check.Name}).Encode(); err != nil {
		log.Printf("nsca: dropping check %q: %v", check.Name, err)
		return nil
	}
	return resilience.ExecuteWithTimeout(context.Background(), c.Timeout, func(ctx context.Context) error {
		return c.sendOnce(ctx, check)
	})
}

func (c *Client) sendOnce(ctx context.Context, check status.ServiceCheck) error {
	for _, server := range c.ServerAddrs {
		addrs, err := c.resolve(ctx, server)
		if err != nil {
			continue
		}

		for i, addr := range addrs {
			if err := c.sendTo(ctx, addr, check); err == nil {
				if i != 0 {
					c.rememberMRU(server, addr)
				}
				return nil
			}
		}
	}
	return fmt.Errorf("nsca: all configured servers unreachable")
}

func (c *Client) sendTo(ctx context.Context, addr string, check status.ServiceCheck) error {
	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	initBuf := make([]byte, InitPacketSize)
	if _, err := io.ReadFull(conn, initBuf); err != nil {
		return fmt.Errorf("nsca: reading init packet from %s: %w", addr, err)
	}
	initPkt, err := ParseInitPacket(initBuf)
	if err != nil {
		return err
	}

	pkt := ServicePacket{
		Timestamp: uint32(check.Timestamp.Unix()),
		Status:    int16(check.Status),
		Hostname:  check.Hostname,
		Service:   check.Name,
		Output:    check.Output,
	}
	encoded, err := pkt.Encode()
	if err != nil {
		return err
	}

	encoded, err = Encrypt(c.Mode, encoded, initPkt.IV, c.Key)
	if err != nil {
		return err
	}

	if _, err := conn.Write(encoded); err != nil {
		return fmt.Errorf("nsca: writing service packet to %s: %w", addr, err)
	}
	return nil
}

// resolve returns server's full address list (host:port per resolved IP),
// using the MRU-ordered, TTL-cached copy when present.
func (c *Client) resolve(ctx context.Context, server string) ([]string, error) {
	if cached, ok := c.addrCache.Get(ctx, server); ok {
		return decodeAddrList(cached), nil
	}

	host, port, err := net.SplitHostPort(server)
	if err != nil {
		host, port = server, DefaultPort
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("nsca: resolving %s: %w", server, err)
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.JoinHostPort(ip.String(), port))
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("nsca: %s resolved to no addresses", server)
	}

	c.addrCache.Set(ctx, server, encodeAddrList(addrs), addressCacheTTL)
	return addrs, nil
}

// rememberMRU moves addr to the front of server's cached address list, so
// the next send tries it first.
func (c *Client) rememberMRU(server, addr string) {
	ctx := context.Background()
	cached, ok := c.addrCache.Get(ctx, server)
	if !ok {
		return
	}
	addrs := decodeAddrList(cached)
	reordered := make([]string, 0, len(addrs))
	reordered = append(reordered, addr)
	for _, a := range addrs {
		if a != addr {
			reordered = append(reordered, a)
		}
	}
	c.addrCache.Set(ctx, server, encodeAddrList(reordered), addressCacheTTL)
}

func encodeAddrList(addrs []string) []byte {
	var buf []byte
	for i, a := range addrs {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, []byte(a)...)
	}
	return buf
}

func decodeAddrList(data []byte) []string {
	var addrs []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			addrs = append(addrs, string(data[start:i]))
			start = i + 1
		}
	}
	addrs = append(addrs, string(data[start:]))
	return addrs
}

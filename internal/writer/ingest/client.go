// internal/writer/ingest/client.go
package ingest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Prefix marks a raw-ingest status endpoint: "ingest:collector:9502".
const Prefix = "ingest:"

const defaultTimeout = 2 * time.Second

// IsIngest reports whether endpoint selects this transport.
func IsIngest(endpoint string) bool {
	return strings.HasPrefix(endpoint, Prefix)
}

// Client pushes status blocks to a raw-ingest collector.
// It holds no connection; every packet dials, writes and waits for the ack.
type Client struct {
	endpoint string
	addr     string
	timeout  time.Duration
}

func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	addr := strings.TrimPrefix(endpoint, Prefix)
	if addr == "" {
		return nil, errors.New("writer ingest: endpoint required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{endpoint: endpoint, addr: addr, timeout: timeout}, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Close() error { return nil }

// WriteRegisters stores regs in the collector's holding table at addr.
func (c *Client) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	pkt, err := Packet{Area: AreaHolding, Unit: unitID, Addr: addr, Regs: regs}.MarshalBinary()
	if err != nil {
		return err
	}
	return c.roundTrip(pkt)
}

func (c *Client) roundTrip(pkt []byte) error {
	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return fmt.Errorf("writer ingest: dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("writer ingest: deadline: %w", err)
	}
	if _, err := conn.Write(pkt); err != nil {
		return fmt.Errorf("writer ingest: write: %w", err)
	}

	var ack [1]byte
	if _, err := io.ReadFull(conn, ack[:]); err != nil {
		return fmt.Errorf("writer ingest: read status: %w", err)
	}
	return ackError(ack[0])
}

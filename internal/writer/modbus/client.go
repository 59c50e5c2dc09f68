// internal/writer/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// RTUPrefix marks a serial (RTU) endpoint: "rtu:/dev/ttyUSB1".
// Anything else is a TCP "host:port".
const RTUPrefix = "rtu:"

// handler is the part of the goburrow handlers the client drives.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// EndpointClient is a single connection to one Modbus endpoint.
// It serializes requests because it mutates SlaveId per request.
type EndpointClient struct {
	mu       sync.Mutex
	endpoint string
	handler  handler
	setUnit  func(id uint8)
	client   modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
	BaudRate int // RTU only
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	c := &EndpointClient{endpoint: cfg.Endpoint}

	if port, ok := strings.CutPrefix(cfg.Endpoint, RTUPrefix); ok {
		if port == "" {
			return nil, fmt.Errorf("writer modbus: empty serial port in %q", cfg.Endpoint)
		}
		h := modbus.NewRTUClientHandler(port)
		h.BaudRate = cfg.BaudRate
		if h.BaudRate == 0 {
			h.BaudRate = 19200
		}
		h.DataBits = 8
		h.Parity = "E"
		h.StopBits = 1
		h.Timeout = cfg.Timeout
		c.handler = h
		c.setUnit = func(id uint8) { h.SlaveId = id }
	} else {
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		c.handler = h
		c.setUnit = func(id uint8) { h.SlaveId = id }
	}

	if err := c.handler.Connect(); err != nil {
		return nil, fmt.Errorf("writer modbus: connect %s: %w", cfg.Endpoint, err)
	}
	c.client = modbus.NewClient(c.handler)
	return c, nil
}

// Endpoint returns the configured endpoint string.
func (c *EndpointClient) Endpoint() string { return c.endpoint }

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ---- writes ----

func (c *EndpointClient) WriteCoil(unitID uint8, addr uint16, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setUnit(unitID)

	var v uint16
	if on {
		v = 0xFF00
	}
	_, err := c.client.WriteSingleCoil(addr, v)
	return err
}

func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setUnit(unitID)

	qty := uint16(len(regs))
	payload := packRegisters(regs)

	_, err := c.client.WriteMultipleRegisters(addr, qty, payload)
	return err
}

// ---- reads (raw payload, no byte count) ----

func (c *EndpointClient) ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]byte, error) {
	return c.read(unitID, func() ([]byte, error) { return c.client.ReadHoldingRegisters(addr, qty) })
}

func (c *EndpointClient) ReadInputRegisters(unitID uint8, addr, qty uint16) ([]byte, error) {
	return c.read(unitID, func() ([]byte, error) { return c.client.ReadInputRegisters(addr, qty) })
}

func (c *EndpointClient) read(unitID uint8, fn func() ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setUnit(unitID)
	return fn()
}

// packRegisters lays registers out in wire order.
func packRegisters(regs []uint16) []byte {
	out := make([]byte, 0, 2*len(regs))
	for _, r := range regs {
		out = binary.BigEndian.AppendUint16(out, r)
	}
	return out
}

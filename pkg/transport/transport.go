// Package transport opens the byte stream that an xtool session writes to and reads
// from. There are exactly three kinds of transport: TCP, UDP and serial. UDP is
// recognised but always fails with toolerr.NotImplemented.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"time"

	"github.com/markmark999/xtool/pkg/toolerr"
)

// Kind is the closed set of transport backends
type Kind int

const (
	TCP Kind = iota
	UDP
	Serial
)

func (k Kind) String() string {
	switch k {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	case Serial:
		return "serial"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Spec says where to connect. Addr and Port are used by TCP and UDP, Device and
// BaudRate by Serial.
type Spec struct {
	Kind     Kind
	Addr     netip.Addr
	Port     uint16
	Device   string
	BaudRate uint32
}

func (s Spec) String() string {
	switch s.Kind {
	case Serial:
		return fmt.Sprintf("serial %s@%d", s.Device, s.BaudRate)
	default:
		return s.Kind.String() + " " + netip.AddrPortFrom(s.Addr, s.Port).String()
	}
}

// Transport is an open duplex byte stream
type Transport interface {
	io.ReadWriteCloser
	fmt.Stringer
}

// Options holds the timeouts applied when opening a transport
type Options struct {
	TCPReadTimeout time.Duration // deadline armed before every TCP read
	SerialTimeout  time.Duration // read timeout configured on the serial port
	ConnectTimeout time.Duration // zero means the dial is not time-bounded
}

// DefaultOptions returns the standard timeouts: 100ms for TCP reads, 500ms for serial
func DefaultOptions() Options {
	return Options{
		TCPReadTimeout: 100 * time.Millisecond,
		SerialTimeout:  500 * time.Millisecond,
	}
}

// Open opens the transport described by spec. The returned transport must be closed
// by the caller. No I/O of any kind happens for UDP.
func Open(ctx context.Context, spec Spec, opts Options) (Transport, error) {
	switch spec.Kind {
	case TCP:
		return openTCP(ctx, netip.AddrPortFrom(spec.Addr, spec.Port), opts)
	case Serial:
		return openSerial(spec.Device, spec.BaudRate, opts)
	case UDP:
		return nil, toolerr.New(toolerr.NotImplemented, "udp transport", nil)
	default:
		return nil, fmt.Errorf("unknown transport kind %v", spec.Kind)
	}
}

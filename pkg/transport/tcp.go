package transport

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"syscall"
	"time"

	"github.com/markmark999/xtool/pkg/toolerr"
)

// tcpTransport is a client TCP connection whose reads give up after a fixed timeout
type tcpTransport struct {
	conn        net.Conn
	readTimeout time.Duration
}

func openTCP(ctx context.Context, addr netip.AddrPort, opts Options) (Transport, error) {
	dialer := net.Dialer{Timeout: opts.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		detail := addr.String()
		if errors.Is(err, syscall.ECONNREFUSED) {
			detail = "nothing is listening on " + detail
		}
		return nil, toolerr.New(toolerr.ConnectFailed, detail, err)
	}

	return &tcpTransport{
		conn:        conn,
		readTimeout: opts.TCPReadTimeout,
	}, nil
}

// Read arms the read deadline and then reads. A deadline expiry comes back as an
// error satisfying errors.Is(err, os.ErrDeadlineExceeded).
func (t *tcpTransport) Read(buf []byte) (int, error) {
	if t.readTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return 0, err
		}
	}
	return t.conn.Read(buf)
}

func (t *tcpTransport) Write(buf []byte) (int, error) {
	return t.conn.Write(buf)
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) String() string {
	return "tcp " + t.conn.RemoteAddr().String()
}

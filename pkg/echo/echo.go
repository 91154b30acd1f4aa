// Package echo is a TCP peer that writes back whatever it receives. It gives xtool
// something to talk to when no real device is at hand.
package echo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// Server echoes every connection accepted on a listener
type Server struct {
	// Fragment, if positive, splits each echoed block into writes of at most this
	// many bytes, with Gap between them, so that the client sees several reads.
	Fragment int
	Gap      time.Duration
	Log      zerolog.Logger
}

// Serve accepts connections until ctx is cancelled or the listener fails. Each
// connection is echoed in its own goroutine.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	s.Log.Info().Str("addr", l.Addr().String()).Msg("listening for connections")
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("listener.Accept returned with error: %w", err)
		}

		s.Log.Debug().Str("peer", conn.RemoteAddr().String()).Msg("accepted a connection")
		go s.echo(conn)
	}
}

func (s *Server) echo(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 1<<16)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.Log.Debug().Int("count", n).Str("peer", conn.RemoteAddr().String()).Msg("echoing")
			if werr := s.write(conn, buf[:n]); werr != nil {
				s.Log.Warn().Err(werr).Msg("error writing echo, abandoning connection")
				return
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			s.Log.Warn().Err(err).Msg("error reading from peer, abandoning connection")
			return
		}
	}
}

func (s *Server) write(w io.Writer, b []byte) error {
	if s.Fragment <= 0 {
		_, err := w.Write(b)
		return err
	}
	for len(b) > 0 {
		n := min(s.Fragment, len(b))
		if _, err := w.Write(b[:n]); err != nil {
			return err
		}
		b = b[n:]
		if len(b) > 0 && s.Gap > 0 {
			time.Sleep(s.Gap)
		}
	}
	return nil
}

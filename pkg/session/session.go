// Package session runs one diagnostic exchange over an open transport: an optional
// single write, followed by reads until the transport reports an error or timeout.
package session

import (
	"fmt"
	"io"

	"github.com/djherbis/buffer"
	"github.com/markmark999/xtool/pkg/toolerr"
)

const (
	chunkSize = 1 << 10

	// received data beyond this stays on disk until the session ends
	memLimit  = 1 << 20
	fileChunk = 16 << 20

	// a reader returning 0, nil this many times in a row is treated as stuck
	maxEmptyReads = 100
)

// Sink receives the diagnostic events of a session
type Sink interface {
	Sent(b []byte)
	Received(b []byte)
}

// Result describes a completed session
type Result struct {
	Sent     int    // number of payload bytes written
	Received []byte // everything read, possibly empty
	Reads    int    // number of read calls made
	Stop     error  // the read error that ended the session
}

// Run writes payload (if non-nil) exactly once and then reads until the first read
// error. Read errors, timeouts included, end the session normally and are returned in
// Result.Stop. The only error returned by Run itself is toolerr.WriteFailed, in which
// case no read is attempted.
func Run(t io.ReadWriter, payload []byte, sink Sink) (*Result, error) {
	var result Result

	if payload != nil {
		n, err := t.Write(payload)
		if err == nil && n != len(payload) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return nil, toolerr.New(toolerr.WriteFailed, fmt.Sprintf("wrote %d of %d bytes", n, len(payload)), err)
		}
		result.Sent = n
		sink.Sent(payload)
	}

	received := buffer.NewUnboundedBuffer(memLimit, fileChunk)
	defer received.Reset()

	chunk := make([]byte, chunkSize)
	empty := 0
	for {
		n, err := t.Read(chunk)
		result.Reads++
		if n > 0 {
			empty = 0
			if _, werr := received.Write(chunk[:n]); werr != nil {
				result.Stop = fmt.Errorf("error buffering %d received bytes: %w", n, werr)
				break
			}
		}
		if err != nil {
			result.Stop = err
			break
		}
		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				result.Stop = io.ErrNoProgress
				break
			}
		}
	}

	// draining only fails if a spilled temp file vanished; keep whatever came back
	data, _ := io.ReadAll(received)
	if len(data) == 0 {
		data = []byte{}
	}
	result.Received = data
	sink.Received(data)

	return &result, nil
}

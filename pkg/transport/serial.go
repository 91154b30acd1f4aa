package transport

import (
	"fmt"
	"os"
	"time"

	"github.com/markmark999/xtool/pkg/toolerr"
	"go.bug.st/serial"
)

// serialPort is the subset of serial.Port that the transport needs
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// serialTransport is an open serial device
type serialTransport struct {
	port   serialPort
	device string
	baud   uint32
}

// openPort is replaced in tests
var openPort = func(device string, baud uint32) (serialPort, error) {
	return serial.Open(device, &serial.Mode{BaudRate: int(baud)})
}

func openSerial(device string, baud uint32, opts Options) (Transport, error) {
	port, err := openPort(device, baud)
	if err != nil {
		return nil, toolerr.New(toolerr.PortOpenFailed, fmt.Sprintf("%s at %d baud", device, baud), err)
	}

	if opts.SerialTimeout > 0 {
		if err := port.SetReadTimeout(opts.SerialTimeout); err != nil {
			port.Close()
			return nil, toolerr.New(toolerr.PortOpenFailed, "setting read timeout on "+device, err)
		}
	}

	return &serialTransport{port: port, device: device, baud: baud}, nil
}

// Read reads from the serial port. The serial library reports an expired read timeout
// as zero bytes with no error; here that becomes os.ErrDeadlineExceeded so that
// timeouts look the same as on TCP.
func (s *serialTransport) Read(buf []byte) (int, error) {
	n, err := s.port.Read(buf)
	if n == 0 && err == nil && len(buf) > 0 {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (s *serialTransport) Write(buf []byte) (int, error) {
	return s.port.Write(buf)
}

func (s *serialTransport) Close() error {
	return s.port.Close()
}

func (s *serialTransport) String() string {
	return fmt.Sprintf("serial %s@%d", s.device, s.baud)
}

// ListSerialPorts returns the names of the serial devices present on this machine
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}
	return ports, nil
}

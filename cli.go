package main

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/markmark999/xtool/pkg/hexbytes"
	"github.com/markmark999/xtool/pkg/toolerr"
	"github.com/markmark999/xtool/pkg/transport"
)

// Values are collected as strings and validated afterwards so that each kind of bad
// input maps onto its own failure kind.

type tcpArgs struct {
	IP   string   `arg:"-i,--ip,required" help:"IPv4 address of the peer"`
	Port string   `arg:"-p,--port,required" help:"port number"`
	Send []string `arg:"-s,--send" help:"send raw values (hex), e.g. --send 01 FF 0A"`
}

type udpArgs struct {
	IP   string   `arg:"-i,--ip,required" help:"IPv4 address of the peer"`
	Port string   `arg:"-p,--port,required" help:"port number"`
	Send []string `arg:"-s,--send" help:"send raw values (hex), e.g. --send 01 FF 0A"`
}

type serialArgs struct {
	Port     string   `arg:"-p,--port" help:"serial port name, e.g. /dev/ttyUSB0 or COM3"`
	BaudRate string   `arg:"-b,--baudrate" help:"serial baud rate"`
	Send     []string `arg:"-s,--send" help:"send raw values (hex), e.g. --send 01 FF 0A"`
	List     bool     `arg:"--list" help:"list the serial ports on this machine and exit"`
}

type cmdline struct {
	Verbose        bool          `arg:"-v,--verbose" help:"log what the tool is doing"`
	Debug          bool          `arg:"-d,--debug" help:"log everything (implies --verbose)"`
	Stderr         bool          `help:"log to stderr (default is stdout)"`
	NoColor        bool          `arg:"--no-color" help:"disable colored console output"`
	LogDir         string        `arg:"--log-dir" help:"directory for hourly log files [default: log, or $XTOOL_LOG_DIR]"`
	NoLogFile      bool          `arg:"--no-log-file" help:"do not write a log file"`
	ReadTimeout    time.Duration `arg:"--read-timeout" help:"per-read timeout [default: 100ms for tcp, 500ms for serial]"`
	ConnectTimeout time.Duration `arg:"--connect-timeout" help:"give up connecting after this long [default: no limit]"`

	TCP    *tcpArgs    `arg:"subcommand:tcp" help:"does testing for tcp"`
	UDP    *udpArgs    `arg:"subcommand:udp" help:"does testing for udp (not implemented)"`
	Serial *serialArgs `arg:"subcommand:serial" help:"does testing for serialport"`
}

func (cmdline) Version() string {
	return "xtool " + version
}

func (cmdline) Description() string {
	return "xtool opens a tcp connection or serial port, optionally sends some bytes, and logs whatever comes back"
}

// invocation is a fully validated command line
type invocation struct {
	spec       transport.Spec
	payload    []byte // nil when nothing should be sent
	opts       transport.Options
	listSerial bool
}

// checkSend looks at the raw command line for what go-arg lets through silently: a
// --send with no values, which leaves the field nil, and a repeated --send, which
// keeps only the last one
func checkSend(argv []string) error {
	seen := 0
	for i, token := range argv {
		if token == "--" {
			break
		}
		if token != "-s" && token != "--send" && !strings.HasPrefix(token, "--send=") {
			continue
		}
		seen++
		if seen > 1 {
			return toolerr.Newf(toolerr.InvalidHexByte, "--send given more than once (argument %d); list all bytes after a single --send", i+1)
		}
		if token == "-s" || token == "--send" {
			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "-") {
				return toolerr.Newf(toolerr.InvalidHexByte, "--send (argument %d) needs at least one byte", i+1)
			}
		}
	}
	return nil
}

// invocation validates the parsed arguments. argv is the raw command line the
// arguments were parsed from.
func (a *cmdline) invocation(argv []string) (*invocation, error) {
	if err := checkSend(argv); err != nil {
		return nil, err
	}

	inv := invocation{opts: transport.DefaultOptions()}
	inv.opts.ConnectTimeout = a.ConnectTimeout

	var send []string
	switch {
	case a.TCP != nil:
		addr, port, err := parseAddrPort(a.TCP.IP, a.TCP.Port)
		if err != nil {
			return nil, err
		}
		inv.spec = transport.Spec{Kind: transport.TCP, Addr: addr, Port: port}
		send = a.TCP.Send
		if a.ReadTimeout > 0 {
			inv.opts.TCPReadTimeout = a.ReadTimeout
		}
	case a.UDP != nil:
		addr, port, err := parseAddrPort(a.UDP.IP, a.UDP.Port)
		if err != nil {
			return nil, err
		}
		inv.spec = transport.Spec{Kind: transport.UDP, Addr: addr, Port: port}
		send = a.UDP.Send
	case a.Serial != nil:
		if a.Serial.List {
			inv.listSerial = true
			return &inv, nil
		}
		if a.Serial.Port == "" {
			return nil, fmt.Errorf("--port is required for serial")
		}
		baud, err := parseBaudRate(a.Serial.BaudRate)
		if err != nil {
			return nil, err
		}
		inv.spec = transport.Spec{Kind: transport.Serial, Device: a.Serial.Port, BaudRate: baud}
		send = a.Serial.Send
		if a.ReadTimeout > 0 {
			inv.opts.SerialTimeout = a.ReadTimeout
		}
	default:
		return nil, fmt.Errorf("a command is required: tcp, udp or serial")
	}

	if send != nil {
		payload, err := hexbytes.Parse(send)
		if err != nil {
			return nil, fmt.Errorf("--send: %w", err)
		}
		if len(payload) == 0 {
			return nil, toolerr.Newf(toolerr.InvalidHexByte, "--send needs at least one byte")
		}
		inv.payload = payload
	}
	return &inv, nil
}

func parseAddrPort(ip, port string) (netip.Addr, uint16, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, 0, toolerr.Newf(toolerr.InvalidAddress, "--ip %q is not an IPv4 address", ip)
	}

	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return netip.Addr{}, 0, toolerr.Newf(toolerr.InvalidPort, "--port %q is not a number between 0 and 65535", port)
	}
	return addr, uint16(p), nil
}

func parseBaudRate(s string) (uint32, error) {
	if s == "" {
		return 0, toolerr.Newf(toolerr.InvalidBaudRate, "--baudrate is required for serial")
	}
	b, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, toolerr.Newf(toolerr.InvalidBaudRate, "--baudrate %q is not an unsigned 32-bit number", s)
	}
	return uint32(b), nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/markmark999/xtool/pkg/diag"
	"github.com/markmark999/xtool/pkg/session"
	"github.com/markmark999/xtool/pkg/toolerr"
	"github.com/markmark999/xtool/pkg/transport"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

// envFile is loaded, if present, before logging is set up
const envFile = ".env"

var errorColor = color.New(color.FgRed, color.Bold)

func errorf(fmt string, parts ...interface{}) {
	if !strings.HasSuffix(fmt, "\n") {
		fmt += "\n"
	}
	errorColor.Fprintf(os.Stderr, fmt, parts...)
}

// eventSink is where a run reports what it sent and received
type eventSink interface {
	session.Sink
	Logger() *zerolog.Logger
}

// run opens the transport, performs one session on it, and closes it again. Cancelling
// ctx closes the transport, which ends a pending read and with it the session.
func run(ctx context.Context, inv *invocation, sink eventSink) error {
	log := sink.Logger()

	log.Debug().Stringer("target", inv.spec).Msg("opening transport")
	t, err := transport.Open(ctx, inv.spec, inv.opts)
	if err != nil {
		return fmt.Errorf("error opening %v: %w", inv.spec, err)
	}
	closeTransport := sync.OnceValue(t.Close)
	defer func() {
		if err := closeTransport(); err != nil {
			log.Debug().Err(err).Msg("error closing transport")
		}
	}()
	stop := context.AfterFunc(ctx, func() { closeTransport() })
	defer stop()
	log.Info().Stringer("transport", t).Msg("connected")

	result, err := session.Run(t, inv.payload, sink)
	if ctx.Err() != nil {
		log.Info().Msg("interrupted, transport closed")
	}
	if err != nil {
		return fmt.Errorf("error sending to %v: %w", t, err)
	}

	log.Debug().
		Int("reads", result.Reads).
		Int("received", len(result.Received)).
		AnErr("stop", result.Stop).
		Msg("read loop finished")
	return nil
}

// listSerialPorts prints one serial device per line
func listSerialPorts() error {
	ports, err := transport.ListSerialPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
	}
	for _, port := range ports {
		fmt.Println(port)
	}
	return nil
}

// logConfig works out the logging configuration: defaults, then the environment
// (and .env file), then flags
func logConfig(a *cmdline) (diag.Config, error) {
	cfg := diag.DefaultConfig()
	envErr := diag.LoadEnv(envFile, &cfg)

	if a.Verbose && cfg.Level > zerolog.DebugLevel {
		cfg.Level = zerolog.DebugLevel
	}
	if a.Debug {
		cfg.Level = zerolog.TraceLevel
	}
	if a.Stderr {
		cfg.Console = os.Stderr
	}
	if a.NoColor {
		cfg.NoColor = true
	}
	if a.LogDir != "" {
		cfg.LogDir = a.LogDir
	}
	if a.NoLogFile {
		cfg.LogDir = ""
	}
	return cfg, envErr
}

func Main() (err error) {
	defer handlePanic(&err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var args cmdline
	arg.MustParse(&args)

	inv, err := args.invocation(os.Args[1:])
	if err != nil {
		return err
	}

	if inv.listSerial {
		return listSerialPorts()
	}

	// per-logger levels decide what is shown; the global level must not get in the way of --debug
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	cfg, envErr := logConfig(&args)
	sink := diag.New(cfg)
	defer sink.Close()

	if envErr != nil {
		sink.Logger().Warn().Err(envErr).Msg("ignoring logging settings from the environment")
	}
	sink.Logger().Trace().Str("version", version).Interface("options", inv.opts).Msg("starting")

	return run(ctx, inv, sink)
}

// exitCode is 2 for bad command lines, like go-arg's own usage errors, and 1 for
// everything else that went wrong
func exitCode(err error) int {
	switch toolerr.KindOf(err) {
	case toolerr.InvalidAddress, toolerr.InvalidPort, toolerr.InvalidBaudRate, toolerr.InvalidHexByte:
		return 2
	default:
		return 1
	}
}

func main() {
	err := Main()
	if err != nil {
		errorf("error: %v", err)
		os.Exit(exitCode(err))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/markmark999/xtool/pkg/echo"
	"github.com/rs/zerolog"
)

func Main() error {
	var args struct {
		Addr     string        `default:"127.0.0.1:7777" help:"address to listen on"`
		Fragment int           `help:"echo in pieces of at most this many bytes"`
		Gap      time.Duration `help:"pause between pieces"`
		Verbose  bool          `arg:"-v,--verbose"`
	}
	arg.MustParse(&args)

	level := zerolog.InfoLevel
	if args.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l, err := net.Listen("tcp", args.Addr)
	if err != nil {
		return fmt.Errorf("error listening on %v: %w", args.Addr, err)
	}

	s := echo.Server{
		Fragment: args.Fragment,
		Gap:      args.Gap,
		Log:      logger,
	}
	err = s.Serve(ctx, l)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	err := Main()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

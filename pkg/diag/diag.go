// Package diag records what an xtool session sent and received. Events go to the
// console and, when possible, to an hourly rotated log file.
package diag

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/markmark999/xtool/pkg/hexbytes"
	"github.com/rs/zerolog"
	"github.com/subosito/gotenv"
)

// Environment variables consulted by LoadEnv
const (
	EnvLevel  = "XTOOL_LOG"
	EnvLogDir = "XTOOL_LOG_DIR"
)

type Config struct {
	Level    zerolog.Level // applies to diagnostics about the tool, never to sent/received events
	Console  io.Writer
	NoColor  bool
	LogDir   string // empty disables the log file
	FileName string
}

// DefaultConfig logs at info level to stdout and to log/xtool.log.<hour>
func DefaultConfig() Config {
	return Config{
		Level:    zerolog.InfoLevel,
		Console:  os.Stdout,
		LogDir:   "log",
		FileName: "xtool.log",
	}
}

// LoadEnv loads the environment file at path, if it exists, without overriding
// variables that are already set, and then applies XTOOL_LOG and XTOOL_LOG_DIR to cfg.
func LoadEnv(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		if err := gotenv.Load(path); err != nil {
			return fmt.Errorf("error loading %v: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error checking for %v: %w", path, err)
	}

	if s := os.Getenv(EnvLogDir); s != "" {
		cfg.LogDir = s
	}
	if s := os.Getenv(EnvLevel); s != "" {
		level, err := zerolog.ParseLevel(s)
		if err != nil {
			return fmt.Errorf("error parsing %v=%q: %w", EnvLevel, s, err)
		}
		cfg.Level = level
	}
	return nil
}

// Sink is the diagnostics context for one process run. Create it with New at startup
// and Close it on the way out.
type Sink struct {
	log    zerolog.Logger
	events zerolog.Logger
	file   io.Closer
}

// New builds a sink. It never fails: if the log file cannot be set up then a warning
// is written to the console and the sink carries on with console output only.
func New(cfg Config) *Sink {
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		NoColor:    cfg.NoColor,
		TimeFormat: "15:04:05.000",
	}}

	var s Sink
	var fileErr error
	if cfg.LogDir != "" {
		name := cfg.FileName
		if name == "" {
			name = "xtool.log"
		}
		rl, err := openRolling(cfg.LogDir, name)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, rl)
			s.file = rl
		}
	}

	base := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	s.log = base.Level(cfg.Level)
	s.events = base.Level(zerolog.TraceLevel)

	if fileErr != nil {
		s.events.Warn().Err(fileErr).Msg("log file unavailable, logging to console only")
	}
	return &s
}

// openRolling creates the log directory, checks that it is writable, and returns a
// writer that starts a new file every hour
func openRolling(dir, name string) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	check, err := os.CreateTemp(dir, "."+name+".check-*")
	if err != nil {
		return nil, fmt.Errorf("log directory %v is not writable: %w", dir, err)
	}
	check.Close()
	os.Remove(check.Name())

	rl, err := rotatelogs.New(
		filepath.Join(dir, name+".%Y-%m-%d-%H"),
		rotatelogs.WithRotationTime(time.Hour),
		rotatelogs.WithClock(rotatelogs.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating rotating log: %w", err)
	}
	return rl, nil
}

// Sent records bytes written to the transport
func (s *Sink) Sent(b []byte) {
	s.events.Info().Int("count", len(b)).Str("hex", hexbytes.Format(b)).Msg("sent")
}

// Received records everything read from the transport
func (s *Sink) Received(b []byte) {
	s.events.Info().Int("count", len(b)).Str("hex", hexbytes.Format(b)).Msg("received")
}

// Logger returns the logger for messages about the tool itself
func (s *Sink) Logger() *zerolog.Logger {
	return &s.log
}

// Close releases the log file, if there is one
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

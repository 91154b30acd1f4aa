package diag

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testConfig(console *bytes.Buffer, dir string) Config {
	return Config{
		Level:    zerolog.InfoLevel,
		Console:  console,
		NoColor:  true,
		LogDir:   dir,
		FileName: "xtool.log",
	}
}

func TestEventsReachConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	dir := t.TempDir()

	sink := New(testConfig(&console, dir))
	sink.Sent([]byte{0x48, 0x45, 0x4c, 0x4c, 0x4f})
	sink.Received([]byte{})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := console.String()
	for _, want := range []string{"sent", "48 45 4C 4C 4F", "count=5", "received", "count=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}

	files, err := filepath.Glob(filepath.Join(dir, "xtool.log.????-??-??-??"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one rotated log file, got %v (%v)", files, err)
	}
	content, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), `"message":"sent"`) || !strings.Contains(string(content), `"hex":"48 45 4C 4C 4F"`) {
		t.Errorf("log file does not contain the sent event:\n%s", content)
	}
	if !strings.Contains(string(content), `"message":"received"`) {
		t.Errorf("log file does not contain the received event:\n%s", content)
	}
}

func TestUnwritableLogDirFallsBackToConsole(t *testing.T) {
	var console bytes.Buffer

	// a regular file where the log directory should be
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	sink := New(testConfig(&console, filepath.Join(blocker, "log")))
	sink.Received([]byte{0x01})
	if err := sink.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	out := console.String()
	if !strings.Contains(out, "log file unavailable") {
		t.Errorf("expected a warning about the log file:\n%s", out)
	}
	if !strings.Contains(out, "received") || !strings.Contains(out, "hex=01") {
		t.Errorf("event was not written to the console:\n%s", out)
	}
}

func TestLevelDoesNotFilterEvents(t *testing.T) {
	var console bytes.Buffer
	cfg := testConfig(&console, "")
	cfg.Level = zerolog.ErrorLevel

	sink := New(cfg)
	sink.Logger().Info().Msg("opening transport")
	sink.Sent([]byte{0xff})

	out := console.String()
	if strings.Contains(out, "opening transport") {
		t.Errorf("info message should be filtered at error level:\n%s", out)
	}
	if !strings.Contains(out, "sent") {
		t.Errorf("sent event must never be filtered:\n%s", out)
	}
}

// unsetenv clears key for the duration of the test
func unsetenv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadEnv(t *testing.T) {
	unsetenv(t, EnvLevel)
	unsetenv(t, EnvLogDir)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("XTOOL_LOG=debug\nXTOOL_LOG_DIR=/tmp/xtool-logs\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadEnv(path, &cfg); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if cfg.Level != zerolog.DebugLevel {
		t.Errorf("Level = %v, want debug", cfg.Level)
	}
	if cfg.LogDir != "/tmp/xtool-logs" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	unsetenv(t, EnvLevel)
	unsetenv(t, EnvLogDir)

	cfg := DefaultConfig()
	if err := LoadEnv(filepath.Join(t.TempDir(), ".env"), &cfg); err != nil {
		t.Fatalf("LoadEnv with no file failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("config changed without an env file: %+v", cfg)
	}
}

func TestLoadEnvBadLevel(t *testing.T) {
	t.Setenv(EnvLevel, "loud")
	t.Setenv(EnvLogDir, "/tmp/xtool-logs")

	cfg := DefaultConfig()
	if err := LoadEnv(filepath.Join(t.TempDir(), ".env"), &cfg); err == nil {
		t.Errorf("expected an error for an unknown level")
	}
	if cfg.Level != zerolog.InfoLevel {
		t.Errorf("Level = %v, want the default to survive a bad value", cfg.Level)
	}
	if cfg.LogDir != "/tmp/xtool-logs" {
		t.Errorf("LogDir = %q, a bad level must not discard %v", cfg.LogDir, EnvLogDir)
	}
}

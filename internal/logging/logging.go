package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file inside the log directory.
const FileName = "shipdash.log"

// Init points the global logger at stderr and a rotating file in the log directory.
// Stdout is reserved for the MCP transport and CLI output, so nothing is ever logged there.
// The returned closer flushes the file sink.
func Init(verbose bool) (io.Closer, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	dir := Dir()
	if err := ensureWritable(dir); err != nil {
		return nil, err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(consoleWriter(os.Stderr), fileWriter)).
		With().
		Timestamp().
		Logger()
	return fileWriter, nil
}

// Dir resolves the log directory: LOGS_FOLDER, else <exe dir>/logs, else ./logs.
// Init runs before config.Load, so LOGS_FOLDER may still live in the binary's .env.
func Dir() string {
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}
	if dir := os.Getenv("LOGS_FOLDER"); dir != "" {
		return dir
	}
	if err == nil {
		return filepath.Join(filepath.Dir(exePath), "logs")
	}
	return "logs"
}

// Component returns a child of the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

func consoleWriter(f *os.File) zerolog.ConsoleWriter {
	isTerminal := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}

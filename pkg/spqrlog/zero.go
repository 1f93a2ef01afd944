package spqrlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Zero is the process wide logger. Console sessions write the menu to stdout, so by
// default the logger writes to stderr.
var Zero = NewZeroLogger("", "info", true)

var logFile *os.File

// NewZeroLogger builds a logger writing to filepath (stderr when empty) at the given
// level. With pretty set, records are rendered by zerolog.ConsoleWriter, otherwise as JSON.
func NewZeroLogger(filepath string, level string, pretty bool) *zerolog.Logger {
	f, writer, err := newWriter(filepath)
	if err != nil {
		writer = os.Stderr
	}
	if f != nil {
		logFile = f
	}

	var output io.Writer = writer
	if pretty {
		output = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(output).With().Timestamp().Logger().Level(parseLevel(level))

	return &logger
}

// ReloadLogger reopens the logger on filepath keeping the current level.
func ReloadLogger(filepath string, pretty bool) {
	if filepath == "" {
		return // stderr, nothing to reopen
	}
	oldFile := logFile
	Zero = NewZeroLogger(filepath, Zero.GetLevel().String(), pretty)
	if oldFile != nil && oldFile != logFile {
		_ = oldFile.Close()
	}
}

func UpdateZeroLogLevel(logLevel string) error {
	level := parseLevel(logLevel)
	zeroLogger := Zero.With().Logger().Level(level)
	Zero = &zeroLogger
	return nil
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warning", "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

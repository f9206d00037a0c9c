package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Fields is a set of structured key/value pairs attached to a log line.
type Fields map[string]interface{}

// Logger is the structured logger used across the application.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
	Fatal(msg string, fields Fields)

	With(fields Fields) Logger
}

type zerologLogger struct {
	logger zerolog.Logger
}

// New builds a zerolog-backed Logger. Development environments get a human readable console writer.
func New(level, appEnv string, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(appEnv, "development") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &zerologLogger{logger: zl}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{logger: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *zerologLogger) With(fields Fields) Logger {
	return &zerologLogger{logger: l.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}

func (l *zerologLogger) Debug(msg string, fields Fields) { emit(l.logger.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields Fields)  { emit(l.logger.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields Fields)  { emit(l.logger.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields Fields) { emit(l.logger.Error(), msg, fields) }
func (l *zerologLogger) Fatal(msg string, fields Fields) { emit(l.logger.Fatal(), msg, fields) }

func emit(event *zerolog.Event, msg string, fields Fields) {
	if fields != nil {
		event = event.Fields(map[string]interface{}(fields))
	}
	event.Msg(msg)
}

package logging

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/eimribar/ads-command-center/pkg/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// Level represents a log level
type Level = logrus.Level

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// NewLogger writes JSON logs to out. The CLI uses it with --output json so
// stderr stays machine readable alongside the JSON on stdout.
func NewLogger(out io.Writer, verbose bool) *logrus.Logger {
	return newLogger(out, &logrus.JSONFormatter{}, verbose)
}

// NewCLILogger writes human readable logs to out. Table output owns stdout,
// so the CLI passes stderr here.
func NewCLILogger(out io.Writer, verbose bool) *logrus.Logger {
	return newLogger(out, &logrus.TextFormatter{DisableTimestamp: true}, verbose)
}

func newLogger(out io.Writer, formatter logrus.Formatter, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(formatter)
	logger.SetLevel(config.GetLogLevel())
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// NewDiscardLogger returns a logger that drops everything. Used in tests and
// as the default for clients constructed without one.
func NewDiscardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Params selects where and how logs are written.
type Params struct {
	Level      string
	FormatJSON bool

	// FileName enables a rotated log file when set.
	FileName string
	// Console keeps stderr output next to the file.
	Console bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup applies params to the standard logrus logger. The returned closer
// releases the log file.
func Setup(params Params) io.Closer {
	if params.FormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(GetLevel(params.Level))

	if params.FileName == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}
	}

	if !strings.HasSuffix(params.FileName, ".log") {
		params.FileName += ".log"
	}
	rotated := &lumberjack.Logger{
		Filename:   params.FileName,
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		LocalTime:  false,
		Compress:   true,
	}
	if params.Console {
		logrus.SetOutput(io.MultiWriter(os.Stderr, rotated))
	} else {
		logrus.SetOutput(rotated)
	}
	return rotated
}

// GetLevel maps a level name to logrus, defaulting to warn.
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.WarnLevel
	}
}

package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// MaxLogSize is the size past which an existing log file is rotated on open
const MaxLogSize = 10 * 1024 * 1024

// LogFormat selects the logrus formatter
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// NewLogger builds a logrus logger writing to out with the given level and format.
// Unknown levels fall back to info.
func NewLogger(out io.Writer, level string, format LogFormat) *logrus.Logger {
	log := logrus.New()
	if out == nil {
		out = io.Discard
	}
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	switch format {
	case LogFormatText:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// NewDiscardLogger returns a logger that drops everything, the default for library types
func NewDiscardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

// OpenLogFile opens dir/name for appending, rotating the previous file aside
// with a timestamp suffix when it exceeds MaxLogSize
func OpenLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create log dir %s", dir)
	}

	path := filepath.Join(dir, name)
	if info, err := os.Stat(path); err == nil && info.Size() > MaxLogSize {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		rotated := filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, time.Now().Format("20060102-150405"), ext))
		if err := os.Rename(path, rotated); err != nil {
			return nil, eris.Wrapf(err, "rotate log %s", path)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "open log %s", path)
	}
	return f, nil
}

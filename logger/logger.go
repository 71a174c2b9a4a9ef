// Package logger provides the prefixed, colored leveled logger used by every
// component of the race server.
package logger

import (
	"errors"
	"io"
	"log"

	"github.com/beka-birhanu/vinom-race-server/config"
)

var (
	ErrNilWriter   = errors.New("logger writer is nil")
	ErrEmptyPrefix = errors.New("logger prefix is empty")
)

// Logger writes "<prefix> [LEVEL] message" lines with the prefix in color.
type Logger struct {
	prefix string
	out    *log.Logger
}

// New creates a logger named prefix, colored with color, writing to w.
func New(prefix, color string, w io.Writer) (*Logger, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}

	return &Logger{
		prefix: color + "[" + prefix + "]" + config.ColorReset,
		out:    log.New(w, "", log.LstdFlags),
	}, nil
}

func (l *Logger) Info(msg string) {
	l.out.Printf("%s [INFO] %s", l.prefix, msg)
}

func (l *Logger) Warning(msg string) {
	l.out.Printf("%s %s[WARNING]%s %s", l.prefix, config.ColorYellow, config.ColorReset, msg)
}

func (l *Logger) Error(msg string) {
	l.out.Printf("%s %s[ERROR]%s %s", l.prefix, config.ColorRed, config.ColorReset, msg)
}

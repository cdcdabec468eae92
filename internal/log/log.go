// SPDX-License-Identifier: EPL-2.0

// Package log owns the process logger used by the commands.
// Library packages take a *zerolog.Logger in their options instead.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
)

// New builds a logger writing to w. Valid levels are those of
// zerolog.ParseLevel; an empty level means info. pretty selects the
// human readable console format over JSON lines.
func New(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
		}
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Init replaces the process logger with one writing to stderr.
func Init(level string, pretty bool) error {
	l, err := New(os.Stderr, level, pretty)
	if err != nil {
		return err
	}

	mu.Lock()
	logger = l
	mu.Unlock()

	return nil
}

// L returns the process logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	l := logger
	return &l
}

// With returns a child of the process logger tagged with component.
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package logging constructs the structured loggers used by the server and
// carries them through contexts.
package logging // import "mellium.im/xmppd/internal/logging"

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for building a logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.), defaults to info
	Output  io.Writer // optional writer, defaults to os.Stderr
	Service string    // optional service name attached to every entry
	Pretty  bool      // use the human readable console format
}

// New returns a logger configured by cfg.
func New(cfg Config) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logging: bad level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	service := cfg.Service
	if service == "" {
		service = "xmppd"
	}
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger(), nil
}

// FromContext returns the logger carried by ctx or fallback if there is none.
func FromContext(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return fallback
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return fallback
	}
	return *l
}

// WithStanza returns a context carrying a child of logger annotated with the
// session and stanza id being processed.
func WithStanza(ctx context.Context, logger zerolog.Logger, session, id string) context.Context {
	b := logger.With()
	if session != "" {
		b = b.Str("session", session)
	}
	if id != "" {
		b = b.Str("stanza_id", id)
	}
	l := b.Logger()
	return l.WithContext(ctx)
}

package logger

import (
	"io"
	"log/slog"
)

// Option adjusts the logger built by New.
type Option func(*config)

// WithDebug drops the level to Debug. Without it loggers stay at Info.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty switches to the charmbracelet/log handler, which renders
// colorized output for interactive terminals.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON switches to slog's JSON handler. Meant for the long-running
// servers, where logs get scraped rather than read.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter replaces the destination, which is os.Stdout by default.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters fans output out to several destinations at once through
// io.MultiWriter.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource annotates each record with the emitting file and line.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

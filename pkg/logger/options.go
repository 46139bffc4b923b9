package logger

import (
	"io"
	"log/slog"
)

// Option adjusts which handler New picks and how it is configured.
type Option func(*config)

// WithDebug lowers the level to Debug; otherwise everything below Info is
// dropped.
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		} else {
			c.level = slog.LevelInfo
		}
	}
}

// WithPretty selects the charmbracelet/log handler, which renders colorized
// output for a human at a terminal. Takes precedence over WithJSON.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON selects slog's JSON handler for machine-readable logs.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter replaces the destination, which defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters fans the output out to several destinations through a single
// io.MultiWriter.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource annotates every record with the emitting file and line.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

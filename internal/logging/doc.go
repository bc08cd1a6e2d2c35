// Package logging builds the slog loggers of the yopuedo binaries.
//
// The dev server logs colorized text to stdout, or JSON when
// logging.format is "json". The chat client owns the terminal, so it logs
// plain text to logging.file instead.
package logging

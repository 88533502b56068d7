// SPDX-License-Identifier: Apache-2.0

// Package diag provides the structured logger used across scrape, stage and
// diff phases.
package diag

import "github.com/pterm/pterm"

// Logger is responsible for logging every observable step of a planning run.
type Logger interface {
	LogScrapeStart(database string)
	LogScrapeComplete(database string)

	LogStagingDatabaseCreate(name string)
	LogStagingDatabaseDrop(name string)

	LogStatementApply(kind, name string)
	LogStatementRetry(kind, name string, attempt int, cause string)
	LogStatementFailed(kind, name string, cause string)

	LogCompareStart()
	LogCompareComplete(creates, alters, drops int)

	LogObjectCreate(kind, name string)
	LogObjectAlter(kind, name string)
	LogObjectDrop(kind, name string)

	Info(msg string, args ...any)
}

type diagLogger struct {
	logger pterm.Logger
}

type noopLogger struct{}

// NewLogger returns a Logger backed by pterm's default structured logger,
// filtering below the given level. Unrecognized levels fall back to info.
func NewLogger(level string) Logger {
	return &diagLogger{logger: pterm.DefaultLogger.WithLevel(parseLevel(level))}
}

func parseLevel(level string) pterm.LogLevel {
	switch level {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "disabled":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// NewNoopLogger returns a Logger that discards everything, for tests.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *diagLogger) LogScrapeStart(database string) {
	l.logger.Info("scraping database metadata", l.logger.Args("database", database))
}

func (l *diagLogger) LogScrapeComplete(database string) {
	l.logger.Info("scrape complete", l.logger.Args("database", database))
}

func (l *diagLogger) LogStagingDatabaseCreate(name string) {
	l.logger.Info("created staging database", l.logger.Args("name", name))
}

func (l *diagLogger) LogStagingDatabaseDrop(name string) {
	l.logger.Info("dropped staging database", l.logger.Args("name", name))
}

func (l *diagLogger) LogStatementApply(kind, name string) {
	l.logger.Info("applying statement", l.logger.Args("kind", kind, "name", name))
}

func (l *diagLogger) LogStatementRetry(kind, name string, attempt int, cause string) {
	l.logger.Info("retrying statement", l.logger.Args(
		"kind", kind, "name", name, "attempt", attempt, "cause", cause,
	))
}

func (l *diagLogger) LogStatementFailed(kind, name string, cause string) {
	l.logger.Info("statement failed", l.logger.Args("kind", kind, "name", name, "cause", cause))
}

func (l *diagLogger) LogCompareStart() {
	l.logger.Info("comparing source control database to actual database")
}

func (l *diagLogger) LogCompareComplete(creates, alters, drops int) {
	l.logger.Info("comparison complete", l.logger.Args(
		"creates", creates, "alters", alters, "drops", drops,
	))
}

func (l *diagLogger) LogObjectCreate(kind, name string) {
	l.logger.Info("create", l.logger.Args("kind", kind, "name", name))
}

func (l *diagLogger) LogObjectAlter(kind, name string) {
	l.logger.Info("alter", l.logger.Args("kind", kind, "name", name))
}

func (l *diagLogger) LogObjectDrop(kind, name string) {
	l.logger.Info("drop", l.logger.Args("kind", kind, "name", name))
}

func (l *diagLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args))
}

func (l *noopLogger) LogScrapeStart(database string)                                {}
func (l *noopLogger) LogScrapeComplete(database string)                             {}
func (l *noopLogger) LogStagingDatabaseCreate(name string)                          {}
func (l *noopLogger) LogStagingDatabaseDrop(name string)                            {}
func (l *noopLogger) LogStatementApply(kind, name string)                           {}
func (l *noopLogger) LogStatementRetry(kind, name string, attempt int, cause string) {}
func (l *noopLogger) LogStatementFailed(kind, name string, cause string)            {}
func (l *noopLogger) LogCompareStart()                                              {}
func (l *noopLogger) LogCompareComplete(creates, alters, drops int)                 {}
func (l *noopLogger) LogObjectCreate(kind, name string)                             {}
func (l *noopLogger) LogObjectAlter(kind, name string)                              {}
func (l *noopLogger) LogObjectDrop(kind, name string)                               {}
func (l *noopLogger) Info(msg string, args ...any)                                  {}

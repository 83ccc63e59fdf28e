// Package log provides the structured logging interface used across
// ecudatalog.
//
// Components accept a Logger and default to NoopLogger, so library users who
// do not care about diagnostics pay nothing. The CLI and API server wire a
// ZerologAdapter configured from the YAML config.
package log

// Package build provides small helpers shared by every package's log.go,
// mirroring the sub-logger bootstrap used throughout the lnd codebase.
package build

import "github.com/btcsuite/btclog/v2"

// NewSubLogger creates a logger for a named subsystem. If genLogger is nil
// the returned logger is the package-disabled logger, so packages never
// observe a nil logger before a root logger is wired in by the embedding
// application.
func NewSubLogger(subsystem string,
	genLogger func(string) btclog.Logger) btclog.Logger {

	if genLogger == nil {
		return btclog.Disabled
	}

	return genLogger(subsystem)
}

// Package logging constructs the service logger. Output is structured JSON
// on stdout through a production zap core.
package logging

import (
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
)

// New builds the service logger backed by a production zap sink.
func New(serviceName string) (ectologger.Logger, func(), error) {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}
	zapLogger = zapLogger.Named(serviceName)

	cleanup := func() {
		_ = zapLogger.Sync()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), cleanup, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// Package logger configures the process-wide zap logger.  Components
// obtain a named child logger via WithComponent so that log lines from
// the sweeper, the queue consumer and the services can be told apart.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var L *zap.Logger

func init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	var err error
	L, err = config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
}

// WithComponent returns a logger carrying a component field, used by the
// sweeper, queue, handler and service layers.
func WithComponent(component string) *zap.Logger {
	return L.With(zap.String("component", component))
}

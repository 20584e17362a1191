package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// zapAdapter routes watermill logs through the application logger.
type zapAdapter struct {
	log *zap.SugaredLogger
}

func NewLoggerAdapter(log *zap.SugaredLogger) watermill.LoggerAdapter {
	return &zapAdapter{log: log.Named("events")}
}

func (a *zapAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Errorw(msg, append(keyvals(fields), "error", err)...)
}

func (a *zapAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Infow(msg, keyvals(fields)...)
}

func (a *zapAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, keyvals(fields)...)
}

// Trace is folded into debug; zap has no lower level.
func (a *zapAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, keyvals(fields)...)
}

func (a *zapAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zapAdapter{log: a.log.With(keyvals(fields)...)}
}

func keyvals(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

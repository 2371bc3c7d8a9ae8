package events

import (
	"go.uber.org/zap"
)

// LogHandler writes every event to the logger at debug level
func LogHandler(logger *zap.Logger) Handler {
	return func(event Event) error {
		logger.Debug("pipeline event",
			zap.String("type", event.Type),
			zap.String("run_id", event.RunID),
			zap.Int("sequence", event.Sequence),
			zap.Any("data", event.Data),
		)
		return nil
	}
}

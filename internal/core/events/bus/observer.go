package bus

import (
	"time"

	"github.com/zeusync/assetpack/internal/core/observability/log"
)

type logObserver struct {
	logger log.Log
}

// NewLogObserver reports every delivery at debug level and failed
// deliveries at warn level.
func NewLogObserver(logger log.Log) EventBusObserver {
	return logObserver{logger: logger.With(log.String("component", "bus"))}
}

func (o logObserver) OnPublish(string, Event) {}

func (o logObserver) OnDelivered(eventType string, handlers int, err error, duration time.Duration) {
	if err != nil {
		o.logger.Warn("event handlers failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err),
		)
		return
	}
	o.logger.Debug("event delivered",
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("took", duration),
	)
}

// HasAssetHandle passes lifecycle events that name a handle.
func HasAssetHandle(e Event) bool {
	d, ok := AssetData(e)
	return !ok || !d.Handle.IsNull()
}

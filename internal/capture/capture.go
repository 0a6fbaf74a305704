// Package capture provides the error-capture hub the demo exists to exercise.
//
// The hub is the stand-in for an observability vendor SDK: every intentional
// error raised by the demo application flows through CaptureException, which
// classifies it, attaches release/environment tags, counts it, logs it and
// publishes an event for live subscribers. Capturing never blocks or fails;
// transport mechanics of a real SDK are out of scope.
package capture

import (
	"maps"

	"faultline/internal/events"
	"faultline/internal/fault"
	"faultline/internal/logger"
)

// Config is the capture hub configuration
type Config struct {
	Release     string            // release identifier attached to every event
	Environment string            // deployment environment tag
	Tags        map[string]string // extra tags merged into every event
}

// DefaultConfig returns the default hub configuration
func DefaultConfig() Config {
	return Config{
		Release:     "faultline@1.0.0",
		Environment: "development",
	}
}

// Hub tags, counts and publishes captured errors
type Hub struct {
	config Config
	bus    *events.Bus
	log    *logger.Logger
}

// NewHub creates a new capture hub
// bus may be nil when no live subscribers are wanted
func NewHub(config Config, bus *events.Bus) *Hub {
	return &Hub{
		config: config,
		bus:    bus,
		log:    logger.Default,
	}
}

// SetLogger overrides the hub logger
func (h *Hub) SetLogger(l *logger.Logger) {
	h.log = l
}

// CaptureException records an error and returns its category
// Nil errors are ignored and classified as none
func (h *Hub) CaptureException(source string, err error) fault.Category {
	if err == nil {
		return fault.CategoryNone
	}

	category := fault.Classify(err)

	CapturedErrors.WithLabelValues(category.String(), source).Inc()
	h.log.Warn(source, "captured %s: %v", category, err)

	if h.bus != nil {
		h.bus.Publish(events.NewErrorCapturedEvent(source, category.String(), err, h.eventTags()))
	}

	return category
}

// CaptureMessage records a plain message at the given level
func (h *Hub) CaptureMessage(source string, level logger.Level, msg string) {
	CapturedMessages.WithLabelValues(level.String(), source).Inc()

	switch level {
	case logger.LevelDebug:
		h.log.Debug(source, "%s", msg)
	case logger.LevelWarn:
		h.log.Warn(source, "%s", msg)
	case logger.LevelError:
		h.log.Error(source, "%s", msg)
	default:
		h.log.Info(source, "%s", msg)
	}
}

// eventTags merges the static config tags with release metadata
func (h *Hub) eventTags() map[string]string {
	tags := map[string]string{
		"component":   "faultline",
		"release":     h.config.Release,
		"environment": h.config.Environment,
	}
	maps.Copy(tags, h.config.Tags)
	return tags
}

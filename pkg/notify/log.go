package notify

import (
	"github.com/Sternrassler/uk-petitions/pkg/monitor"
	"github.com/rs/zerolog"
)

// LogSink writes monitor events to a logger. Errors are logged at error
// level, traversal completions at debug level and everything else at info.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Handle logs ev.
func (s *LogSink) Handle(ev monitor.Event) {
	var e *zerolog.Event
	switch ev.Name {
	case monitor.EventError:
		e = s.logger.Error().Err(ev.Err)
	case monitor.EventLoaded, monitor.EventInitialLoad:
		e = s.logger.Debug()
	default:
		e = s.logger.Info()
	}

	e = e.Str("event", ev.Name)
	if p := ev.Petition; p != nil {
		e = e.Int64("petition_id", int64(p.ID)).
			Str("action", p.Action).
			Int("signatures", p.SignatureCount)
	}
	if ev.Old != nil {
		e = e.Int("signature_diff", ev.Petition.SignatureCount-ev.Old.SignatureCount)
	}
	if ev.View != nil {
		e = e.Int("petitions", ev.View.Count())
	}
	e.Msg("Petition event")
}

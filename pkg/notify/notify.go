// Package notify delivers monitor events to the outside world.
//
// LogSink writes events to a zerolog logger. RedisPublisher publishes them as
// JSON on a Redis pub/sub channel, so that other processes can react to
// petitions crossing thresholds without polling the API themselves.
//
//	sink := notify.NewLogSink(logger)
//	notify.Attach(m, sink) // every event
//	notify.Attach(m, publisher, monitor.EventNewPetition, monitor.EventResponseThreshold)
package notify

import (
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/monitor"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
)

// Sink handles monitor events.
type Sink interface {
	Handle(ev monitor.Event)
}

// Attach subscribes sink to the named events of m, or to every event when no
// names are given.
func Attach(m *monitor.Monitor, sink Sink, names ...string) {
	if len(names) == 0 {
		m.OnAll(sink.Handle)
		return
	}
	for _, name := range names {
		m.On(name, sink.Handle)
	}
}

// Message is the JSON form of a monitor event.
type Message struct {
	Event             string      `json:"event"`
	PetitionID        petition.ID `json:"petition_id,omitempty"`
	Action            string      `json:"action,omitempty"`
	State             string      `json:"state,omitempty"`
	URL               string      `json:"url,omitempty"`
	SignatureCount    int         `json:"signature_count"`
	OldSignatureCount *int        `json:"old_signature_count,omitempty"`
	Petitions         *int        `json:"petitions,omitempty"`
	Error             string      `json:"error,omitempty"`
	At                time.Time   `json:"at"`
}

// NewMessage converts an event to its JSON form.
func NewMessage(ev monitor.Event) Message {
	msg := Message{Event: ev.Name, At: ev.At}
	if msg.At.IsZero() {
		msg.At = time.Now()
	}

	if p := ev.Petition; p != nil {
		msg.PetitionID = p.ID
		msg.Action = p.Action
		msg.State = p.State
		msg.URL = p.HTMLURL
		msg.SignatureCount = p.SignatureCount
	}
	if ev.Old != nil {
		old := ev.Old.SignatureCount
		msg.OldSignatureCount = &old
	}
	if ev.View != nil {
		n := ev.View.Count()
		msg.Petitions = &n
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}

// Package bridge connects the coordinator's event stream to a Watermill
// publisher, so application-side consumers can read bot events off any
// supported message broker.
package bridge

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/botwire/botwire/internal/runtime"
	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	"github.com/botwire/botwire/internal/runtime/ids"
	"github.com/botwire/botwire/internal/runtime/jsoncodec"
	"github.com/botwire/botwire/internal/runtime/logging"
)

// Metadata keys set on every published message.
const (
	MetaEventID  = "event_id"
	MetaImpl     = "impl"
	MetaPlatform = "platform"
	MetaSelfID   = "self_id"
)

// Forwarder is an event-handling role that publishes every incoming event
// onto a Watermill topic. It spawns no background tasks of its own; the
// publisher's lifecycle belongs to the caller.
type Forwarder[E, A, R any, V runtime.Version] struct {
	publisher message.Publisher
	topic     string
	log       logging.ServiceLogger
}

// NewForwarder validates the publisher and topic. A nil logger silences the
// forwarder.
func NewForwarder[E, A, R any, V runtime.Version](publisher message.Publisher, topic string, log logging.ServiceLogger) (*Forwarder[E, A, R, V], error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Forwarder[E, A, R, V]{
		publisher: publisher,
		topic:     topic,
		log:       log.With(logging.LogFields{"topic": topic}),
	}, nil
}

func (f *Forwarder[E, A, R, V]) Start(ctx context.Context, ob *runtime.OneBot[E, A, R, V]) ([]*runtime.Task, error) {
	return nil, nil
}

// Call publishes one event. Publish failures are logged and swallowed; a
// broker outage must not take the event loop down.
func (f *Forwarder[E, A, R, V]) Call(ctx context.Context, event runtime.BaseEvent[E], ob *runtime.OneBot[E, A, R, V]) {
	payload, err := jsoncodec.Marshal(event)
	if err != nil {
		f.log.Error("dropping unencodable event", err, logging.LogFields{"id": event.ID})
		return
	}

	msg := message.NewMessage(ids.New(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetaEventID, event.ID)
	msg.Metadata.Set(MetaImpl, event.Impl)
	msg.Metadata.Set(MetaPlatform, event.Platform)
	msg.Metadata.Set(MetaSelfID, event.SelfID)

	if err := f.publisher.Publish(f.topic, msg); err != nil {
		f.log.Error("publish failed", err, logging.LogFields{"id": event.ID})
	}
}

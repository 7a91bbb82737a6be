package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// Nats is a JetStream backed bus. Events survive a server restart and a
// failed handler gets the event redelivered up to maxDeliver times.
type Nats struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.ConsumeContext
}

const maxDeliver = 5

// NewNats connects and makes sure the stream exists.
func NewNats(ctx context.Context, url string) (*Nats, error) {
	nc, err := nats.Connect(url, nats.Name("hobbiz-api"))
	if err != nil {
		return nil, errors.Wrap(err, "connect to NATS")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "create jetstream context")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Chat events awaiting notification fan-out",
		Subjects:    []string{SubjectPrefix + ".>"},
		MaxAge:      24 * time.Hour,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, errors.Wrapf(err, "ensure stream %s", StreamName)
	}
	jww.INFO.Printf("events: stream %s ready", StreamName)
	return &Nats{nc: nc, js: js}, nil
}

func (n *Nats) Publish(ctx context.Context, ev MessageCreated) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	// Message id lets JetStream drop duplicates of a retried publish.
	if _, err := n.js.Publish(ctx, SubjectMsgCreated, data, jetstream.WithMsgID(ev.MessageID)); err != nil {
		return errors.Wrapf(err, "publish to %s", SubjectMsgCreated)
	}
	return nil
}

func (n *Nats) Subscribe(ctx context.Context, h Handler) error {
	cons, err := n.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       fanoutConsumerName,
		FilterSubject: SubjectMsgCreated,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       handlerTimeout + 5*time.Second,
		MaxDeliver:    maxDeliver,
	})
	if err != nil {
		return errors.Wrapf(err, "create consumer %s", fanoutConsumerName)
	}
	cc, err := cons.Consume(func(msg jetstream.Msg) {
		var ev MessageCreated
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			jww.ERROR.Printf("events: dropping malformed event on %s: %v", msg.Subject(), err)
			_ = msg.Term()
			return
		}
		hctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := h(hctx, ev); err != nil {
			jww.WARN.Printf("events: handling %s failed, requesting redelivery: %+v", ev.MessageID, err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return errors.Wrap(err, "start consuming")
	}
	n.consumer = cc
	return nil
}

func (n *Nats) Close() {
	if n.consumer != nil {
		n.consumer.Stop()
	}
	if n.nc != nil {
		n.nc.Close()
	}
}

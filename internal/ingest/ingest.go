// Package ingest applies raw change events from the three entity streams to
// the store. Every message is handled inside a per-message boundary: bad
// input is logged and dropped, never propagated, so one malformed message
// cannot halt the stream behind it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"gdash/internal/envelope"
	"gdash/internal/metrics"
	"gdash/internal/normalize"
	"gdash/internal/state"
)

// Stream identifies which entity stream a message belongs to.
type Stream string

const (
	StreamCustomers Stream = "customers"
	StreamOrders    Stream = "orders"
	StreamLineItems Stream = "lineitems"
)

// Outcome classifies what happened to one message.
type Outcome int

const (
	// OutcomeApplied means the payload was upserted into the store.
	OutcomeApplied Outcome = iota
	// OutcomeSkipped means the message was recognized but carried nothing
	// to apply (unhandled op, missing after image, unresolvable id).
	OutcomeSkipped
	// OutcomeDecodeError means the envelope could not be parsed at all.
	OutcomeDecodeError
)

// Pipeline wires decoder, normalizer and store for all three streams.
type Pipeline struct {
	store *state.Store
	norm  *normalize.Normalizer
	mreg  *metrics.Registry
	log   *zap.SugaredLogger
}

func NewPipeline(st *state.Store, norm *normalize.Normalizer, mreg *metrics.Registry, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{store: st, norm: norm, mreg: mreg, log: log}
}

// Apply processes one raw message from the given stream. It never returns an
// error; the outcome is for metrics and tests.
func (p *Pipeline) Apply(stream Stream, raw []byte) Outcome {
	p.mreg.Consumed.WithLabelValues(string(stream)).Inc()

	msg, payload, err := envelope.Decode(raw)
	if err != nil {
		p.log.Errorw("dropping undecodable message", "stream", stream, "err", err)
		p.mreg.DecodeErrors.WithLabelValues(string(stream)).Inc()
		return OutcomeDecodeError
	}
	if payload == nil {
		p.log.Debugw("skipping message with nothing to materialize", "stream", stream, "op", msg.Op)
		p.mreg.Skipped.WithLabelValues(string(stream)).Inc()
		return OutcomeSkipped
	}

	applied := false
	switch stream {
	case StreamCustomers:
		c, err := p.norm.Customer(payload)
		if err != nil {
			var skip *normalize.SkipError
			if errors.As(err, &skip) {
				p.log.Warnw("skipping customer without id", "op", msg.Op, "keys", skip.Keys)
			}
			break
		}
		applied = p.store.UpsertCustomer(c)
	case StreamOrders:
		o := p.norm.Order(payload)
		applied = p.store.UpsertOrder(o)
		if !applied {
			p.log.Warnw("skipping order without id", "op", msg.Op)
		}
	case StreamLineItems:
		li := p.norm.LineItem(payload)
		applied = p.store.UpsertLineItem(li)
		if !applied {
			p.log.Warnw("skipping line item without id", "op", msg.Op)
		}
	default:
		p.log.Errorw("message for unknown stream", "stream", stream)
	}

	if !applied {
		p.mreg.Skipped.WithLabelValues(string(stream)).Inc()
		return OutcomeSkipped
	}
	p.mreg.Applied.WithLabelValues(string(stream)).Inc()
	customers, orders := p.store.Counts()
	p.mreg.Customers.Set(float64(customers))
	p.mreg.Orders.Set(float64(orders))
	return OutcomeApplied
}

// Consumer runs one Kafka consumer-group loop for a single stream.
type Consumer struct {
	stream   Stream
	topic    string
	consumer *ck.Consumer
	pipeline *Pipeline
	log      *zap.SugaredLogger
}

// NewConsumer subscribes a fresh consumer-group member to topic. Offsets are
// committed automatically; at-least-once redelivery is harmless because
// upserts are idempotent.
func NewConsumer(bootstrap, groupID, topic string, stream Stream, p *Pipeline, log *zap.SugaredLogger) (*Consumer, error) {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers": bootstrap,
		"group.id":          groupID,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("consumer %s: %w", stream, err)
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return &Consumer{stream: stream, topic: topic, consumer: c, pipeline: p, log: log}, nil
}

// Run polls until ctx is cancelled. Read timeouts are normal idle behavior.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.consumer.Close()
	c.log.Infow("consumer started", "stream", c.stream, "topic", c.topic)
	for {
		select {
		case <-ctx.Done():
			c.log.Infow("consumer stopping", "stream", c.stream)
			return ctx.Err()
		default:
		}
		msg, err := c.consumer.ReadMessage(time.Second)
		if err != nil {
			var kerr ck.Error
			if errors.As(err, &kerr) && kerr.Code() == ck.ErrTimedOut {
				continue
			}
			c.log.Errorw("read failed", "stream", c.stream, "err", err)
			continue
		}
		c.pipeline.Apply(c.stream, msg.Value)
	}
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var (
	ErrBufferFull     = errors.New("event buffer full")
	ErrProducerClosed = errors.New("event producer closed")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers envelopes in a channel and writes them to Kafka from a
// single goroutine.
type Producer struct {
	w     messageWriter
	log   zerolog.Logger
	inbox chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, log zerolog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}, buf, log)
}

func newProducer(w messageWriter, buf int, log zerolog.Logger) *Producer {
	return &Producer{
		w:     w,
		log:   log,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

func (p *Producer) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				p.log.Error().Err(err).Str("key", string(m.Key)).Msg("publish event failed")
			}
		}
		if err := p.w.Close(); err != nil {
			p.log.Error().Err(err).Msg("close kafka writer")
		}
	}()
}

// Publish enqueues e. It never waits for the broker: a full buffer drops the
// event and returns ErrBufferFull.
func (p *Producer) Publish(_ context.Context, e Envelope) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events and waits until buffered ones are flushed or
// ctx ends.
func (p *Producer) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chatService/internal/errs"
	"chatService/internal/logger"
	"chatService/internal/models/events"
)

// EventPublisher is the single seam through which this service's state
// becomes visible to the rest of the system. Publish is fire-and-forget for
// the caller: delivery happens asynchronously and its failures are retried
// and logged inside the publisher, never surfaced to clients. Malformed
// events are rejected synchronously.
type EventPublisher interface {
	Publish(event events.DomainEvent) error
}

// EventSink is the transport a publisher drains into. Implementations provide
// at-least-once delivery semantics to downstream consumers.
type EventSink interface {
	Emit(ctx context.Context, event events.DomainEvent) error
}

const (
	publisherQueueSize  = 256
	publisherMaxRetries = 3
	publisherBaseDelay  = 100 * time.Millisecond
	publisherEmitBudget = 5 * time.Second
)

// AsyncEventPublisher decouples event publication from the send path: events
// are enqueued on a buffered channel and emitted by a worker with bounded
// retry/backoff. A full queue drops the event with a logged error rather than
// blocking the caller.
type AsyncEventPublisher struct {
	sink  EventSink
	queue chan events.DomainEvent
	stop  chan struct{}
	wg    sync.WaitGroup
	log   zerolog.Logger
}

func NewAsyncEventPublisher(sink EventSink) *AsyncEventPublisher {
	p := &AsyncEventPublisher{
		sink:  sink,
		queue: make(chan events.DomainEvent, publisherQueueSize),
		stop:  make(chan struct{}),
		log:   logger.For("event_publisher"),
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

func (p *AsyncEventPublisher) Publish(event events.DomainEvent) error {
	if event.EventType == "" || event.Data == nil {
		return errs.Error("malformed domain event")
	}
	select {
	case p.queue <- event:
		return nil
	default:
		p.log.Error().Str("event_type", event.EventType).Msg("publisher queue full, dropping event")
		return errs.ErrPublisherQueueFull
	}
}

// Close drains pending events and stops the worker.
func (p *AsyncEventPublisher) Close() {
	close(p.stop)
	p.wg.Wait()
}

func (p *AsyncEventPublisher) worker() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.queue:
			p.emitWithRetry(event)
		case <-p.stop:
			for {
				select {
				case event := <-p.queue:
					p.emitWithRetry(event)
				default:
					return
				}
			}
		}
	}
}

func (p *AsyncEventPublisher) emitWithRetry(event events.DomainEvent) {
	delay := publisherBaseDelay
	for attempt := 1; attempt <= publisherMaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), publisherEmitBudget)
		err := p.sink.Emit(ctx, event)
		cancel()
		if err == nil {
			return
		}
		p.log.Warn().Err(err).Str("event_type", event.EventType).
			Int("attempt", attempt).Msg("event emit failed")
		if attempt < publisherMaxRetries {
			time.Sleep(delay)
			delay *= 2
		}
	}
	p.log.Error().Str("event_type", event.EventType).Msg("event dropped after retries")
}

// RedisStreamSink appends events to a Redis stream. Consumer groups reading
// the stream get at-least-once delivery with replay on crash.
type RedisStreamSink struct {
	redis  *redis.Client
	stream string
}

func NewRedisStreamSink(rdb *redis.Client, stream string) *RedisStreamSink {
	return &RedisStreamSink{
		redis:  rdb,
		stream: stream,
	}
}

func (s *RedisStreamSink) Emit(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"event_type": event.EventType,
			"payload":    payload,
		},
	}).Err()
}

// LogEventSink writes events to the structured log. Used when no broker is
// configured; downstream delivery is then a deployment concern.
type LogEventSink struct {
	log zerolog.Logger
}

func NewLogEventSink() *LogEventSink {
	return &LogEventSink{log: logger.For("events")}
}

func (s *LogEventSink) Emit(_ context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.log.Info().RawJSON("event", payload).Msg("publishing event")
	return nil
}

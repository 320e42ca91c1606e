package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"todoapp/internal/config"
	"todoapp/internal/notify"
	"todoapp/internal/queue"
	"todoapp/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const (
	sendTimeout  = 30 * time.Second
	fetchBackoff = time.Second
)

// Pool is an in-process notification queue: a bounded channel drained by a
// fixed number of goroutines. Notify never blocks; a full queue drops.
type Pool struct {
	sender notify.Sender
	jobs   chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

var errPoolClosed = errors.New("notification pool closed")

type job struct {
	ctx context.Context
	msg notify.Message
}

// NewPool starts size workers reading from a queue of capacity queueSize.
func NewPool(sender notify.Sender, size, queueSize int) *Pool {
	p := &Pool{
		sender: sender,
		jobs:   make(chan job, queueSize),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Notify enqueues msg without blocking. The request context is detached so
// the delivery outlives the request.
func (p *Pool) Notify(ctx context.Context, msg notify.Message) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		logger.Warn(ctx, "Notification dropped: pool closed", "kind", msg.Kind)
		return
	}
	select {
	case p.jobs <- job{ctx: context.WithoutCancel(ctx), msg: msg}:
	default:
		p.dropped.Add(1)
		logger.Error(ctx, "Notification dropped: queue full", "kind", msg.Kind, "to", msg.To)
	}
}

// Submit enqueues msg, waiting for room until ctx is done.
func (p *Pool) Submit(ctx context.Context, msg notify.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errPoolClosed
	}
	select {
	case p.jobs <- job{ctx: context.WithoutCancel(ctx), msg: msg}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.deliver(j)
	}
}

func (p *Pool) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, sendTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			logger.Error(ctx, "Notification sender panicked", "panic", r, "kind", j.msg.Kind)
		}
	}()
	if err := p.sender.Send(ctx, j.msg); err != nil {
		p.failed.Add(1)
		logger.Error(ctx, "Notification send failed", "error", err, "kind", j.msg.Kind, "to", j.msg.To)
		return
	}
	p.sent.Add(1)
	logger.Debug(ctx, "Notification sent", "kind", j.msg.Kind, "to", j.msg.To)
}

// Close stops accepting work, drains the queue, and waits for the workers.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Stats reports delivery counters.
func (p *Pool) Stats() (sent, failed, dropped int64) {
	return p.sent.Load(), p.failed.Load(), p.dropped.Load()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader builds the consumer-group reader for the notification topic.
func NewReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Consume reads notification messages from Kafka and hands them to the pool
// until ctx is cancelled. One consumer per process; scale by running more
// replicas (the consumer group shares partitions).
func Consume(ctx context.Context, reader messageReader, pool *Pool) error {
	defer reader.Close()
	logger.Info(ctx, "Kafka notification consumer started")
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchBackoff):
			}
			continue
		}
		n, err := queue.Decode(msg.Value)
		if err != nil {
			logger.Error(ctx, "Worker decode failed", "error", err, "payload", string(msg.Value))
		} else if err := pool.Submit(ctx, n); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		// Undecodable messages are committed too.
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

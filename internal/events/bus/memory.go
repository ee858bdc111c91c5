package bus

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kandev/kanboard/internal/common/logger"
)

// ErrClosed is returned by a closed bus.
var ErrClosed = errors.New("event bus is closed")

// subscriptionBuffer is the number of events queued per subscription before
// Publish blocks.
const subscriptionBuffer = 256

// MemoryEventBus implements EventBus in process. Every subscription has its
// own goroutine and sees events in the order they were published.
type MemoryEventBus struct {
	logger *logger.Logger

	mu     sync.RWMutex
	subs   []*memorySubscription
	closed bool
}

type delivery struct {
	ctx     context.Context
	subject string
	event   *Event
}

type memorySubscription struct {
	bus     *MemoryEventBus
	subject string
	tokens  []string
	handler EventHandler
	queue   chan delivery
	done    chan struct{}
	once    sync.Once
}

// NewMemoryEventBus creates a new in-memory event bus
func NewMemoryEventBus(log *logger.Logger) *MemoryEventBus {
	if log == nil {
		log = logger.Default()
	}
	return &MemoryEventBus{logger: log}
}

// Publish queues event for every subscription whose pattern matches subject.
// It blocks only while a subscriber's queue is full.
func (b *MemoryEventBus) Publish(ctx context.Context, subject string, event *Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	var targets []*memorySubscription
	for _, sub := range b.subs {
		if matchSubject(sub.tokens, subject) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	// handlers outlive the publisher's request
	d := delivery{ctx: context.WithoutCancel(ctx), subject: subject, event: event}
	for _, sub := range targets {
		select {
		case sub.queue <- d:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.logger.Debug("Published event",
		zap.String("subject", subject),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Int("subscribers", len(targets)))
	return nil
}

// Subscribe registers handler for subject, which may use the * and >
// wildcards.
func (b *MemoryEventBus) Subscribe(subject string, handler EventHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		bus:     b,
		subject: subject,
		tokens:  strings.Split(subject, "."),
		handler: handler,
		queue:   make(chan delivery, subscriptionBuffer),
		done:    make(chan struct{}),
	}
	b.subs = append(b.subs, sub)
	go sub.run()

	b.logger.Debug("Subscribed to subject", zap.String("subject", subject))
	return sub, nil
}

// Close stops every subscription. Queued events that were not handled yet
// are dropped.
func (b *MemoryEventBus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	b.logger.Info("Memory event bus closed")
}

// IsConnected returns true until the bus is closed
func (b *MemoryEventBus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}

func (b *MemoryEventBus) remove(target *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub == target {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (s *memorySubscription) run() {
	for {
		select {
		case <-s.done:
			return
		case d := <-s.queue:
			if err := s.handler(d.ctx, d.event); err != nil {
				s.bus.logger.Error("Event handler error",
					zap.String("subject", d.subject),
					zap.String("event_type", d.event.Type),
					zap.Error(err))
			}
		}
	}
}

func (s *memorySubscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Unsubscribe removes the subscription
func (s *memorySubscription) Unsubscribe() error {
	s.stop()
	s.bus.remove(s)
	return nil
}

// IsValid returns whether the subscription is still active
func (s *memorySubscription) IsValid() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// matchSubject matches subject against NATS-style pattern tokens: * matches
// exactly one token and a trailing > matches one or more.
func matchSubject(pattern []string, subject string) bool {
	tokens := strings.Split(subject, ".")
	for i, p := range pattern {
		if p == ">" && i == len(pattern)-1 {
			return len(tokens) > i
		}
		if i >= len(tokens) {
			return false
		}
		if p != "*" && p != tokens[i] {
			return false
		}
	}
	return len(tokens) == len(pattern)
}

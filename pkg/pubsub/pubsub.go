// Package pubsub fans session events out to presentation subscribers.
package pubsub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/logging"
)

// Topic names an event stream.
type Topic string

const (
	// TopicSnapshot carries a full session snapshot after every state change.
	TopicSnapshot Topic = "session.snapshot"
	// TopicLog carries each new action log line.
	TopicLog Topic = "session.log"
	// TopicThreats carries the threat list whenever it changes.
	TopicThreats Topic = "session.threats"
	// TopicObjectives carries objective completions.
	TopicObjectives Topic = "session.objectives"
)

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 100

// ErrClosed is returned by Subscribe after Shutdown.
var ErrClosed = errors.New("pubsub: bus is shut down")

// Event is a published message.
type Event struct {
	Topic   Topic
	Seq     uint64
	At      time.Time
	Payload any
}

// Bus provides non-blocking publish/subscribe. A slow subscriber misses
// events rather than stalling the publisher.
type Bus struct {
	subscribers map[Topic]map[*Subscription]struct{}
	mu          sync.RWMutex
	shutdown    chan struct{}
	isShutdown  bool

	buffer  int
	seq     atomic.Uint64
	dropped atomic.Uint64
	now     func() time.Time
	logger  logging.Logger
}

// Subscription receives events for one or more topics.
type Subscription struct {
	topics    []Topic
	channel   chan Event
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates a bus. buffer <= 0 selects DefaultBuffer. now stamps
// events; nil means time.Now.
func NewBus(buffer int, now func() time.Time, logger logging.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if now == nil {
		now = time.Now
	}
	return &Bus{
		subscribers: make(map[Topic]map[*Subscription]struct{}),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
		now:         now,
		logger:      logging.OrDefault(logger).With(logging.Component("pubsub")),
	}
}

// Subscribe creates a subscription to topics. It ends when ctx is done,
// on Unsubscribe, or on Shutdown; the event channel is closed in every case.
func (b *Bus) Subscribe(ctx context.Context, topics ...Topic) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topics:  topics,
		channel: make(chan Event, b.buffer),
		bus:     b,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	for _, t := range topics {
		if b.subscribers[t] == nil {
			b.subscribers[t] = make(map[*Subscription]struct{})
		}
		b.subscribers[t][sub] = struct{}{}
	}
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
		}
	}()

	return sub, nil
}

// Publish delivers payload to every subscriber of topic and returns how
// many received it.
func (b *Bus) Publish(topic Topic, payload any) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isShutdown || len(b.subscribers[topic]) == 0 {
		return 0
	}

	ev := Event{Topic: topic, Seq: b.seq.Add(1), At: b.now(), Payload: payload}
	delivered := 0
	for sub := range b.subscribers[topic] {
		select {
		case sub.channel <- ev:
			delivered++
		default:
			b.dropped.Add(1)
			b.logger.Debug("subscriber buffer full, event dropped",
				logging.String("topic", string(topic)), logging.Any("seq", ev.Seq))
		}
	}
	return delivered
}

// Dropped returns the number of events skipped because a buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of subscribers for a topic
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes all subscriptions. It is idempotent.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isShutdown {
		return
	}
	b.isShutdown = true
	close(b.shutdown)

	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
}

// Events returns the subscription's event channel
func (s *Subscription) Events() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription from every topic and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	for _, t := range s.topics {
		if subs := s.bus.subscribers[t]; subs != nil {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.bus.subscribers, t)
			}
		}
	}
	s.close()
}

// close must run with the bus lock held so no Publish is mid-send.
func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}

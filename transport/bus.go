// Package transport is a minimal in-process topic bus. It stands in for the
// external message transport; everything in this repository interacts with
// sensors and clients only through it.
package transport

import (
	"sync"
)

// Bus routes published messages to topic subscribers.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]*Subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{topics: map[string][]*Subscription{}}
}

// Subscription receives messages for one topic. Messages arrive on C; slow
// consumers lose the oldest queued message rather than blocking publishers.
type Subscription struct {
	C      chan interface{}
	bus    *Bus
	topic  string
	closed bool
}

// Subscribe registers a subscriber on topic with the given queue depth.
func (b *Bus) Subscribe(topic string, depth int) *Subscription {
	if depth <= 0 {
		depth = 1
	}
	sub := &Subscription{C: make(chan interface{}, depth), bus: b, topic: topic}
	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], sub)
	b.mu.Unlock()
	return sub
}

// Publish delivers msg to all current subscribers of topic.
func (b *Bus) Publish(topic string, msg interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.topics[topic] {
		for {
			select {
			case sub.C <- msg:
			default:
				// drop the oldest queued message and retry
				select {
				case <-sub.C:
				default:
				}
				continue
			}
			break
		}
	}
}

// Close removes the subscription from the bus and closes its channel.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	subs := s.bus.topics[s.topic]
	for i, sub := range subs {
		if sub == s {
			s.bus.topics[s.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(s.C)
}

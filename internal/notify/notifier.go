// Package notify fans out ledger change events to in-process subscribers.
// The HTTP layer uses it to push live updates and invalidate caches after a
// reconciliation commits.
package notify

import (
	"sync"

	applog "stashguard/internal/log"
)

type Topic string

const (
	TopicAccounts   Topic = "accounts"
	TopicOperations Topic = "operations"
	TopicCategories Topic = "categories"
)

// Event describes a committed change. AccountIDs is set for operation events
// and names every account whose balance or history moved.
type Event struct {
	Topic      Topic
	AccountIDs []string
}

const subscriberBuffer = 16

type Notifier struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	logger *applog.Logger
}

func New(logger *applog.Logger) *Notifier {
	return &Notifier{
		subs:   make(map[int]chan Event),
		logger: logger.WithComponent(applog.ComponentNotify),
	}
}

// Subscribe registers a listener for all topics. The returned cancel function
// must be called when the listener goes away; it closes the channel.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan Event, subscriberBuffer)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if c, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber. A subscriber whose buffer
// is full misses the event rather than blocking the publisher; consumers are
// expected to treat any event as a hint to re-read, so a dropped one only
// delays a refresh.
func (n *Notifier) Publish(event Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, ch := range n.subs {
		select {
		case ch <- event:
		default:
			n.logger.Warn("Subscriber too slow, event dropped",
				"subscriber", id, "topic", string(event.Topic))
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

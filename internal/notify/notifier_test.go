package notify

import (
	"testing"

	applog "stashguard/internal/log"
)

func newTestNotifier() *Notifier {
	return New(applog.New(applog.DefaultConfig()))
}

func TestNotifier_PublishReachesAllSubscribers(t *testing.T) {
	n := newTestNotifier()

	ch1, cancel1 := n.Subscribe()
	ch2, cancel2 := n.Subscribe()
	defer cancel1()
	defer cancel2()

	n.Publish(Event{Topic: TopicAccounts})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Topic != TopicAccounts {
				t.Errorf("subscriber %d got topic %q, want accounts", i, ev.Topic)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestNotifier_CancelClosesChannel(t *testing.T) {
	n := newTestNotifier()

	ch, cancel := n.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
	if got := n.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}

	// Cancel is idempotent.
	cancel()
}

func TestNotifier_SlowSubscriberDoesNotBlock(t *testing.T) {
	n := newTestNotifier()

	ch, cancel := n.Subscribe()
	defer cancel()

	// Overfill the buffer; Publish must never block.
	for i := 0; i < subscriberBuffer+5; i++ {
		n.Publish(Event{Topic: TopicOperations, AccountIDs: []string{"acct"}})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	if received != subscriberBuffer {
		t.Errorf("received %d events, want %d buffered", received, subscriberBuffer)
	}
}

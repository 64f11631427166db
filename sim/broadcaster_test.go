package sim

import (
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster(testLogger())

	ch1, cancel1 := b.Subscribe("s1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("s1")
	defer cancel2()

	event := &Event{ID: "e1", SessionID: "s1", Type: EventRequest, Seq: 1}
	b.Publish(event)

	for i, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got.ID != "e1" {
				t.Errorf("subscriber %d got event %s, expected e1", i, got.ID)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestBroadcaster_NoSubscribersIsSilent(t *testing.T) {
	b := NewBroadcaster(testLogger())

	// Nothing to assert beyond not panicking and not blocking.
	b.Publish(&Event{ID: "e1", SessionID: "nobody", Type: EventRequest})

	if n := b.SubscriberCount("nobody"); n != 0 {
		t.Errorf("SubscriberCount = %d, expected 0", n)
	}
}

func TestBroadcaster_SessionsAreIsolated(t *testing.T) {
	b := NewBroadcaster(testLogger())

	ch1, cancel1 := b.Subscribe("s1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("s2")
	defer cancel2()

	b.Publish(&Event{ID: "e1", SessionID: "s1", Type: EventRequest})

	select {
	case <-ch2:
		t.Error("s2 subscriber received an s1 event")
	default:
	}
	select {
	case <-ch1:
	default:
		t.Error("s1 subscriber received nothing")
	}
}

func TestBroadcaster_CancelStopsDelivery(t *testing.T) {
	b := NewBroadcaster(testLogger())

	ch, cancel := b.Subscribe("s1")
	cancel()

	// The channel is closed on cancel.
	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}
	if n := b.SubscriberCount("s1"); n != 0 {
		t.Errorf("SubscriberCount = %d, expected 0", n)
	}

	// Cancelling twice is safe.
	cancel()
}

func TestBroadcaster_SlowSubscriberIsSkipped(t *testing.T) {
	b := NewBroadcaster(testLogger())

	ch, cancel := b.Subscribe("s1")
	defer cancel()

	// Fill the buffer and then publish one more.
	for i := 0; i <= subscriberBuffer; i++ {
		b.Publish(&Event{ID: "e", SessionID: "s1", Seq: uint64(i)})
	}

	// The subscriber still has exactly a buffer's worth; the overflow was
	// dropped, not queued.
	drained := 0
	for {
		select {
		case <-ch:
			drained++
			continue
		default:
		}
		break
	}
	if drained != subscriberBuffer {
		t.Errorf("drained %d events, expected %d", drained, subscriberBuffer)
	}
}

func TestBroadcaster_CloseSessionClosesChannels(t *testing.T) {
	b := NewBroadcaster(testLogger())

	ch, cancel := b.Subscribe("s1")

	b.CloseSession("s1")

	if _, open := <-ch; open {
		t.Error("channel still open after CloseSession")
	}
	// A late cancel on an already-removed subscription is a no-op.
	cancel()
}

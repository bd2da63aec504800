package transport

import (
	"testing"

	"go.viam.com/test"
)

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("scan", 4)
	defer sub.Close()

	bus.Publish("scan", 1)
	bus.Publish("scan", 2)
	bus.Publish("other", 99)

	test.That(t, <-sub.C, test.ShouldEqual, 1)
	test.That(t, <-sub.C, test.ShouldEqual, 2)
	select {
	case msg := <-sub.C:
		t.Fatalf("unexpected message %v", msg)
	default:
	}
}

func TestDropOldest(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("scan", 2)
	defer sub.Close()

	bus.Publish("scan", 1)
	bus.Publish("scan", 2)
	bus.Publish("scan", 3)

	test.That(t, <-sub.C, test.ShouldEqual, 2)
	test.That(t, <-sub.C, test.ShouldEqual, 3)
}

func TestCloseUnsubscribes(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("scan", 1)
	sub.Close()
	bus.Publish("scan", 1)

	_, ok := <-sub.C
	test.That(t, ok, test.ShouldBeFalse)
}

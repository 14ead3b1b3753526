package execpool_test

import (
	"testing"
	"time"

	"github.com/skryldev/videoproc/execpool"
)

func TestActor_SerializesMessages(t *testing.T) {
	a := execpool.NewActor(8)
	defer a.Stop()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		i := i
		a.Send(func() { order = append(order, i) })
	}
	a.Send(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("actor never drained its mailbox")
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("messages ran out of order: %v", order)
		}
	}
}

func TestSendSync_ReturnsValue(t *testing.T) {
	a := execpool.NewActor(8)
	defer a.Stop()

	got := execpool.SendSync(a, func() string { return "ok" })
	if got != "ok" {
		t.Errorf("SendSync: got %q, want %q", got, "ok")
	}
}

func TestActor_StopDrainsInFlightMessage(t *testing.T) {
	a := execpool.NewActor(1)
	ran := make(chan struct{})
	a.Send(func() { close(ran) })
	a.Stop()

	select {
	case <-ran:
	default:
		t.Fatal("Stop returned before the in-flight message finished")
	}
}

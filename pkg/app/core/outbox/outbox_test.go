package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uhyunpark/homebroker/pkg/app/core/orderbook"
)

func TestOutbox_DrainKeepsOrder(t *testing.T) {
	o := New()

	o.Push([]orderbook.Fill{{ID: "f1"}, {ID: "f2"}}, orderbook.Order{ID: "o1"})
	o.Push([]orderbook.Fill{{ID: "f3"}}, orderbook.Order{ID: "o2"}, orderbook.Order{ID: "o3"})

	if got := o.Len(); got != 6 {
		t.Fatalf("Len() = %d, want 6", got)
	}

	b := o.Drain(0)
	wantFills := []string{"f1", "f2", "f3"}
	wantOrders := []string{"o1", "o2", "o3"}
	for i, f := range b.Fills {
		if f.ID != wantFills[i] {
			t.Errorf("fill[%d] = %s, want %s", i, f.ID, wantFills[i])
		}
	}
	for i, ord := range b.Orders {
		if ord.ID != wantOrders[i] {
			t.Errorf("order[%d] = %s, want %s", i, ord.ID, wantOrders[i])
		}
	}
	if o.Len() != 0 {
		t.Errorf("outbox not empty after full drain: %d", o.Len())
	}
}

func TestOutbox_DrainLimit(t *testing.T) {
	o := New()
	o.Push([]orderbook.Fill{{ID: "f1"}, {ID: "f2"}, {ID: "f3"}})

	b := o.Drain(2)
	if len(b.Fills) != 2 || b.Fills[0].ID != "f1" || b.Fills[1].ID != "f2" {
		t.Fatalf("first drain = %+v", b.Fills)
	}
	b = o.Drain(2)
	if len(b.Fills) != 1 || b.Fills[0].ID != "f3" {
		t.Fatalf("second drain = %+v", b.Fills)
	}
	if !o.Drain(2).Empty() {
		t.Error("expected empty batch")
	}
}

func TestOutbox_ReadySignalsOnce(t *testing.T) {
	o := New()
	o.Push(nil) // nothing to deliver, no signal

	select {
	case <-o.Ready():
		t.Fatal("empty push must not signal")
	default:
	}

	o.Push([]orderbook.Fill{{ID: "f1"}})
	o.Push([]orderbook.Fill{{ID: "f2"}})

	select {
	case <-o.Ready():
	default:
		t.Fatal("expected ready signal")
	}
	select {
	case <-o.Ready():
		t.Fatal("signals must coalesce")
	default:
	}
}

func TestOutbox_RunDeliversAndFlushes(t *testing.T) {
	o := New()

	got := make(chan Batch, 8)
	sink := SinkFunc(func(_ context.Context, b Batch) error {
		got <- b
		return nil
	})
	failing := SinkFunc(func(context.Context, Batch) error {
		return errors.New("down")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx, nil, 0, failing, sink)
		close(done)
	}()

	o.Push([]orderbook.Fill{{ID: "f1"}}, orderbook.Order{ID: "o1"})

	select {
	case b := <-got:
		if len(b.Fills) != 1 || b.Fills[0].ID != "f1" {
			t.Fatalf("unexpected batch %+v", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("batch not delivered")
	}

	cancel()
	<-done

	if o.Len() != 0 {
		t.Errorf("outbox should be empty after shutdown, has %d", o.Len())
	}
}

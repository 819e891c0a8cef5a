package outbox

import (
	"context"
	"testing"
)

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

type ponged struct{}

func (ponged) EventName() string { return "test.ponged" }

func TestHandleDispatchesConcreteType(t *testing.T) {
	var got int
	h := Handle(func(_ context.Context, e pinged) error {
		got = e.n
		return nil
	})
	if err := h(context.Background(), pinged{n: 7}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
	if err := h(context.Background(), ponged{}); err == nil {
		t.Fatal("expected an error for a mismatched event type")
	}
}

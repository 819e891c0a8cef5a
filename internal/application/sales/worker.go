package sales

import (
	"context"

	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	dompur "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	workerpresentation "github.com/Zhima-Mochi/vending-machine/internal/presentation/worker"

	"go.opentelemetry.io/otel/trace"
)

const workerService = "sales_worker"

// Worker subscribes the Ledger to the events published after commits.
type Worker struct {
	subscriber domoutbox.Subscriber
	ledger     *Ledger
	tel        observability.Observability
	log        observability.Logger
}

func NewWorker(subscriber domoutbox.Subscriber, ledger *Ledger, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		ledger:     ledger,
		tel:        tel,
		log:        tel.Logger().With(observability.F("service", workerService)),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.ledger == nil {
		return
	}
	w.subscriber.Subscribe(dompur.SettledEvent{}.EventName(), domoutbox.Handle(w.handleSettled))
	w.subscriber.Subscribe(domacc.DepositedEvent{}.EventName(), domoutbox.Handle(w.handleDeposited))
	w.subscriber.Subscribe(dominv.SoldOutEvent{}.EventName(), domoutbox.Handle(w.handleSoldOut))
}

func (w *Worker) eventContext(ctx context.Context, e domoutbox.Event) context.Context {
	sc := trace.SpanContextFromContext(ctx)
	return workerpresentation.WithEventContext(ctx, w.log, w.tel, sc.TraceID(), sc.SpanID(),
		map[string]string{"event": e.EventName()})
}

func (w *Worker) handleSettled(ctx context.Context, e dompur.SettledEvent) error {
	return w.ledger.RecordSale(w.eventContext(ctx, e), e)
}

func (w *Worker) handleDeposited(ctx context.Context, e domacc.DepositedEvent) error {
	return w.ledger.RecordDeposit(w.eventContext(ctx, e), e)
}

func (w *Worker) handleSoldOut(ctx context.Context, e dominv.SoldOutEvent) error {
	return w.ledger.RecordSoldOut(w.eventContext(ctx, e), e)
}

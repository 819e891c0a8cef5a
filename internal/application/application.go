package application

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/domain"
	domoutbox "github.com/Zhima-Mochi/vending-machine/internal/domain/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpanPrefix  = "UC."
	publishPeer = "outbox"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

type IDGenerator interface {
	NewID() string
}

// Instruments carries the telemetry every use case reports through.
// Build it once per use case with NewInstruments; the zero value is not usable.
type Instruments struct {
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	metrics      observability.Metrics
}

func NewInstruments(service string, tel observability.Observability) Instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instruments{
		log:          tel.Logger().With(observability.F("service", service)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
		metrics:      m,
	}
}

func (in Instruments) Logger() observability.Logger   { return in.log }
func (in Instruments) Metrics() observability.Metrics { return in.metrics }

// Call tracks one use case execution from Begin to End.
type Call struct {
	in      Instruments
	useCase string
	span    trace.Span
	start   time.Time
	status  string
	fields  []observability.Field
	Log     observability.Logger
}

// Begin opens the span and binds a request-scoped logger.
func (in Instruments) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Call) {
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	return ctx, &Call{
		in:      in,
		useCase: useCase,
		span:    span,
		start:   time.Now(),
		Log:     logger,
	}
}

// With adds fields to the final use_case_done line.
func (c *Call) With(fields ...observability.Field) {
	c.fields = append(c.fields, fields...)
}

// Status overrides the status derived from the returned error.
func (c *Call) Status(status string) {
	c.status = status
}

func (c *Call) Event(name string, attrs ...attribute.KeyValue) {
	if c.span != nil {
		c.span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// End records the span status, RED metrics and the use_case_done log.
func (c *Call) End(ctx context.Context, err error) {
	outcome := Outcome(err)
	status := c.status
	if status == "" {
		status = StatusText(err)
	}

	if c.span != nil {
		if err != nil {
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, status)
		} else {
			c.span.SetStatus(codes.Ok, status)
		}
		c.span.End()
	}

	latency := time.Since(c.start).Seconds()
	c.in.reqCounter.Add(1,
		observability.L("use_case", c.useCase),
		observability.L("outcome", outcome),
	)
	c.in.durHistogram.Observe(latency, observability.L("use_case", c.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", status),
		observability.F("latency_seconds", latency),
	}, c.fields...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	if outcome == "error" {
		c.Log.Error("use_case_done", fields...)
		return
	}
	c.Log.Info("use_case_done", fields...)
}

// Publish hands event to publisher under timeout and reports it as an external call.
// A nil publisher is a no-op.
func (in Instruments) Publish(ctx context.Context, publisher domoutbox.Publisher, timeout time.Duration, event domoutbox.Event) error {
	if publisher == nil || event == nil {
		return nil
	}
	endpoint := event.EventName()

	pubCtx, cancel := context.WithTimeout(ctx, timeout)
	start := time.Now()
	err := publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
		if pubCtx.Err() != nil {
			outcome = "canceled"
		}
	}
	cancel()

	in.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)
	return err
}

// Outcome buckets err for the outcome label: caller mistakes are "rejected",
// everything unexpected is "error".
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrUnauthorized):
		return "rejected"
	default:
		return "error"
	}
}

func StatusText(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, domain.ErrValidation):
		return "INVALID"
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, domain.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELED"
	default:
		return "INTERNAL"
	}
}

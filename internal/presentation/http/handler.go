package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	appaccount "github.com/Zhima-Mochi/vending-machine/internal/application/account"
	appcatalog "github.com/Zhima-Mochi/vending-machine/internal/application/catalog"
	apppurchase "github.com/Zhima-Mochi/vending-machine/internal/application/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/domain"
	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	dompur "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/id"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	maxBodyBytes         = 1 << 20
)

// UseCases lists every operation the HTTP adapter exposes.
type UseCases struct {
	Register      application.UseCase[appaccount.RegisterCommand, *appaccount.RegisterResult]
	Login         application.UseCase[appaccount.LoginCommand, string]
	Logout        application.UseCase[identity.Identity, struct{}]
	GetAccount    application.UseCase[appaccount.GetCommand, *domacc.Account]
	UpdateAccount application.UseCase[appaccount.UpdateCommand, *domacc.Account]
	DeleteAccount application.UseCase[appaccount.DeleteCommand, struct{}]
	Deposit       application.UseCase[appaccount.DepositCommand, int64]
	ResetDeposit  application.UseCase[identity.Identity, int64]
	CreateProduct application.UseCase[appcatalog.CreateCommand, *dominv.Product]
	UpdateProduct application.UseCase[appcatalog.UpdateCommand, *dominv.Product]
	DeleteProduct application.UseCase[appcatalog.DeleteCommand, *dominv.Product]
	GetProduct    application.UseCase[string, *dominv.Product]
	ListProducts  application.UseCase[struct{}, []*dominv.Product]
	Buy           application.UseCase[apppurchase.BuyCommand, *dompur.Receipt]
}

type Handler struct {
	uc       UseCases
	resolver identity.Resolver
	metrics  http.Handler
	log      observability.Logger
	tel      observability.Observability
}

// NewHandler wires the routes. metrics, when non-nil, is mounted at GET /metrics.
func NewHandler(uc UseCases, resolver identity.Resolver, metrics http.Handler, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		uc:       uc,
		resolver: resolver,
		metrics:  metrics,
		log:      baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → ObservabilityMiddleware (request logger + metrics) → Access log → Auth → Handler
	h.muxHandle(mux, http.MethodPost, "/users", false, h.handleRegister)
	h.muxHandle(mux, http.MethodGet, "/users/{id}", true, h.handleGetAccount)
	h.muxHandle(mux, http.MethodPut, "/users/{id}", true, h.handleUpdateAccount)
	h.muxHandle(mux, http.MethodDelete, "/users/{id}", true, h.handleDeleteAccount)
	h.muxHandle(mux, http.MethodPost, "/sessions", false, h.handleLogin)
	h.muxHandle(mux, http.MethodDelete, "/sessions", true, h.handleLogout)

	h.muxHandle(mux, http.MethodPost, "/deposit", true, h.handleDeposit)
	h.muxHandle(mux, http.MethodPost, "/reset", true, h.handleReset)
	h.muxHandle(mux, http.MethodPost, "/buy", true, h.handleBuy)

	h.muxHandle(mux, http.MethodGet, "/products", true, h.handleListProducts)
	h.muxHandle(mux, http.MethodPost, "/products", true, h.handleCreateProduct)
	h.muxHandle(mux, http.MethodGet, "/products/{id}", true, h.handleGetProduct)
	h.muxHandle(mux, http.MethodPut, "/products/{id}", true, h.handleUpdateProduct)
	h.muxHandle(mux, http.MethodDelete, "/products/{id}", true, h.handleDeleteProduct)

	h.muxHandle(mux, http.MethodGet, "/health", false, h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, auth bool, handler http.HandlerFunc) {
	pattern := method + " " + route
	var next http.Handler = handler
	if auth {
		next = h.withAuth(next)
	}
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			h.tel,
		)(
			h.withAccessLog(next),
		),
	)

	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stable route template for low-cardinality labels.
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), pattern)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("vending.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		template := route
		if _, rest, ok := strings.Cut(route, " "); ok {
			template = rest
		}

		ctx, span := tracer.Start(parentCtx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("invalid request body: %v", err))
	}
	if decoder.More() {
		return domain.NewError(domain.ErrValidation, "invalid request body: trailing data")
	}
	return nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeJSON(r, dst); err != nil {
		h.writeDomainError(w, r, err)
		return false
	}
	return true
}

// pathID returns the {id} segment. Ids are UUIDs, so anything else is
// answered with notFound before a use case runs.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, notFound error) (string, bool) {
	v := r.PathValue("id")
	if !id.Valid(v) {
		h.writeDomainError(w, r, notFound)
		return "", false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": true, "message": msg})
}

// writeDomainError maps error kinds to status codes. Anything without a kind
// is logged and reported as an opaque 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error",
			observability.F("route", routeFromContext(r.Context())),
			observability.F("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

package httppresentation

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/identity"
	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/observability/logctx"
)

const headerAuthToken = "X-Auth-Token"

type callerKey struct{}

// withAuth resolves the bearer credential and stores the Identity on the context.
func (h *Handler) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := h.resolver.Resolve(r.Context(), credential(r))
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		ctx = logctx.Enrich(ctx, h.log,
			observability.F("account_id", caller.AccountID),
			observability.F("role", string(caller.Role)),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// credential reads "Authorization: Bearer <token>" and falls back to X-Auth-Token.
func credential(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		scheme, token, ok := strings.Cut(v, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get(headerAuthToken))
}

func callerFrom(ctx context.Context) identity.Identity {
	caller, _ := ctx.Value(callerKey{}).(identity.Identity)
	return caller
}

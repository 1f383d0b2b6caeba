package middleware

import (
	"context"
	"net/http"

	"github.com/nicuwatch/nicudash/internal/auth"
	"github.com/nicuwatch/nicudash/internal/domain/alarm"
	"github.com/nicuwatch/nicudash/internal/pkg/errors"
	"github.com/nicuwatch/nicudash/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// ActorKey is the context key for the authenticated clinician
	ActorKey ContextKey = "actor"
)

// Authenticate rejects requests the gate cannot resolve to an actor
func Authenticate(gate auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := gate.Authenticate(r)
			if err != nil {
				msg := "Invalid or expired token"
				if err == auth.ErrMissingToken {
					msg = "Missing authentication token"
				}
				utils.WriteError(w, errors.Unauthenticated(msg))
				return
			}

			// Add audit info to logs
			AddLogField(w, "user_id", actor.UserID)
			AddLogField(w, "role", actor.Role)

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireActingRole lets only roles that may mutate state through
func RequireActingRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				utils.WriteError(w, errors.Unauthenticated("Authentication required"))
				return
			}
			if !auth.CanAct(actor.Role) {
				utils.WriteError(w, errors.Forbidden("Role "+actor.Role+" may not modify alarms"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor stores actor in ctx
func WithActor(ctx context.Context, actor *alarm.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFromContext returns the authenticated actor, if any
func ActorFromContext(ctx context.Context) (*alarm.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(*alarm.Actor)
	return actor, ok && actor != nil
}

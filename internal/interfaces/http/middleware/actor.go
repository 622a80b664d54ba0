package middleware

import (
	"context"
	"net/http"
	"regexp"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// ActorHeader names the caller recorded in request and appeal history.
const ActorHeader = "X-Actor"

// DefaultActor is used when the header is absent or malformed.
const DefaultActor = "api"

var actorPattern = regexp.MustCompile(`^[A-Za-z0-9@._:-]{1,64}$`)

// Actor copies the X-Actor header and chi's request id into the context keys
// the application layer reads.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(ActorHeader)
		if !actorPattern.MatchString(actor) {
			actor = DefaultActor
		}
		ctx := context.WithValue(r.Context(), common.ContextKeyActor, actor)
		if id := chimw.GetReqID(ctx); id != "" {
			ctx = context.WithValue(ctx, common.ContextKeyRequestID, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromRequest returns the actor set by Actor, or "".
func ActorFromRequest(r *http.Request) string {
	v, _ := r.Context().Value(common.ContextKeyActor).(string)
	return v
}

//Personal.AI order the ending

package reqctx

import "context"

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID string
	Role   string
	Name   string
	Email  string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, keyActor, a)
}

// ActorFromContext returns the actor stored by the auth middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(keyActor).(Actor)
	return a, ok && a.UserID != ""
}

// ActorID returns the caller's user id, or "" for anonymous or background work.
func ActorID(ctx context.Context) string {
	a, _ := ActorFromContext(ctx)
	return a.UserID
}

// Owns reports whether the caller may change records owned by ownerID. Calls
// without an actor come from internal jobs and are allowed.
func Owns(ctx context.Context, ownerID string) bool {
	a, ok := ActorFromContext(ctx)
	if !ok {
		return true
	}
	return a.UserID == ownerID
}

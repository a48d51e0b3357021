package service

import (
	"context"

	"github.com/google/uuid"
)

// Actor is who performed a mutation, captured from the authenticated request
type Actor struct {
	ID        *uuid.UUID
	Name      string
	IP        string
	UserAgent string
}

type actorKey struct{}

// WithActor attaches the acting user to ctx
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the acting user, or a "System" actor for background jobs
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{Name: "System"}
}

// Notifier is told about committed mutations so connected clients can refetch
type Notifier interface {
	Invalidate(resource string, id uuid.UUID)
}

type nopNotifier struct{}

func (nopNotifier) Invalidate(string, uuid.UUID) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

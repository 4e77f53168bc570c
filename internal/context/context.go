// Package context detaches background work from the request that started it.
package context

import (
	"context"
	"time"
)

type detachedContext struct {
	parent context.Context
}

// Detach returns a context that carries the values of ctx (loggers, request ids) but is
// never cancelled and has no deadline.
func Detach(ctx context.Context) context.Context {
	return detachedContext{ctx}
}

// Background detaches ctx and gives the result its own cancel func, so a roster fetch
// scheduled by an HTTP handler survives the handler returning but can still be superseded.
func Background(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(Detach(ctx))
}

func (d detachedContext) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (d detachedContext) Done() <-chan struct{} {
	return nil
}

func (d detachedContext) Err() error {
	return nil
}

func (d detachedContext) Value(key any) any {
	return d.parent.Value(key)
}

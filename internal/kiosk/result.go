package kiosk

import (
	"context"
	"fmt"
)

// Result carries the outcome of an asynchronous collaborator call back to
// the session loop.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// call runs fn and converts a panic into a failed result.
func call[T any](ctx context.Context, fn func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: fmt.Errorf("collaborator call panicked: %v", r)}
		}
	}()
	value, err := fn(ctx)
	return Result[T]{Value: value, Err: err}
}

// dispatch runs fn off the loop and delivers its result on the loop.
func dispatch[T any](p *Poller, fn func(context.Context) (T, error), deliver func(Result[T])) {
	ctx := p.runCtx
	go func() {
		res := call(ctx, fn)
		p.post(func() { deliver(res) })
	}()
}

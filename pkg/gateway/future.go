package gateway

import (
	"context"
)

// Future is the pending result of a call started with Go.
type Future struct {
	done chan struct{}
	env  Envelope
	err  error
}

// Go starts req on the worker pool and returns immediately. The call keeps
// running even if the caller stops waiting; a superseded result is simply
// never read.
func (g *Gateway) Go(ctx context.Context, req Request) *Future {
	f := &Future{done: make(chan struct{})}
	task := func() {
		defer close(f.done)
		f.env, f.err = g.Call(context.WithoutCancel(ctx), req)
	}

	if g.pool == nil {
		go task()
		return f
	}
	if err := g.pool.SubmitCtx(ctx, task); err != nil {
		f.err = &Failure{Kind: NetworkError, Message: MsgNetwork, Err: err}
		close(f.done)
	}
	return f
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks for the result or until ctx is done. Giving up on a Future
// does not cancel the underlying call.
func (f *Future) Wait(ctx context.Context) (Envelope, error) {
	select {
	case <-f.done:
		return f.env, f.err
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// Await waits for f and decodes its data into T.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	env, err := f.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](env)
}

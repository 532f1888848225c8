package httpapi

import (
	"context"
)

// serverBaseCtx ties handler work to the process lifetime. Shutdown cancels
// it so an in-flight generate call stops instead of outliving the listener.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process lifetime context. nil resets to
// Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context that ends as soon as either the process
// context or the request context ends. The cancel func releases the
// watcher goroutine and must be called when the handler returns.
func joinContexts(base, req context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-base.Done():
			cancel()
		case <-req.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

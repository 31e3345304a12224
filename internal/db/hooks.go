package db

import (
	"context"
	"sync"

	"github.com/yigit/ecosphere/internal/pkg/logger"
)

type commitHooksKey struct{}

type commitHooks struct {
	mu    sync.Mutex
	funcs []func()
}

func withCommitHooks(ctx context.Context, hooks *commitHooks) context.Context {
	return context.WithValue(ctx, commitHooksKey{}, hooks)
}

func (h *commitHooks) add(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.funcs = append(h.funcs, fn)
}

// run executes hooks in registration order. A panicking hook is logged and
// does not stop the remaining ones.
func (h *commitHooks) run() {
	h.mu.Lock()
	funcs := h.funcs
	h.funcs = nil
	h.mu.Unlock()

	for _, fn := range funcs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().Interface("panic", r).Msg("After-commit hook panicked")
				}
			}()
			fn()
		}()
	}
}

// AfterCommit registers fn to run after the transaction carried by ctx
// commits. Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
		hooks.add(fn)
		return
	}
	fn()
}

// InTransaction reports whether ctx was created by WithTransaction
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	return ok
}

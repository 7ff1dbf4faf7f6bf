package repokit

import "context"

// BeginHook runs first thing inside every transaction, on the tx itself.
// The harvest repo uses one to set a lock timeout per batch
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks returns inner with hooks prepended to every Tx. Statements
// outside a transaction go to inner untouched
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	return hookedTx{TxRunner: inner, hooks: hooks}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hook := range h.hooks {
			if err := hook(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

package middleware

import (
	"context"
	"time"

	"github.com/aretw0/teller/pkg/domain"
	"github.com/aretw0/teller/pkg/ports"
)

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// ErrPruneUnsupported is returned by Prune when the wrapped store cannot prune.
var ErrPruneUnsupported = domain.ErrPruneUnsupported

// Wrap applies mws to store. The first middleware is the outermost, so it
// sees a Save first and a Load last.
func Wrap(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

func prune(ctx context.Context, next ports.StateStore, before time.Time) ([]string, error) {
	p, ok := next.(ports.Pruner)
	if !ok {
		return nil, ErrPruneUnsupported
	}
	return p.Prune(ctx, before)
}

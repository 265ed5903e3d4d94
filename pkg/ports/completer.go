package ports

import (
	"context"

	"github.com/aretw0/teller/pkg/domain"
)

// Completer is the external language-model completion service.
// Implementations return an error for any network or service failure;
// callers treat it as a first-class outcome.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error)
}

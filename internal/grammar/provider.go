package grammar

import "context"

// Provider is the language->plugin lookup, sync or async. Get may suspend
// in the asynchronous variant; callers must treat it as potentially
// yielding. Implementations MUST memoize so repeated Get(L) returns the
// same plugin identity — this is load-bearing for injection cycles
// (HTML->JS->HTML must reuse the HTML plugin).
type Provider interface {
	Get(ctx context.Context, language string) (Plugin, bool, error)
}

// ProviderFunc adapts a plain function to a Provider, for the embedded
// sync deployments described in §9 where suspension is impossible.
type ProviderFunc func(ctx context.Context, language string) (Plugin, bool, error)

func (f ProviderFunc) Get(ctx context.Context, language string) (Plugin, bool, error) {
	return f(ctx, language)
}

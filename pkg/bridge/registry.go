package bridge

import "sync"

// Registry hands out the process-wide shared Client. At most one live
// instance exists at any time: changing the endpoint discards the old
// instance and releases its connections before the replacement is built.
//
// Get is a mutex-guarded check-then-create, so concurrent first callers
// converge on a single instance rather than each building a redundant one.
// Invalidate is synchronized against Get, so a client is never returned
// mid-teardown.
type Registry struct {
	mu       sync.Mutex
	factory  func(endpoint string) (*Client, error)
	client   *Client
	endpoint string
}

// NewRegistry creates a registry with the default Client factory.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		factory: func(endpoint string) (*Client, error) {
			c := cfg
			c.Endpoint = endpoint
			return New(c)
		},
	}
}

// NewRegistryWithFactory creates a registry building clients via factory.
// The factory receives the already-normalized endpoint.
func NewRegistryWithFactory(factory func(endpoint string) (*Client, error)) *Registry {
	return &Registry{factory: factory}
}

// Get returns the cached client when the normalized endpoint is unchanged;
// otherwise it tears down the previous instance and constructs a new one,
// exactly once even under concurrent callers.
func (r *Registry) Get(endpoint string) (*Client, error) {
	normalized, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil && r.endpoint == normalized {
		return r.client, nil
	}

	if r.client != nil {
		r.client.Close()
		r.client = nil
	}

	client, err := r.factory(normalized)
	if err != nil {
		return nil, err
	}

	r.client = client
	r.endpoint = normalized
	return client, nil
}

// Invalidate force-releases the cached client: pooled connections are
// closed, in-flight retry waits abandoned, and the slot cleared so the next
// Get rebuilds from scratch. Invoked on logout so stale credential state can
// not leak into a new session.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		r.client.Close()
		r.client = nil
		r.endpoint = ""
	}
}

package bridge

import (
	"sync"
	"sync/atomic"
	"testing"
)

func countingRegistry(t *testing.T, built *atomic.Int32) *Registry {
	t.Helper()
	return NewRegistryWithFactory(func(endpoint string) (*Client, error) {
		built.Add(1)
		return New(Config{Endpoint: endpoint, Logger: testLogger()})
	})
}

func TestRegistry_ConcurrentGetBuildsOnce(t *testing.T) {
	var built atomic.Int32
	registry := countingRegistry(t, &built)

	const callers = 16
	clients := make([]*Client, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, err := registry.Get("http://bridge.test")
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			clients[i] = client
		}(i)
	}
	wg.Wait()

	if built.Load() != 1 {
		t.Fatalf("constructed %d clients, want 1", built.Load())
	}
	for i := 1; i < callers; i++ {
		if clients[i] != clients[0] {
			t.Fatalf("caller %d got a different instance", i)
		}
	}
}

func TestRegistry_NormalizedEndpointShared(t *testing.T) {
	var built atomic.Int32
	registry := countingRegistry(t, &built)

	a, err := registry.Get("http://bridge.test/")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := registry.Get("http://bridge.test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if a != b {
		t.Error("trailing-slash spelling built a second instance")
	}
	if built.Load() != 1 {
		t.Errorf("constructed %d clients, want 1", built.Load())
	}
}

func TestRegistry_EndpointChangeReplaces(t *testing.T) {
	var built atomic.Int32
	registry := countingRegistry(t, &built)

	first, err := registry.Get("http://bridge-a.test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := registry.Get("http://bridge-b.test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if first == second {
		t.Fatal("endpoint change did not replace the instance")
	}
	if built.Load() != 2 {
		t.Errorf("constructed %d clients, want 2", built.Load())
	}

	// The replaced instance must be released.
	select {
	case <-first.done:
	default:
		t.Error("replaced client was not closed")
	}
}

func TestRegistry_InvalidateForcesRebuild(t *testing.T) {
	var built atomic.Int32
	registry := countingRegistry(t, &built)

	first, err := registry.Get("http://bridge.test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	registry.Invalidate()

	select {
	case <-first.done:
	default:
		t.Error("invalidated client was not closed")
	}

	second, err := registry.Get("http://bridge.test")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first == second {
		t.Error("Get after Invalidate returned the torn-down instance")
	}
	if built.Load() != 2 {
		t.Errorf("constructed %d clients, want 2", built.Load())
	}
}

func TestRegistry_RejectsBadEndpoint(t *testing.T) {
	var built atomic.Int32
	registry := countingRegistry(t, &built)

	if _, err := registry.Get("not-a-url"); err == nil {
		t.Error("expected endpoint without scheme to be rejected")
	}
	if built.Load() != 0 {
		t.Error("factory ran for an invalid endpoint")
	}
}

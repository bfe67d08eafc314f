package api

import "sync"

// TenantScope is the current tenant for all outbound requests. It is
// constructed once per process and injected into the client; the tenant
// switcher updates it via Set. Reads always observe the latest value
// (last-writer-wins, no caching).
type TenantScope struct {
	mu sync.RWMutex
	id string
}

// NewTenantScope creates a scope with the given initial tenant.
// An empty id falls back to "default".
func NewTenantScope(id string) *TenantScope {
	if id == "" {
		id = "default"
	}
	return &TenantScope{id: id}
}

// Set switches the active tenant. An empty id resets to "default".
func (t *TenantScope) Set(id string) {
	if id == "" {
		id = "default"
	}
	t.mu.Lock()
	t.id = id
	t.mu.Unlock()
}

// Current returns the active tenant id.
func (t *TenantScope) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

package nlquery

import (
	"sync"
	"time"
)

// DefaultKeyCooldown is how long a key that hit a quota error is skipped.
const DefaultKeyCooldown = time.Minute

// KeyManager handles API key rotation
type KeyManager struct {
	keys     []string
	current  int
	disabled map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

// NewKeyManager creates a key manager over the given API keys
func NewKeyManager(keys []string) *KeyManager {
	return &KeyManager{
		keys:     keys,
		disabled: make(map[string]time.Time),
		cooldown: DefaultKeyCooldown,
		now:      time.Now,
	}
}

// Len returns the number of configured keys.
func (km *KeyManager) Len() int {
	return len(km.keys)
}

// GetNextKey returns the next healthy API key in rotation. When every key is
// cooling down it returns the next one anyway.
func (km *KeyManager) GetNextKey() string {
	km.mu.Lock()
	defer km.mu.Unlock()

	if len(km.keys) == 0 {
		return ""
	}

	now := km.now()
	for range km.keys {
		key := km.keys[km.current%len(km.keys)]
		km.current++
		if until, ok := km.disabled[key]; !ok || now.After(until) {
			delete(km.disabled, key)
			return key
		}
	}

	key := km.keys[km.current%len(km.keys)]
	km.current++
	return key
}

// MarkKeyFailed takes a key out of rotation for the cooldown period.
func (km *KeyManager) MarkKeyFailed(key string) {
	km.mu.Lock()
	defer km.mu.Unlock()
	km.disabled[key] = km.now().Add(km.cooldown)
}

package loader

import (
	"fmt"
	"sync"
)

// requestRegistry hands out dense integer tokens for pending loads. Slots
// live in a growable array; released slot indices go onto a free list and
// are reused before the array grows again. Resolving or releasing a token
// that is not live is a protocol violation and panics.
type requestRegistry struct {
	mu    sync.Mutex
	slots []*pendingLoad
	free  []uint64
}

func newRequestRegistry() *requestRegistry {
	return &requestRegistry{}
}

// register stores the pending load and returns its token. No two live
// requests ever share a token.
func (r *requestRegistry) register(p *pendingLoad) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.free); n > 0 {
		token := r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[token] = p
		return token
	}

	r.slots = append(r.slots, p)
	return uint64(len(r.slots) - 1)
}

// resolve returns the pending load for a live token without releasing it.
func (r *requestRegistry) resolve(token uint64) *pendingLoad {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token >= uint64(len(r.slots)) {
		panic(fmt.Sprintf("load registry: token %d out of range (slots=%d)", token, len(r.slots)))
	}
	p := r.slots[token]
	if p == nil {
		panic(fmt.Sprintf("load registry: token %d resolved after release", token))
	}
	return p
}

// release recycles the slot behind a live token. The stored reference is
// cleared so the target object is not retained past dispatch.
func (r *requestRegistry) release(token uint64) *pendingLoad {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token >= uint64(len(r.slots)) {
		panic(fmt.Sprintf("load registry: token %d out of range (slots=%d)", token, len(r.slots)))
	}
	p := r.slots[token]
	if p == nil {
		panic(fmt.Sprintf("load registry: token %d released twice", token))
	}
	r.slots[token] = nil
	r.free = append(r.free, token)
	return p
}

// live returns the number of tokens currently held by pending loads.
func (r *requestRegistry) live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots) - len(r.free)
}

// total returns how many slots the registry has ever allocated.
func (r *requestRegistry) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

package llm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joseph-ayodele/property-annotator/internal/common"
)

// CredentialState is the rotation state of a CredentialPool.
type CredentialState string

const (
	CredentialsActive    CredentialState = "active"
	CredentialsExhausted CredentialState = "exhausted"
)

// CredentialPool is an ordered set of oracle credentials with a current index.
//
// The pool is either Active(i) with 0 <= i < Size() or Exhausted. Advancing past
// the last credential is the exhaustion transition; it only reverts on Reset.
// Safe for concurrent use.
type CredentialPool struct {
	mu        sync.Mutex
	keys      []string
	idx       int
	exhausted bool
}

// NewCredentialPool builds a pool from keys in rotation order. Blank keys are ignored.
func NewCredentialPool(keys []string) (*CredentialPool, error) {
	var clean []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, common.NewAppError("CONFIG_ERROR", "credential pool is empty", common.ErrConfig)
	}
	return &CredentialPool{keys: clean}, nil
}

// Size returns the number of credentials in the pool.
func (p *CredentialPool) Size() int {
	return len(p.keys)
}

// Current returns the active credential and its index; ok is false once exhausted.
func (p *CredentialPool) Current() (key string, index int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exhausted {
		return "", p.idx, false
	}
	return p.keys[p.idx], p.idx, true
}

// Advance moves past the credential at index from after a rate-limit signal.
// If another caller already rotated away from it, the current credential is
// returned unchanged. Advancing past the last credential exhausts the pool.
func (p *CredentialPool) Advance(from int) (key string, index int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exhausted {
		return "", p.idx, false
	}
	if from != p.idx {
		return p.keys[p.idx], p.idx, true
	}
	if p.idx+1 >= len(p.keys) {
		p.exhausted = true
		return "", p.idx, false
	}
	p.idx++
	return p.keys[p.idx], p.idx, true
}

// State reports Active or Exhausted.
func (p *CredentialPool) State() CredentialState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exhausted {
		return CredentialsExhausted
	}
	return CredentialsActive
}

// Exhausted reports whether the pool has run out of credentials.
func (p *CredentialPool) Exhausted() bool {
	return p.State() == CredentialsExhausted
}

// Reset returns the pool to its first credential.
func (p *CredentialPool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idx = 0
	p.exhausted = false
}

func (p *CredentialPool) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exhausted {
		return fmt.Sprintf("exhausted(%d)", len(p.keys))
	}
	return fmt.Sprintf("active(%d/%d)", p.idx+1, len(p.keys))
}

package sampler

import "fmt"

// RemovalPolicy selects how a drawn key leaves the pool. The policy fixes the
// pool layout after every draw, so together with the seed and the initial
// pool order it fully determines the draw sequence.
type RemovalPolicy string

const (
	// RemoveSwap moves the last key into the drawn slot and shrinks the pool by one. O(1).
	RemoveSwap RemovalPolicy = "swap"
	// RemoveShift deletes the drawn slot and shifts the tail left, keeping relative order. O(n).
	RemoveShift RemovalPolicy = "shift"
)

// ParseRemovalPolicy converts a config value. Empty selects RemoveSwap.
func ParseRemovalPolicy(s string) (RemovalPolicy, error) {
	switch RemovalPolicy(s) {
	case "", RemoveSwap:
		return RemoveSwap, nil
	case RemoveShift:
		return RemoveShift, nil
	default:
		return "", fmt.Errorf("unknown removal policy %q (want %q or %q)", s, RemoveSwap, RemoveShift)
	}
}

// Rand is the random source contract: IntN returns a uniform integer in [0, n-1].
type Rand interface {
	IntN(n int) int
}

// pool holds the keys that have not been considered yet.
type pool struct {
	keys   []string
	policy RemovalPolicy
}

func newPool(keys []string, policy RemovalPolicy) *pool {
	owned := make([]string, len(keys))
	copy(owned, keys)
	return &pool{keys: owned, policy: policy}
}

func (p *pool) len() int { return len(p.keys) }

// draw removes and returns a uniformly chosen key.
func (p *pool) draw(rng Rand) string {
	i := rng.IntN(len(p.keys))
	key := p.keys[i]
	p.remove(i)
	return key
}

func (p *pool) remove(i int) {
	last := len(p.keys) - 1
	switch p.policy {
	case RemoveShift:
		copy(p.keys[i:], p.keys[i+1:])
	default:
		p.keys[i] = p.keys[last]
	}
	p.keys[last] = ""
	p.keys = p.keys[:last]
}

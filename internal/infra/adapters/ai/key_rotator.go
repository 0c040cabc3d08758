package ai

import (
	"errors"
	"strings"
	"sync/atomic"
)

// KeyRotator hands out API keys round-robin so a burst of calls is spread
// across every configured key.
type KeyRotator struct {
	keys []string
	next atomic.Uint64
}

func NewKeyRotator(keys []string) (*KeyRotator, error) {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, errors.New("key rotator: no api keys")
	}
	return &KeyRotator{keys: clean}, nil
}

// Next returns the index of the next key to use.
func (r *KeyRotator) Next() int {
	return int((r.next.Add(1) - 1) % uint64(len(r.keys)))
}

func (r *KeyRotator) Key(i int) string { return r.keys[i] }

func (r *KeyRotator) Len() int { return len(r.keys) }

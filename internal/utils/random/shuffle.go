package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Shuffle performs a cryptographically secure Fisher-Yates shuffle in place.
func Shuffle[T any](slice []T) error {
	for i := len(slice) - 1; i > 0; i-- {
		j, err := intn(i + 1)
		if err != nil {
			return err
		}
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// Sample returns min(k, len(items)) distinct elements drawn uniformly.
// The input slice is left untouched.
func Sample[T any](items []T, k int) ([]T, error) {
	if k <= 0 || len(items) == 0 {
		return []T{}, nil
	}
	pool := make([]T, len(items))
	copy(pool, items)
	if err := Shuffle(pool); err != nil {
		return nil, err
	}
	if k > len(pool) {
		k = len(pool)
	}
	return pool[:k], nil
}

func intn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}

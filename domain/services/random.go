package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// IndexPicker returns a uniformly distributed index in [0, n)
type IndexPicker func(n int) (int, error)

// CryptoIndexPicker picks with crypto/rand
func CryptoIndexPicker(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("cannot pick from %d candidates", n)
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random index: %w", err)
	}
	return int(idx.Int64()), nil
}

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the one-way credential hashing primitive.
type Hasher interface {
	// Hash returns a storable hash of key.
	Hash(key string) (string, error)
	// Compare reports whether key hashes to hash, in constant time.
	Compare(hash, key string) bool
}

// BcryptHasher hashes keys with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Zero selects bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}

	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// Compile-time check.
var _ Hasher = (*BcryptHasher)(nil)

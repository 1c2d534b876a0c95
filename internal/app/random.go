package app

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// RandomSource yields uniform floats in [0, 1).
type RandomSource interface {
	Float64() float64
}

// cryptoSource prefers crypto/rand and falls back to a seeded math/rand generator
// when the system source cannot be read.
type cryptoSource struct {
	mu       sync.Mutex
	fallback *rand.Rand
}

// NewCryptoSource returns the production RandomSource.
func NewCryptoSource() RandomSource {
	return &cryptoSource{fallback: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *cryptoSource) Float64() float64 {
	var buf [4]byte
	if _, err := cryptorand.Read(buf[:]); err == nil {
		return float64(binary.BigEndian.Uint32(buf[:])) / (1 << 32)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallback.Float64()
}

// intn maps a RandomSource draw onto [0, n).
func intn(src RandomSource, n int) int {
	j := int(src.Float64() * float64(n))
	if j >= n {
		j = n - 1
	}
	if j < 0 {
		j = 0
	}
	return j
}

// shuffle permutes items in place with Fisher-Yates.
func shuffle[T any](src RandomSource, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := intn(src, i+1)
		items[i], items[j] = items[j], items[i]
	}
}

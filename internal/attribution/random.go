package attribution

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// RandomSource is the single randomness dependency for strategies, catalog
// shuffling and adapters. Injected so tests can substitute deterministic
// draws without touching engine logic.
type RandomSource interface {
	// Float64 returns a uniform sample in [0, 1).
	Float64() float64
	// Intn returns a uniform int in [0, n). n must be > 0.
	Intn(n int) int
}

// CryptoSource draws from crypto/rand. Attribution outcomes must be
// unpredictable, so a seeded PRNG here would be a correctness defect.
type CryptoSource struct{}

func NewCryptoSource() CryptoSource {
	return CryptoSource{}
}

const float64Denominator = 1 << 53

func (CryptoSource) Float64() float64 {
	v, err := rand.Int(rand.Reader, big.NewInt(float64Denominator))
	if err != nil {
		return 0
	}
	return float64(v.Int64()) / float64Denominator
}

func (CryptoSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// SeqSource replays a scripted sequence of samples. Test helper; wraps around
// when the script runs out.
type SeqSource struct {
	mu     sync.Mutex
	Values []float64
	pos    int
}

func NewSeqSource(values ...float64) *SeqSource {
	return &SeqSource{Values: values}
}

func (s *SeqSource) next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

func (s *SeqSource) Float64() float64 {
	return s.next()
}

func (s *SeqSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.next() * float64(n))
}

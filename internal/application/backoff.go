package application

import (
	"math/rand/v2"
	"time"
)

// Inter-cycle pacing. Successful cycles wait a deliberately irregular bounded
// random interval; failed cycles sit out a fixed cooldown so a broken account
// never hammers the platform in a tight loop.
const (
	DefaultSuccessMin     = 60 * time.Second
	DefaultSuccessMax     = 120 * time.Second
	DefaultFailureCoolOff = 5 * time.Minute
)

// SuccessBackoff draws the wait after a successful cycle uniformly from
// [Min, Max].
type SuccessBackoff struct {
	Min time.Duration
	Max time.Duration
}

func (b SuccessBackoff) Next(rng *rand.Rand) time.Duration {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + time.Duration(rng.Int64N(int64(b.Max-b.Min)+1))
}

// FailureBackoff is the fixed cooldown after a failed cycle.
type FailureBackoff struct {
	Cooldown time.Duration
}

func (b FailureBackoff) Next(*rand.Rand) time.Duration {
	return b.Cooldown
}

// jitter draws an inter-command pacing delay from [min, max].
func jitter(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int64N(int64(max-min)+1))
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

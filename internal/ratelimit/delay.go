package ratelimit

import (
	"math/rand"
	"time"
)

// DelayPolicy draws a wait for one action. base must lie in [min, max];
// jitter is added after backoff scaling.
type DelayPolicy func(min, max time.Duration) (base, jitter time.Duration)

// HumanDelay draws base from a normal distribution centred on the middle of
// [min, max] (σ = range/6), clamps it, and adds ±jitterRange·base of uniform jitter.
func HumanDelay(rng *rand.Rand, jitterRange float64) DelayPolicy {
	return func(min, max time.Duration) (time.Duration, time.Duration) {
		lo, hi := min.Seconds(), max.Seconds()
		mean := (lo + hi) / 2
		stdDev := (hi - lo) / 6

		base := rng.NormFloat64()*stdDev + mean
		if base < lo {
			base = lo
		}
		if base > hi {
			base = hi
		}

		amount := base * jitterRange
		jitter := (rng.Float64()*2 - 1) * amount

		return seconds(base), seconds(jitter)
	}
}

// FixedDelay always returns the given base with no jitter, clamped to [min, max]
func FixedDelay(d time.Duration) DelayPolicy {
	return func(min, max time.Duration) (time.Duration, time.Duration) {
		if d < min {
			return min, 0
		}
		if d > max {
			return max, 0
		}
		return d, 0
	}
}

// MinimumDelay disables randomisation and always waits the minimum
func MinimumDelay() DelayPolicy {
	return func(min, _ time.Duration) (time.Duration, time.Duration) {
		return min, 0
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

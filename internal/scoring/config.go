package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig rejects configurations that would make scores unbounded
// or meaningless.
var ErrInvalidConfig = errors.New("scoring: invalid config")

// DefaultMaxDistanceKm is the influence cutoff used when none is given.
const DefaultMaxDistanceKm = 500.0

// SortMode selects the ranking order.
type SortMode int

const (
	// BenefitFirst orders by benefit score descending.
	BenefitFirst SortMode = iota
	// IntensityFirst orders by intensity score descending.
	IntensityFirst
	// BalancedBenefit orders by benefit minus the volatility penalty.
	BalancedBenefit
)

var sortModeNames = [...]string{"benefit", "intensity", "balanced"}

func (m SortMode) String() string {
	if m < BenefitFirst || m > BalancedBenefit {
		return fmt.Sprintf("SortMode(%d)", int(m))
	}
	return sortModeNames[m]
}

// ParseSortMode maps a sort mode name to its constant.
func ParseSortMode(s string) (SortMode, error) {
	for i, n := range sortModeNames {
		if n == s {
			return SortMode(i), nil
		}
	}
	return 0, fmt.Errorf("scoring: unknown sort mode %q", s)
}

// Config holds the scoring parameters.
type Config struct {
	Kernel            Kernel  `json:"kernelType"`
	KernelParameterKm float64 `json:"kernelParameter"`
	MaxDistanceKm     float64 `json:"maxDistanceKm"`
	VolatilityPenalty float64 `json:"volatilityPenalty"`
}

// Balanced is the recommended default: a Gaussian with sigma 180 km.
func Balanced() Config {
	return Config{
		Kernel:            Gaussian,
		KernelParameterKm: 180.0,
		MaxDistanceKm:     500.0,
		VolatilityPenalty: 0.3,
	}
}

// HighPrecision weights nearby lines sharply with a tighter sigma.
func HighPrecision() Config {
	return Config{
		Kernel:            Gaussian,
		KernelParameterKm: 120.0,
		MaxDistanceKm:     600.0,
		VolatilityPenalty: 0.4,
	}
}

// Relaxed spreads influence linearly out to the full cutoff.
func Relaxed() Config {
	return Config{
		Kernel:            Linear,
		KernelParameterKm: 500.0,
		MaxDistanceKm:     500.0,
		VolatilityPenalty: 0.2,
	}
}

// Presets maps preset names to their constructors.
var Presets = map[string]func() Config{
	"balanced":       Balanced,
	"high_precision": HighPrecision,
	"relaxed":        Relaxed,
}

// Validate rejects non-positive distances and parameters before any
// scoring begins.
func (c Config) Validate() error {
	if c.Kernel < Linear || c.Kernel > Exponential {
		return fmt.Errorf("%w: kernel %d", ErrInvalidConfig, int(c.Kernel))
	}
	if c.KernelParameterKm <= 0 {
		return fmt.Errorf("%w: kernel parameter %.2f", ErrInvalidConfig, c.KernelParameterKm)
	}
	if c.MaxDistanceKm <= 0 {
		return fmt.Errorf("%w: max distance %.2f", ErrInvalidConfig, c.MaxDistanceKm)
	}
	if c.VolatilityPenalty < 0 {
		return fmt.Errorf("%w: volatility penalty %.2f", ErrInvalidConfig, c.VolatilityPenalty)
	}
	return nil
}

// Apply evaluates the configured kernel at a distance.
func (c Config) Apply(distanceKm float64) float64 {
	return c.Kernel.Apply(distanceKm, c.KernelParameterKm)
}

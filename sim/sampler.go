package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// ServiceTimeSampler draws service durations from a per-window mixture of a
// gamma and a uniform distribution, and exposes per-window arrival rates.
//
// The mixture branch is evaluated independently on every call: with
// probability mixture_prob the draw comes from Gamma(shape, scale=1/rate),
// otherwise from Uniform[min, max).
type ServiceTimeSampler struct {
	configs map[string]DistributionConfig
	rng     *rand.Rand
}

// NewServiceTimeSampler creates a sampler over the given per-window configs,
// consuming randomness from rng.
func NewServiceTimeSampler(configs map[string]DistributionConfig, rng *rand.Rand) *ServiceTimeSampler {
	return &ServiceTimeSampler{configs: configs, rng: rng}
}

// Sample returns a positive service duration in seconds for the given window.
// Fails if no distribution is registered for the window.
func (s *ServiceTimeSampler) Sample(window string) (float64, error) {
	cfg, ok := s.configs[window]
	if !ok {
		return 0, fmt.Errorf("no distribution config for window %q", window)
	}
	if s.rng.Float64() < cfg.MixtureProb {
		return gammaRand(s.rng, cfg.Gamma.Shape, 1.0/cfg.Gamma.Rate), nil
	}
	return cfg.Uniform.Min + s.rng.Float64()*(cfg.Uniform.Max-cfg.Uniform.Min), nil
}

// ArrivalRatePerHour returns the configured arrival rate for the window.
func (s *ServiceTimeSampler) ArrivalRatePerHour(window string) (float64, error) {
	cfg, ok := s.configs[window]
	if !ok {
		return 0, fmt.Errorf("no distribution config for window %q", window)
	}
	return cfg.ArrivalRatePerHour, nil
}

// ArrivalRatePerSecond returns the window's arrival rate converted to
// arrivals per simulated second.
func (s *ServiceTimeSampler) ArrivalRatePerSecond(window string) (float64, error) {
	perHour, err := s.ArrivalRatePerHour(window)
	if err != nil {
		return 0, err
	}
	return perHour / 3600.0, nil
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape >= 1: direct method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		// Ahrens-Dieter: Gamma(a) = Gamma(a+1) * U^(1/a)
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	// Marsaglia-Tsang for shape >= 1
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

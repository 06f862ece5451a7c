package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// hoursPerDay is the length of the repeating window cycle.
const hoursPerDay = 24.0

// SecondsPerDay is the simulated length of one day in seconds.
const SecondsPerDay = 24 * 3600.0

// boundaryEpsilon absorbs float noise when checking that windows tile the day.
const boundaryEpsilon = 1e-9

// defaultStartDate anchors simulated seconds to calendar timestamps when the
// config does not specify one.
const defaultStartDate = "2025-01-01"

// Config is the top-level simulation configuration.
// Loaded from YAML via LoadConfig(path).
type Config struct {
	Simulation    SimulationSettings            `yaml:"simulation"`
	TimeWindows   map[string]WindowSpan         `yaml:"time_windows"`
	Distributions map[string]DistributionConfig `yaml:"distributions"`
}

// SimulationSettings holds run-level parameters.
type SimulationSettings struct {
	Name                 string    `yaml:"name,omitempty"`
	NNests               int       `yaml:"n_nests"`
	HensNumber           int       `yaml:"hens_number"`
	DurationDays         int       `yaml:"duration_days"`
	Discipline           string    `yaml:"discipline,omitempty"` // fifo (default), siro, infinite
	NestSelectionWeights []float64 `yaml:"nest_selection_weights,omitempty"`
	Seed                 int64     `yaml:"seed,omitempty"`
	StartDate            string    `yaml:"start_date,omitempty"` // YYYY-MM-DD
}

// WindowSpan is a named segment of the daily cycle in hours.
// Wraps across midnight when Start > End; intervals are half-open [Start, End).
type WindowSpan struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// Hours returns the span length in hours, accounting for midnight wrap.
func (w WindowSpan) Hours() float64 {
	return math.Mod(w.End-w.Start+hoursPerDay, hoursPerDay)
}

// Contains reports whether the given hour of day falls inside the span.
func (w WindowSpan) Contains(hour float64) bool {
	if w.Start <= w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

// DistributionConfig parameterizes one window's service-time mixture and
// arrival rate.
type DistributionConfig struct {
	Gamma              GammaConfig   `yaml:"gamma"`
	Uniform            UniformConfig `yaml:"uniform"`
	MixtureProb        float64       `yaml:"mixture_prob"`
	ArrivalRatePerHour float64       `yaml:"arrival_rate_per_hour"`
}

// GammaConfig holds shape/rate parameters for the gamma component.
type GammaConfig struct {
	Shape float64 `yaml:"shape"`
	Rate  float64 `yaml:"rate"`
}

// UniformConfig holds the bounds of the uniform component.
type UniformConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// LoadConfig reads and parses a YAML simulation configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Name returns the configured run name, defaulting to "sim".
func (c *Config) Name() string {
	if c.Simulation.Name == "" {
		return "sim"
	}
	return c.Simulation.Name
}

// StartTime returns the calendar instant corresponding to simulated second 0.
// Validate must have succeeded first.
func (c *Config) StartTime() time.Time {
	date := c.Simulation.StartDate
	if date == "" {
		date = defaultStartDate
	}
	t, _ := time.Parse("2006-01-02", date)
	return t
}

// Validate checks the whole configuration eagerly, so every configuration
// error surfaces before any event is processed.
func (c *Config) Validate() error {
	s := &c.Simulation
	if s.NNests <= 0 {
		return fmt.Errorf("simulation.n_nests must be positive, got %d", s.NNests)
	}
	if s.HensNumber <= 0 {
		return fmt.Errorf("simulation.hens_number must be positive, got %d", s.HensNumber)
	}
	if s.DurationDays <= 0 {
		return fmt.Errorf("simulation.duration_days must be positive, got %d", s.DurationDays)
	}
	if s.Discipline != "" && !validDisciplines[s.Discipline] {
		return fmt.Errorf("simulation.discipline %q unknown; valid: fifo, siro, infinite", s.Discipline)
	}
	if len(s.NestSelectionWeights) > 0 {
		if len(s.NestSelectionWeights) != s.NNests {
			return fmt.Errorf("simulation.nest_selection_weights has %d entries, want %d",
				len(s.NestSelectionWeights), s.NNests)
		}
		total := 0.0
		for i, w := range s.NestSelectionWeights {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return fmt.Errorf("simulation.nest_selection_weights[%d] must be finite and non-negative, got %f", i, w)
			}
			total += w
		}
		if total <= 0 {
			return fmt.Errorf("simulation.nest_selection_weights must sum to a positive value")
		}
	}
	if s.StartDate != "" {
		if _, err := time.Parse("2006-01-02", s.StartDate); err != nil {
			return fmt.Errorf("simulation.start_date %q is not YYYY-MM-DD: %w", s.StartDate, err)
		}
	}

	if err := c.validateWindows(); err != nil {
		return err
	}
	return c.validateDistributions()
}

// validateWindows checks that the named windows tile the full 24-hour cycle:
// half-open spans, chained boundaries, no holes, no overlaps.
func (c *Config) validateWindows() error {
	if len(c.TimeWindows) == 0 {
		return fmt.Errorf("time_windows must define at least one window")
	}

	type span struct {
		name       string
		start, end float64
	}
	spans := make([]span, 0, len(c.TimeWindows))
	totalHours := 0.0
	for name, w := range c.TimeWindows {
		if w.Start < 0 || w.Start >= hoursPerDay || w.End < 0 || w.End >= hoursPerDay {
			return fmt.Errorf("time window %q: hours must be in [0, 24), got start=%g end=%g", name, w.Start, w.End)
		}
		if w.Hours() <= 0 {
			return fmt.Errorf("time window %q: zero-length span (start=%g end=%g)", name, w.Start, w.End)
		}
		spans = append(spans, span{name: name, start: w.Start, end: w.End})
		totalHours += w.Hours()
	}
	if math.Abs(totalHours-hoursPerDay) > boundaryEpsilon {
		return fmt.Errorf("time windows cover %.6g hours, want exactly 24 (holes or overlaps)", totalHours)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i, sp := range spans {
		next := spans[(i+1)%len(spans)]
		gap := math.Mod(next.start-sp.end+hoursPerDay, hoursPerDay)
		if gap > boundaryEpsilon && hoursPerDay-gap > boundaryEpsilon {
			return fmt.Errorf("time windows %q and %q do not share a boundary: %q ends at %g, %q starts at %g",
				sp.name, next.name, sp.name, sp.end, next.name, next.start)
		}
	}
	return nil
}

func (c *Config) validateDistributions() error {
	for name := range c.TimeWindows {
		d, ok := c.Distributions[name]
		if !ok {
			return fmt.Errorf("no distribution config for window %q", name)
		}
		prefix := fmt.Sprintf("distributions.%s", name)
		if math.IsNaN(d.MixtureProb) || d.MixtureProb < 0 || d.MixtureProb > 1 {
			return fmt.Errorf("%s.mixture_prob must be in [0,1], got %f", prefix, d.MixtureProb)
		}
		if d.MixtureProb > 0 {
			if d.Gamma.Shape <= 0 || math.IsNaN(d.Gamma.Shape) || math.IsInf(d.Gamma.Shape, 0) {
				return fmt.Errorf("%s.gamma.shape must be positive and finite, got %f", prefix, d.Gamma.Shape)
			}
			if d.Gamma.Rate <= 0 || math.IsNaN(d.Gamma.Rate) || math.IsInf(d.Gamma.Rate, 0) {
				return fmt.Errorf("%s.gamma.rate must be positive and finite, got %f", prefix, d.Gamma.Rate)
			}
		}
		if d.MixtureProb < 1 {
			if d.Uniform.Min < 0 || d.Uniform.Min > d.Uniform.Max {
				return fmt.Errorf("%s.uniform requires 0 <= min <= max, got min=%f max=%f", prefix, d.Uniform.Min, d.Uniform.Max)
			}
		}
		if d.ArrivalRatePerHour < 0 || math.IsNaN(d.ArrivalRatePerHour) || math.IsInf(d.ArrivalRatePerHour, 0) {
			return fmt.Errorf("%s.arrival_rate_per_hour must be non-negative and finite, got %f", prefix, d.ArrivalRatePerHour)
		}
	}
	for name := range c.Distributions {
		if _, ok := c.TimeWindows[name]; !ok {
			return fmt.Errorf("distributions.%s references an undefined time window", name)
		}
	}
	return nil
}

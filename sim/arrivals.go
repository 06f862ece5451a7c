package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Arrival is one pre-generated arrival: a hen reaching the nest area at Time,
// tagged with the window that was active when the inter-arrival gap was drawn.
type Arrival struct {
	Time   float64
	Hen    int
	Window string
}

// ArrivalGenerator produces the full arrival sequence for a simulated horizon
// from a time-inhomogeneous Poisson process. The rate is piecewise constant:
// within a window it is the window's configured arrival rate, and it switches
// at window boundaries of the repeating daily schedule.
type ArrivalGenerator struct {
	windows    map[string]WindowSpan
	sampler    *ServiceTimeSampler
	hensNumber int
	rng        *rand.Rand
}

// NewArrivalGenerator creates a generator over the given windows. Service
// rates are looked up through sampler; hen identifiers are drawn uniformly
// from {1, ..., hensNumber}.
func NewArrivalGenerator(windows map[string]WindowSpan, sampler *ServiceTimeSampler, hensNumber int, rng *rand.Rand) *ArrivalGenerator {
	return &ArrivalGenerator{
		windows:    windows,
		sampler:    sampler,
		hensNumber: hensNumber,
		rng:        rng,
	}
}

// WindowFor returns the name of the window active at simulated second t.
// Validated configurations tile the day, so exactly one window matches; a
// miss is a configuration error.
func (g *ArrivalGenerator) WindowFor(t float64) (string, error) {
	hour := math.Mod(t, SecondsPerDay) / 3600.0
	for name, span := range g.windows {
		if span.Contains(hour) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no time window covers hour %.4f", hour)
}

// nextBoundary returns the earliest window start strictly after t, in
// simulated seconds. Some window start always occurs within the next day.
func (g *ArrivalGenerator) nextBoundary(t float64) float64 {
	day := math.Floor(t / SecondsPerDay)
	boundary := math.Inf(1)
	for _, span := range g.windows {
		candidate := day*SecondsPerDay + span.Start*3600.0
		if candidate <= t {
			candidate += SecondsPerDay
		}
		if candidate < boundary {
			boundary = candidate
		}
	}
	return boundary
}

// GenerateArrivals simulates the Poisson process over [0, durationDays*86400)
// and returns the arrivals in timestamp order.
//
// Within a window the inter-arrival gap is exponential with the window's
// rate. A drawn arrival that would land at or past the next window boundary
// is discarded and time snaps to the boundary, so no arrival is ever recorded
// using a stale rate. Zero-rate windows jump straight to the boundary.
func (g *ArrivalGenerator) GenerateArrivals(durationDays int) ([]Arrival, error) {
	total := float64(durationDays) * SecondsPerDay
	t := 0.0
	var arrivals []Arrival

	for t < total {
		window, err := g.WindowFor(t)
		if err != nil {
			return nil, err
		}
		rate, err := g.sampler.ArrivalRatePerSecond(window)
		if err != nil {
			return nil, err
		}
		boundary := g.nextBoundary(t)

		if rate <= 0 {
			t = math.Min(boundary, total)
			continue
		}

		dt := g.rng.ExpFloat64() / rate
		if t+dt >= boundary {
			t = boundary
			continue
		}

		t += dt
		if t >= total {
			break
		}
		hen := 1 + g.rng.Intn(g.hensNumber)
		arrivals = append(arrivals, Arrival{Time: t, Hen: hen, Window: window})
	}

	logrus.Debugf("generated %d arrivals over %d day(s)", len(arrivals), durationDays)
	return arrivals, nil
}

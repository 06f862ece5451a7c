package sim

import (
	"math"
	"testing"
)

func testWindows() map[string]WindowSpan {
	return map[string]WindowSpan{
		"day":   {Start: 6, End: 22},
		"night": {Start: 22, End: 6}, // wraps across midnight
	}
}

func testDistributions(nightRate float64) map[string]DistributionConfig {
	return map[string]DistributionConfig{
		"day": {
			Gamma:              GammaConfig{Shape: 2.0, Rate: 0.01},
			Uniform:            UniformConfig{Min: 60, Max: 300},
			MixtureProb:        0.8,
			ArrivalRatePerHour: 20.0,
		},
		"night": {
			Gamma:              GammaConfig{Shape: 2.0, Rate: 0.01},
			Uniform:            UniformConfig{Min: 60, Max: 300},
			MixtureProb:        0.8,
			ArrivalRatePerHour: nightRate,
		},
	}
}

func newTestGenerator(nightRate float64, seed int64) *ArrivalGenerator {
	rng := NewPartitionedRNG(NewSimulationKey(seed))
	sampler := NewServiceTimeSampler(testDistributions(nightRate), rng.ForSubsystem(SubsystemService))
	return NewArrivalGenerator(testWindows(), sampler, 100, rng.ForSubsystem(SubsystemArrivals))
}

func TestWindowFor_MapsHoursToWindows(t *testing.T) {
	g := newTestGenerator(0, 42)

	cases := []struct {
		seconds float64
		want    string
	}{
		{6 * 3600, "day"},            // day start boundary
		{12 * 3600, "day"},           // midday
		{22*3600 - 1, "day"},         // just before day end
		{22 * 3600, "night"},         // night start boundary (half-open day)
		{23 * 3600, "night"},         // pre-midnight
		{3 * 3600, "night"},          // post-midnight (wrapped span)
		{SecondsPerDay + 12*3600, "day"}, // second day
	}
	for _, tc := range cases {
		got, err := g.WindowFor(tc.seconds)
		if err != nil {
			t.Fatalf("WindowFor(%v): %v", tc.seconds, err)
		}
		if got != tc.want {
			t.Errorf("WindowFor(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestWindowFor_UncoveredHourFails(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	sampler := NewServiceTimeSampler(testDistributions(0), rng.ForSubsystem(SubsystemService))
	partial := map[string]WindowSpan{"day": {Start: 6, End: 22}}
	g := NewArrivalGenerator(partial, sampler, 100, rng.ForSubsystem(SubsystemArrivals))

	if _, err := g.WindowFor(23 * 3600); err == nil {
		t.Error("WindowFor on an uncovered hour should fail")
	}
}

func TestGenerateArrivals_WithinHorizonAndTaggedCorrectly(t *testing.T) {
	// GIVEN a 3-day horizon with arrivals in both windows
	g := newTestGenerator(5.0, 42)

	// WHEN the arrival sequence is generated
	arrivals, err := g.GenerateArrivals(3)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}
	if len(arrivals) == 0 {
		t.Fatal("expected arrivals, got none")
	}

	// THEN every arrival is inside [0, horizon), sorted, hen ids in range,
	// and tagged with the window active at its timestamp
	horizon := 3 * SecondsPerDay
	prev := -math.MaxFloat64
	for i, a := range arrivals {
		if a.Time < 0 || a.Time >= horizon {
			t.Fatalf("arrival %d at %v outside [0, %v)", i, a.Time, horizon)
		}
		if a.Time < prev {
			t.Fatalf("arrival %d at %v before previous %v", i, a.Time, prev)
		}
		prev = a.Time
		if a.Hen < 1 || a.Hen > 100 {
			t.Fatalf("arrival %d hen = %d, want in [1, 100]", i, a.Hen)
		}
		window, err := g.WindowFor(a.Time)
		if err != nil {
			t.Fatalf("WindowFor(%v): %v", a.Time, err)
		}
		if window != a.Window {
			t.Fatalf("arrival %d tagged %q but WindowFor reports %q", i, a.Window, window)
		}
	}
}

func TestGenerateArrivals_ClosedWindowProducesNoArrivals(t *testing.T) {
	// GIVEN a night window with arrival rate 0
	g := newTestGenerator(0, 42)

	arrivals, err := g.GenerateArrivals(5)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}

	// THEN no arrival falls inside night hours
	for _, a := range arrivals {
		hour := math.Mod(a.Time, SecondsPerDay) / 3600.0
		if hour >= 22 || hour < 6 {
			t.Errorf("arrival at hour %.3f falls inside the closed night window", hour)
		}
		if a.Window == "night" {
			t.Errorf("arrival at %v tagged with the closed night window", a.Time)
		}
	}
}

func TestGenerateArrivals_Deterministic(t *testing.T) {
	a1, err := newTestGenerator(5.0, 99).GenerateArrivals(2)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}
	a2, err := newTestGenerator(5.0, 99).GenerateArrivals(2)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}

	if len(a1) != len(a2) {
		t.Fatalf("lengths differ: %d vs %d", len(a1), len(a2))
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("arrival %d differs: %+v vs %+v", i, a1[i], a2[i])
		}
	}
}

func TestGenerateArrivals_RateRoughlyMatchesConfiguration(t *testing.T) {
	// GIVEN 20 arrivals/hour over 16 day hours and 5/hour over 8 night hours,
	// the daily expectation is 20*16 + 5*8 = 360 arrivals
	g := newTestGenerator(5.0, 42)

	days := 10
	arrivals, err := g.GenerateArrivals(days)
	if err != nil {
		t.Fatalf("GenerateArrivals: %v", err)
	}

	expected := 360.0 * float64(days)
	got := float64(len(arrivals))
	if math.Abs(got-expected)/expected > 0.10 {
		t.Errorf("got %d arrivals, want ≈ %.0f (within 10%%)", len(arrivals), expected)
	}
}

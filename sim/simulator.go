package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Results holds everything a completed run produced. All metric durations are
// in simulated seconds.
type Results struct {
	Logs            []LogEntry
	Metrics         []NestMetrics
	CoOccurrences   CoOccurrenceCounter
	FinalTime       float64
	EventsProcessed int
}

// Simulator owns the global event queue and the set of nests, and drives the
// event loop end-to-end. It is single-threaded: no state is shared outside
// Run, and the event sequence is exactly reproducible for a given seed and
// configuration.
type Simulator struct {
	cfg        *Config
	rng        *PartitionedRNG
	sampler    *ServiceTimeSampler
	arrivalGen *ArrivalGenerator
	nests      []*Nest
	weights    []float64
	heap       *EventHeap

	logs            []LogEntry
	finalTime       float64
	eventsProcessed int
}

// NewSimulator validates the configuration and constructs a ready-to-run
// simulator. Any configuration error surfaces here, before any event exists.
func NewSimulator(cfg *Config, seed int64) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	rng := NewPartitionedRNG(NewSimulationKey(seed))
	sampler := NewServiceTimeSampler(cfg.Distributions, rng.ForSubsystem(SubsystemService))
	arrivalGen := NewArrivalGenerator(cfg.TimeWindows, sampler, cfg.Simulation.HensNumber, rng.ForSubsystem(SubsystemArrivals))

	nests := make([]*Nest, cfg.Simulation.NNests)
	disciplineRNG := rng.ForSubsystem(SubsystemDiscipline)
	for i := range nests {
		nest, err := NewNest(i, cfg.Simulation.Discipline, disciplineRNG)
		if err != nil {
			return nil, err
		}
		nests[i] = nest
	}

	weights := cfg.Simulation.NestSelectionWeights
	if len(weights) == 0 {
		weights = make([]float64, cfg.Simulation.NNests)
		for i := range weights {
			weights[i] = 1.0 / float64(cfg.Simulation.NNests)
		}
	}

	return &Simulator{
		cfg:        cfg,
		rng:        rng,
		sampler:    sampler,
		arrivalGen: arrivalGen,
		nests:      nests,
		weights:    weights,
		heap:       NewEventHeap(),
	}, nil
}

// Run pre-generates all arrivals, processes the event queue to exhaustion,
// finalizes per-nest metrics at the maximum processed timestamp, and
// aggregates co-occurrence counts across nests. Run is one-shot.
func (s *Simulator) Run() (*Results, error) {
	arrivals, err := s.arrivalGen.GenerateArrivals(s.cfg.Simulation.DurationDays)
	if err != nil {
		return nil, err
	}
	for _, a := range arrivals {
		s.heap.Schedule(NewArrivalEvent(a.Time, a.Hen, a.Window))
	}

	logrus.Infof("starting simulation %q: %d arrivals over %d day(s), %d nests, discipline=%s",
		s.cfg.Name(), len(arrivals), s.cfg.Simulation.DurationDays, len(s.nests), s.nests[0].Discipline())

	for {
		event := s.heap.PopNext()
		if event == nil {
			break
		}
		if ts := event.Timestamp(); ts > s.finalTime {
			s.finalTime = ts
		}
		if err := event.Execute(s); err != nil {
			return nil, err
		}
		s.eventsProcessed++
	}

	for _, nest := range s.nests {
		nest.FinalizeMetrics(s.finalTime)
	}

	metrics := make([]NestMetrics, len(s.nests))
	global := make(CoOccurrenceCounter)
	for i, nest := range s.nests {
		metrics[i] = nest.Metrics()
		for pair, count := range nest.CoOccurrences() {
			global[pair] += count
		}
	}

	logrus.Infof("simulation %q complete: %d events processed, %d log entries, final time %.1fs",
		s.cfg.Name(), s.eventsProcessed, len(s.logs), s.finalTime)

	return &Results{
		Logs:            s.logs,
		Metrics:         metrics,
		CoOccurrences:   global,
		FinalTime:       s.finalTime,
		EventsProcessed: s.eventsProcessed,
	}, nil
}

// handleArrival dispatches an arrival to a weighted-random nest.
func (s *Simulator) handleArrival(e *ArrivalEvent) error {
	logrus.Tracef("<< arrival: hen %d at %.2fs (%s)", e.Hen, e.Timestamp(), e.Window)

	nest := s.chooseNest()
	logs, exit, err := nest.HandleArrival(e.Timestamp(), e.Hen, s.serviceFor(e.Window))
	if err != nil {
		return err
	}
	s.logs = append(s.logs, logs...)
	if exit != nil {
		s.heap.Schedule(NewExitEvent(exit.Time, exit.Hen, nest.ID()))
	}
	return nil
}

// handleExit completes a service. The window is recomputed for the exit
// instant: the next occupant's service time must use the rate of the window
// active now, which may differ from the one active at arrival.
func (s *Simulator) handleExit(e *ExitEvent) error {
	logrus.Tracef(">> exit: hen %d from nest %d at %.2fs", e.Hen, e.NestID, e.Timestamp())

	if e.NestID < 0 || e.NestID >= len(s.nests) {
		// An exit was scheduled for a nest that does not exist; internal
		// invariant violation, not recoverable.
		return fmt.Errorf("exit event references unknown nest %d (have %d nests)", e.NestID, len(s.nests))
	}
	window, err := s.arrivalGen.WindowFor(e.Timestamp())
	if err != nil {
		return err
	}

	nest := s.nests[e.NestID]
	logs, exit, err := nest.HandleExit(e.Timestamp(), e.Hen, s.serviceFor(window))
	if err != nil {
		return err
	}
	s.logs = append(s.logs, logs...)
	if exit != nil {
		s.heap.Schedule(NewExitEvent(exit.Time, exit.Hen, nest.ID()))
	}
	return nil
}

// serviceFor returns a ServiceFunc bound to the given window.
func (s *Simulator) serviceFor(window string) ServiceFunc {
	return func() (float64, error) {
		return s.sampler.Sample(window)
	}
}

// chooseNest selects the destination nest for an arrival by weighted random
// choice, independent of nest state.
func (s *Simulator) chooseNest() *Nest {
	rng := s.rng.ForSubsystem(SubsystemNests)
	total := 0.0
	for _, w := range s.weights {
		total += w
	}
	u := rng.Float64() * total
	cumulative := 0.0
	for i, w := range s.weights {
		cumulative += w
		if u < cumulative {
			return s.nests[i]
		}
	}
	return s.nests[len(s.nests)-1]
}

package sim

import (
	"fmt"
	"math/rand"
)

// Action is the kind of log entry a nest emits.
type Action string

const (
	// ActionEntry marks a hen starting to occupy a nest.
	ActionEntry Action = "entry"
	// ActionExit marks a hen leaving a nest.
	ActionExit Action = "exit"
)

// LogEntry is an immutable occupancy record. Entries are appended in emission
// order: each nest emits in its own local time order, interleaved across
// nests as the simulator processes events.
type LogEntry struct {
	Timestamp float64
	HenID     int
	NestID    int
	Action    Action
}

// ScheduledExit is a future exit the simulator must enqueue.
type ScheduledExit struct {
	Time float64
	Hen  int
}

// HenPair is an unordered pair of hen identifiers, canonicalized as (min, max).
type HenPair struct {
	A, B int
}

// NewHenPair canonicalizes the pair so (a,b) and (b,a) key identically.
func NewHenPair(a, b int) HenPair {
	if a > b {
		a, b = b, a
	}
	return HenPair{A: a, B: b}
}

// CoOccurrenceCounter counts "together in nest" observations per hen pair.
type CoOccurrenceCounter map[HenPair]int

// Service discipline names accepted in configuration.
const (
	DisciplineFIFO     = "fifo"
	DisciplineSIRO     = "siro"
	DisciplineInfinite = "infinite"
)

var validDisciplines = map[string]bool{
	DisciplineFIFO:     true,
	DisciplineSIRO:     true,
	DisciplineInfinite: true,
}

// ServiceFunc draws one service duration for the window active right now.
type ServiceFunc func() (float64, error)

// discipline is the admission policy of a nest: it decides which hens enter
// active occupancy and when, and schedules their exits. The surrounding Nest
// owns all occupancy-duration accounting.
type discipline interface {
	name() string

	// arrive admits or queues the arriving hen. Returns the hens entering
	// service now (entry order) and the exit scheduled for a newly started
	// service, if any.
	arrive(now float64, hen int, sample ServiceFunc) (entered []int, exit *ScheduledExit, err error)

	// depart completes the hen's service. Returns any hen pulled from the
	// queue into service, with its scheduled exit.
	depart(now float64, hen int, sample ServiceFunc) (entered []int, exit *ScheduledExit, err error)

	// coOccurrences returns the pair counter, or nil for disciplines that do
	// not track co-occupancy.
	coOccurrences() CoOccurrenceCounter
}

// Nest is a per-nest occupancy state machine. It consumes arrival and exit
// events through its discipline and accumulates time-weighted occupancy
// metrics:
//
//   - total occupancy duration: cumulative time with >= 1 occupant
//   - total single-hen duration: cumulative time with exactly 1 occupant
//
// Queued (waiting) hens are not occupants; occupancy starts when service
// starts, which is also when the entry log is emitted.
type Nest struct {
	id   int
	disc discipline

	occupants      int
	occupancyStart float64
	occupancyOpen  bool
	singleStart    float64
	singleOpen     bool
	totalOccupancy float64
	totalSingle    float64
}

// NewNest creates a nest with the given service discipline. rng is consumed
// only by disciplines with internal random choices (SIRO).
func NewNest(id int, disciplineName string, rng *rand.Rand) (*Nest, error) {
	var d discipline
	switch disciplineName {
	case DisciplineFIFO, "":
		d = &fifoDiscipline{}
	case DisciplineSIRO:
		d = &siroDiscipline{rng: rng}
	case DisciplineInfinite:
		d = &infiniteDiscipline{
			active: make(map[int]int),
			pairs:  make(CoOccurrenceCounter),
		}
	default:
		return nil, fmt.Errorf("unknown service discipline %q", disciplineName)
	}
	return &Nest{id: id, disc: d}, nil
}

// ID returns the nest identifier.
func (n *Nest) ID() int { return n.id }

// Discipline returns the name of the nest's service discipline.
func (n *Nest) Discipline() string { return n.disc.name() }

// Occupants returns the current number of hens in active occupancy.
func (n *Nest) Occupants() int { return n.occupants }

// HandleArrival processes a hen arriving at time now. It returns the emitted
// log entries and at most one newly scheduled exit event.
func (n *Nest) HandleArrival(now float64, hen int, sample ServiceFunc) ([]LogEntry, *ScheduledExit, error) {
	entered, exit, err := n.disc.arrive(now, hen, sample)
	if err != nil {
		return nil, nil, err
	}
	var logs []LogEntry
	for _, h := range entered {
		logs = append(logs, LogEntry{Timestamp: now, HenID: h, NestID: n.id, Action: ActionEntry})
		n.occupantEntered(now)
	}
	return logs, exit, nil
}

// HandleExit processes the departure of hen at time now. The departing hen
// always produces an exit log; single-server disciplines may additionally
// start service for a queued hen, producing its entry log and exit event.
func (n *Nest) HandleExit(now float64, hen int, sample ServiceFunc) ([]LogEntry, *ScheduledExit, error) {
	entered, exit, err := n.disc.depart(now, hen, sample)
	if err != nil {
		return nil, nil, err
	}
	logs := []LogEntry{{Timestamp: now, HenID: hen, NestID: n.id, Action: ActionExit}}
	n.occupantLeft(now)
	for _, h := range entered {
		logs = append(logs, LogEntry{Timestamp: now, HenID: h, NestID: n.id, Action: ActionEntry})
		n.occupantEntered(now)
	}
	return logs, exit, nil
}

// occupantEntered applies the 0→1 and 1→2+ transition rules.
func (n *Nest) occupantEntered(now float64) {
	n.occupants++
	switch n.occupants {
	case 1:
		n.occupancyStart, n.occupancyOpen = now, true
		n.singleStart, n.singleOpen = now, true
	case 2:
		if n.singleOpen {
			n.totalSingle += now - n.singleStart
			n.singleOpen = false
		}
	}
}

// occupantLeft applies the 2+→1 and 1→0 transition rules.
func (n *Nest) occupantLeft(now float64) {
	n.occupants--
	switch n.occupants {
	case 1:
		n.singleStart, n.singleOpen = now, true
	case 0:
		if n.singleOpen {
			n.totalSingle += now - n.singleStart
			n.singleOpen = false
		}
		if n.occupancyOpen {
			n.totalOccupancy += now - n.occupancyStart
			n.occupancyOpen = false
		}
	}
}

// FinalizeMetrics closes any interval still open at finalTime. Without it,
// trailing occupancy at the simulation horizon is under-counted. Calling it
// again does not further increase any accumulator.
func (n *Nest) FinalizeMetrics(finalTime float64) {
	if n.singleOpen {
		n.totalSingle += finalTime - n.singleStart
		n.singleOpen = false
	}
	if n.occupancyOpen {
		n.totalOccupancy += finalTime - n.occupancyStart
		n.occupancyOpen = false
	}
}

// NestMetrics is the per-nest occupancy summary, durations in seconds.
type NestMetrics struct {
	NestID                 int     `json:"nest_id"`
	TotalOccupancyDuration float64 `json:"total_occupancy_duration"`
	TotalSingleHenDuration float64 `json:"total_single_hen_duration"`
}

// Metrics returns the nest's accumulated occupancy metrics.
func (n *Nest) Metrics() NestMetrics {
	return NestMetrics{
		NestID:                 n.id,
		TotalOccupancyDuration: n.totalOccupancy,
		TotalSingleHenDuration: n.totalSingle,
	}
}

// CoOccurrences returns the nest's pair counter, or nil when the discipline
// does not track co-occupancy (single-server disciplines never have two hens
// inside at once).
func (n *Nest) CoOccurrences() CoOccurrenceCounter {
	return n.disc.coOccurrences()
}

// === FIFO single-server ===

// fifoDiscipline serves one hen at a time; waiting hens enter in arrival order.
type fifoDiscipline struct {
	busyUntil float64
	queue     []int
}

func (d *fifoDiscipline) name() string { return DisciplineFIFO }

func (d *fifoDiscipline) arrive(now float64, hen int, sample ServiceFunc) ([]int, *ScheduledExit, error) {
	if now >= d.busyUntil && len(d.queue) == 0 {
		serviceTime, err := sample()
		if err != nil {
			return nil, nil, err
		}
		d.busyUntil = now + serviceTime
		return []int{hen}, &ScheduledExit{Time: d.busyUntil, Hen: hen}, nil
	}
	d.queue = append(d.queue, hen)
	return nil, nil, nil
}

func (d *fifoDiscipline) depart(now float64, _ int, sample ServiceFunc) ([]int, *ScheduledExit, error) {
	if len(d.queue) == 0 {
		d.busyUntil = now
		return nil, nil, nil
	}
	next := d.queue[0]
	d.queue = d.queue[1:]
	serviceTime, err := sample()
	if err != nil {
		return nil, nil, err
	}
	d.busyUntil = now + serviceTime
	return []int{next}, &ScheduledExit{Time: d.busyUntil, Hen: next}, nil
}

func (d *fifoDiscipline) coOccurrences() CoOccurrenceCounter { return nil }

// === SIRO single-server ===

// siroDiscipline (Service In Random Order) is identical to FIFO except that
// on exit the next hen is drawn uniformly from the waiting queue. This
// changes which hen is served next, not the occupancy accounting.
type siroDiscipline struct {
	busyUntil float64
	queue     []int
	rng       *rand.Rand
}

func (d *siroDiscipline) name() string { return DisciplineSIRO }

func (d *siroDiscipline) arrive(now float64, hen int, sample ServiceFunc) ([]int, *ScheduledExit, error) {
	if now >= d.busyUntil && len(d.queue) == 0 {
		serviceTime, err := sample()
		if err != nil {
			return nil, nil, err
		}
		d.busyUntil = now + serviceTime
		return []int{hen}, &ScheduledExit{Time: d.busyUntil, Hen: hen}, nil
	}
	d.queue = append(d.queue, hen)
	return nil, nil, nil
}

func (d *siroDiscipline) depart(now float64, _ int, sample ServiceFunc) ([]int, *ScheduledExit, error) {
	if len(d.queue) == 0 {
		d.busyUntil = now
		return nil, nil, nil
	}
	idx := d.rng.Intn(len(d.queue))
	next := d.queue[idx]
	d.queue = append(d.queue[:idx], d.queue[idx+1:]...)
	serviceTime, err := sample()
	if err != nil {
		return nil, nil, err
	}
	d.busyUntil = now + serviceTime
	return []int{next}, &ScheduledExit{Time: d.busyUntil, Hen: next}, nil
}

func (d *siroDiscipline) coOccurrences() CoOccurrenceCounter { return nil }

// === Infinite-server ===

// infiniteDiscipline admits every arrival immediately (no queue, no blocking)
// and counts pairwise co-occupancy. active holds presence multiplicity: a hen
// can re-arrive while still inside, and must stay "present" until its last
// pending exit fires.
type infiniteDiscipline struct {
	active map[int]int
	pairs  CoOccurrenceCounter
}

func (d *infiniteDiscipline) name() string { return DisciplineInfinite }

func (d *infiniteDiscipline) arrive(now float64, hen int, sample ServiceFunc) ([]int, *ScheduledExit, error) {
	// Count pairs before admitting, one increment per arrival that finds the
	// other hen already present. Self-pairs are excluded.
	for other, count := range d.active {
		if other != hen && count > 0 {
			d.pairs[NewHenPair(hen, other)]++
		}
	}
	d.active[hen]++
	serviceTime, err := sample()
	if err != nil {
		return nil, nil, err
	}
	return []int{hen}, &ScheduledExit{Time: now + serviceTime, Hen: hen}, nil
}

func (d *infiniteDiscipline) depart(_ float64, hen int, _ ServiceFunc) ([]int, *ScheduledExit, error) {
	if d.active[hen] > 1 {
		d.active[hen]--
	} else {
		delete(d.active, hen)
	}
	return nil, nil, nil
}

func (d *infiniteDiscipline) coOccurrences() CoOccurrenceCounter { return d.pairs }

package sim

// EventType discriminates the two event kinds driving the simulation.
type EventType string

const (
	// EventTypeArrival is a hen arriving at a nest.
	EventTypeArrival EventType = "arrival"
	// EventTypeExit is a hen finishing its nest visit.
	EventTypeExit EventType = "exit"
)

// eventTypePriority orders events with equal timestamps: arrivals are
// processed before exits. Lower value is processed first.
var eventTypePriority = map[EventType]int{
	EventTypeArrival: 1,
	EventTypeExit:    2,
}

// Event is a scheduled simulation event. Timestamps are real seconds since
// simulation start.
type Event interface {
	Timestamp() float64
	Type() EventType
	Execute(sim *Simulator) error
}

// ArrivalEvent represents a hen attempting to use a nest. The destination
// nest is not chosen until the event is processed.
type ArrivalEvent struct {
	time   float64
	Hen    int
	Window string // window active when the arrival was generated
}

// NewArrivalEvent creates an arrival of the given hen at time t.
func NewArrivalEvent(t float64, hen int, window string) *ArrivalEvent {
	return &ArrivalEvent{time: t, Hen: hen, Window: window}
}

func (e *ArrivalEvent) Timestamp() float64 { return e.time }
func (e *ArrivalEvent) Type() EventType    { return EventTypeArrival }

func (e *ArrivalEvent) Execute(sim *Simulator) error {
	return sim.handleArrival(e)
}

// ExitEvent represents a hen departing from a specific nest.
type ExitEvent struct {
	time   float64
	Hen    int
	NestID int
}

// NewExitEvent creates an exit of the given hen from nest nestID at time t.
func NewExitEvent(t float64, hen int, nestID int) *ExitEvent {
	return &ExitEvent{time: t, Hen: hen, NestID: nestID}
}

func (e *ExitEvent) Timestamp() float64 { return e.time }
func (e *ExitEvent) Type() EventType    { return EventTypeExit }

func (e *ExitEvent) Execute(sim *Simulator) error {
	return sim.handleExit(e)
}

// Package sim provides the core discrete-event simulation engine for the
// nest-occupancy simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: the event types that drive the simulation (Arrival, Exit)
//   - nest.go: the per-nest occupancy state machine and service disciplines
//   - simulator.go: the event loop, nest selection, and metric finalization
//
// # Architecture
//
// Arrivals for the whole horizon are pre-generated by ArrivalGenerator
// (arrivals.go) from a time-inhomogeneous Poisson process whose rate follows
// a repeating daily schedule of named time windows. The Simulator seeds its
// event heap (event_heap.go) with them and pops events in time order; each
// arrival is dispatched to a weighted-random Nest, which applies its service
// discipline and may hand back one newly scheduled exit event.
//
// Service durations come from ServiceTimeSampler (sampler.go), a per-window
// gamma/uniform mixture. All randomness flows through PartitionedRNG
// (rng.go), so a run is bit-reproducible for a given seed and configuration.
//
// Output serialization lives in sim/results; the sim package itself performs
// no I/O inside the event loop.
package sim

// Package pacing drives a [dynamo.CellModel] through a periodic stimulus
// protocol and measures how it approaches its limit cycle.
//
// A [Driver] owns one model. Each pace advances the model through the
// protocol's phases: an optional quiescent lead-in [0, Start], the stimulus
// interval, and repolarization up to Period. Loops built on the driver:
//
//   - [Driver.RunSimulation]: steady-state detection by MRMS threshold
//   - [Driver.Analyze]: sliding-window convergence classification
//   - [Driver.APDSeries]: per-pace action potential duration
//   - [Driver.Restitution]: APD across decreasing cycle lengths
//
// The state carried from one pace to the next is always the model's own
// reported state. Solver failures are returned wrapped with the pace number
// and still match [dynamo.ErrSolver].
//
// # Thread Safety
//
// A Driver and its model must be used from one goroutine. [RunEnsemble]
// paces several independent drivers concurrently.
package pacing

// Package dynamo provides the core primitives shared by the pacing toolkit.
//
// The package defines the fundamental interfaces and types for periodically
// paced ordinary differential equation (ODE) cell models:
//
//   - [State]: vector representing a cell's state variables
//   - [Trajectory]: time-ordered samples of a State
//   - [System]: interface for ODE kinetics (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Stimulus]: periodic stimulus current, used as the system's control input
//   - [CellModel]: a model that can be advanced in time and checkpointed
//
// # Errors
//
// Every failure in the toolkit belongs to one of four families, each with a
// sentinel usable with errors.Is:
//
//   - [ErrDomain]: malformed numeric input (empty, mismatched, too short)
//   - [ErrIndex]: out-of-range state variable index
//   - [ErrSolver]: the integrator could not advance a model
//   - [ErrNumericalAssertion]: a bounded result left its bound
//
// # Thread Safety
//
// A CellModel mutates its state on every solve and must only be advanced by one
// goroutine at a time. Independent models may be advanced in parallel.
package dynamo

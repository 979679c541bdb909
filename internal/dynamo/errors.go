package dynamo

import (
	"errors"
	"fmt"
)

// Error families for the toolkit.
var (
	// ErrDomain indicates malformed numeric input: empty, mismatched-length or
	// too-short sequences.
	ErrDomain = errors.New("dynamo: domain error")

	// ErrIndex indicates an out-of-range state variable index.
	ErrIndex = errors.New("dynamo: index out of range")

	// ErrSolver indicates the integrator failed to advance a model.
	ErrSolver = errors.New("dynamo: solver failure")

	// ErrNumericalAssertion indicates a result outside its mathematically
	// required bound, which points at corrupted upstream data.
	ErrNumericalAssertion = errors.New("dynamo: numerical assertion failed")
)

// Solver failure causes, wrapped by SolverError.
var (
	// ErrInvalidState indicates NaN or Inf in a state vector.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepLimit indicates the maximum number of internal steps was exceeded.
	ErrStepLimit = errors.New("dynamo: maximum number of steps exceeded")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// DomainError reports malformed numeric input to an operation.
type DomainError struct {
	Op     string
	Reason string
}

// Domainf builds a DomainError for op.
func Domainf(op, format string, args ...any) *DomainError {
	return &DomainError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func (e *DomainError) Error() string {
	return e.Op + ": " + e.Reason
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// IndexError reports a state variable index outside [0, Len).
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndex }

// SolverError wraps an integration failure with the interval being solved.
type SolverError struct {
	Model   string
	Start   float64
	End     float64
	Step    int
	Wrapped error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%s: solve [%g, %g] failed after %d steps: %v",
		e.Model, e.Start, e.End, e.Step, e.Wrapped)
}

func (e *SolverError) Is(target error) bool { return target == ErrSolver }

func (e *SolverError) Unwrap() error {
	return e.Wrapped
}

// NumericalAssertionError reports a value that left its required bound,
// such as a correlation coefficient with magnitude above 1.001.
type NumericalAssertionError struct {
	Quantity string
	Index    int
	Value    float64
	Bound    float64
}

func (e *NumericalAssertionError) Error() string {
	return fmt.Sprintf("%s[%d] = %v exceeds bound %v", e.Quantity, e.Index, e.Value, e.Bound)
}

func (e *NumericalAssertionError) Is(target error) bool { return target == ErrNumericalAssertion }

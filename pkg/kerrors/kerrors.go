// Package kerrors defines the error kinds the engine and its collaborators
// report, per the propagation policy: the core surfaces errors and does not
// retry; callers render them as a single-line diagnostic.
package kerrors

import "fmt"

// Kind identifies the category of failure, independent of the Go type
// carrying it.
type Kind int

const (
	// ParseError: malformed netlist line, unknown prefix, bad numeric
	// literal, duplicate element id.
	ParseError Kind = iota
	// ConfigError: missing/invalid TOML keys, more than one analysis table.
	ConfigError
	// TopologyError: floating subnetwork, voltage-source loop, duplicate
	// ground reference.
	TopologyError
	// AssemblyError: unsupported element kind in current build (e.g. BJT).
	AssemblyError
	// SingularMatrix: solver reported a non-invertible A.
	SingularMatrix
	// ConvergenceFailure: Newton did not converge in max_iter at a given
	// sweep/time point.
	ConvergenceFailure
	// IOError: file access or result-write failure.
	IOError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case ConfigError:
		return "ConfigError"
	case TopologyError:
		return "TopologyError"
	case AssemblyError:
		return "AssemblyError"
	case SingularMatrix:
		return "SingularMatrix"
	case ConvergenceFailure:
		return "ConvergenceFailure"
	case IOError:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// Error wraps an underlying cause with a Kind, and, for ConvergenceFailure
// and sweep/time-indexed failures, the offending point.
type Error struct {
	Kind    Kind
	Point   string // sweep value / time / frequency point, if applicable
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Point != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Point, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind wrapping cause, formatting Message
// like fmt.Errorf.
func New(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// At attaches a sweep/time/frequency point to an Error for reporting.
func At(kind Kind, point string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Point: point, Message: fmt.Sprintf(format, args...), Cause: cause}
}

package domain

import (
	"fmt"
	"strings"
)

// SolverType selects the convergence strategy of a column solve.
type SolverType int

const (
	// SolverDirect is plain sequential substitution.
	SolverDirect SolverType = iota
	// SolverDamped blends temperatures with an adaptive relaxation factor.
	SolverDamped
	// SolverBroyden accelerates substitution with a secant coefficient.
	SolverBroyden
	// SolverInsideOut corrects compositions with a tridiagonal sweep per component.
	SolverInsideOut
)

// SolverTypes lists every strategy in declaration order.
var SolverTypes = []SolverType{SolverDirect, SolverDamped, SolverBroyden, SolverInsideOut}

var solverNames = map[SolverType]string{
	SolverDirect:    "direct",
	SolverDamped:    "damped",
	SolverBroyden:   "broyden",
	SolverInsideOut: "inside-out",
}

func (s SolverType) String() string {
	if name, ok := solverNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SolverType(%d)", int(s))
}

// ParseSolverType accepts the names produced by String, case-insensitively.
// "insideout", "inside_out" and "sequential" are accepted as aliases.
func ParseSolverType(name string) (SolverType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "direct", "sequential":
		return SolverDirect, nil
	case "damped":
		return SolverDamped, nil
	case "broyden":
		return SolverBroyden, nil
	case "inside-out", "insideout", "inside_out":
		return SolverInsideOut, nil
	}
	return SolverDirect, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s SolverType) MarshalText() ([]byte, error) {
	if _, ok := solverNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSolver, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SolverType) UnmarshalText(text []byte) error {
	parsed, err := ParseSolverType(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

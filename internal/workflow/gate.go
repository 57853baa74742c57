package workflow

import "fmt"

// Gate is one review stage in a component's pipeline. The value is the
// symbolic name written to the state file, so it stays stable when the
// catalog is reordered.
type Gate string

const (
	GatePending                Gate = "PENDING"
	GateIssueCreated           Gate = "ISSUE_CREATED"
	GateTestsProvided          Gate = "TESTS_PROVIDED"
	GateTestsReviewed          Gate = "TESTS_REVIEWED"
	GateImplementationProvided Gate = "IMPLEMENTATION_PROVIDED"
	GateImplementationReviewed Gate = "IMPLEMENTATION_REVIEWED"
	GateDocumentationProvided  Gate = "DOCUMENTATION_PROVIDED"
	GateDocumentationReviewed  Gate = "DOCUMENTATION_REVIEWED"
	GateExamplesProvided       Gate = "EXAMPLES_PROVIDED"
	GateExamplesReviewed       Gate = "EXAMPLES_REVIEWED"
	GateCompleted              Gate = "COMPLETED"
)

var gateOrder = []Gate{
	GatePending,
	GateIssueCreated,
	GateTestsProvided,
	GateTestsReviewed,
	GateImplementationProvided,
	GateImplementationReviewed,
	GateDocumentationProvided,
	GateDocumentationReviewed,
	GateExamplesProvided,
	GateExamplesReviewed,
	GateCompleted,
}

// Gates returns every gate in pipeline order.
func Gates() []Gate {
	out := make([]Gate, len(gateOrder))
	copy(out, gateOrder)
	return out
}

// ParseGate resolves a symbolic gate name. The match is exact: padded,
// lower-case or unknown names are rejected rather than coerced.
func ParseGate(name string) (Gate, error) {
	for _, gate := range gateOrder {
		if string(gate) == name {
			return gate, nil
		}
	}
	return "", fmt.Errorf("workflow: unknown gate %q", name)
}

// Valid reports whether g is one of the known gates.
func (g Gate) Valid() bool {
	return g.Ordinal() >= 0
}

// Ordinal returns the gate's position in the pipeline, or -1 when unknown.
func (g Gate) Ordinal() int {
	for idx, gate := range gateOrder {
		if gate == g {
			return idx
		}
	}
	return -1
}

// Terminal reports whether no further action is possible.
func (g Gate) Terminal() bool {
	return g == GateCompleted
}

func (g Gate) String() string {
	return string(g)
}

// MarshalText implements encoding.TextMarshaler.
func (g Gate) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("workflow: unknown gate %q", string(g))
	}
	return []byte(g), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Gate) UnmarshalText(text []byte) error {
	parsed, err := ParseGate(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

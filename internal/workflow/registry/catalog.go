package registry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the on-disk form of a registry.
type Catalog struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Components  []Entry `yaml:"components"`
}

// Registry validates the catalog and builds a registry from it.
func (c Catalog) Registry() (*Registry, error) {
	return New(c.Components)
}

// ParseCatalogYAML decodes a catalog from YAML bytes and validates it.
func ParseCatalogYAML(data []byte) (*Registry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("registry: catalog payload is empty")
	}
	var catalog Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("registry: decode catalog: %w", err)
	}
	return catalog.Registry()
}

// LoadCatalogReader reads catalog data from an io.Reader.
func LoadCatalogReader(r io.Reader) (*Registry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("registry: read catalog: %w", err)
	}
	return ParseCatalogYAML(content)
}

// LoadCatalogFile loads a catalog from an explicit file path.
func LoadCatalogFile(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	reg, err := ParseCatalogYAML(content)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return reg, nil
}

// LoadCatalog loads the catalog at path, or the built-in catalog when path is
// empty.
func LoadCatalog(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadCatalogFile(path)
}

// Default returns the built-in qtools catalog.
func Default() (*Registry, error) {
	return ParseCatalogYAML([]byte(defaultCatalogYAML))
}

// DefaultCatalogYAML exposes the built-in catalog so `tddflow` can write it out
// as a starting point.
func DefaultCatalogYAML() string {
	return defaultCatalogYAML
}

const defaultCatalogYAML = `# tddflow component catalog
name: qtools
description: Quantitative signal toolkit, built basic tier first.

components:
  # basic
  - id: src/utils/types.rs
    test_artifact: tests/utils/types_tests.rs
    example_artifact: examples/types_usage.rs
    tier: basic
    description: Core data structures for time series and market data
  - id: src/signal/weak_signal.rs
    test_artifact: tests/signal/weak_signal_tests.rs
    example_artifact: examples/signal_analysis.rs
    tier: basic
    depends_on: [src/utils/types.rs]
    description: Weak signal detection and filtering
  - id: src/pattern/recognition.rs
    test_artifact: tests/pattern/recognition_tests.rs
    example_artifact: examples/pattern_detection.rs
    tier: basic
    depends_on: [src/utils/types.rs]
    description: Basic pattern recognition algorithms

  # intermediate
  - id: src/quantum/state.rs
    test_artifact: tests/quantum/state_tests.rs
    example_artifact: examples/quantum_state.rs
    tier: intermediate
    depends_on: [src/utils/types.rs, src/signal/weak_signal.rs]
    description: Quantum state representation and analysis
  - id: src/sync/phase.rs
    test_artifact: tests/sync/phase_tests.rs
    example_artifact: examples/phase_sync.rs
    tier: intermediate
    depends_on: [src/quantum/state.rs]
    description: Phase synchronization detection

  # advanced
  - id: src/network/kuramoto.rs
    test_artifact: tests/network/kuramoto_tests.rs
    example_artifact: examples/kuramoto_model.rs
    tier: advanced
    depends_on: [src/quantum/state.rs, src/sync/phase.rs]
    description: Kuramoto model implementation for network synchronization
  - id: src/network/topology.rs
    test_artifact: tests/network/topology_tests.rs
    example_artifact: examples/network_topology.rs
    tier: advanced
    depends_on: [src/network/kuramoto.rs]
    description: Network topology analysis
  - id: src/quantum/entanglement.rs
    test_artifact: tests/quantum/entanglement_tests.rs
    example_artifact: examples/entanglement.rs
    tier: advanced
    depends_on: [src/quantum/state.rs]
    description: Quantum entanglement measures
`

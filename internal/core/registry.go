package core

import (
	"encoding/json"
	"fmt"
	"sync"
)

// DecodeFunc turns a raw analysis response body into its payload.
type DecodeFunc func(body []byte) (Payload, error)

// AnalysisDefinition contains everything needed to request and decode one analysis.
type AnalysisDefinition struct {
	Spec   AnalysisRequestSpec
	Label  string         // Display name: "Churn Prediction"
	Group  string         // Dashboard tab: "customer", "revenue", "product", "predictive"
	Decode DecodeFunc     // Response body -> payload
	Empty  func() Payload // Placeholder used when the analysis failed
}

var (
	registry   = make(map[AnalysisName]AnalysisDefinition)
	order      []AnalysisName
	registryMu sync.RWMutex
)

// Define builds a definition whose payload type is P. The response body is
// decoded into a fresh empty P; non-finite numbers are read as null first.
func Define[P Payload](spec AnalysisRequestSpec, label, group string, empty func() P) AnalysisDefinition {
	return AnalysisDefinition{
		Spec:  spec,
		Label: label,
		Group: group,
		Decode: func(body []byte) (Payload, error) {
			p := empty()
			if err := json.Unmarshal(SanitizeJSON(body), &p); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", spec.Name, err)
			}
			return p, nil
		},
		Empty: func() Payload { return empty() },
	}
}

// Register adds an analysis definition to the registry.
// Panics if an analysis with the same name is already registered.
func Register(def AnalysisDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := def.Spec.Name
	if name == "" {
		panic("analysis registered without a name")
	}
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("analysis already registered: %s", name))
	}
	if def.Decode == nil || def.Empty == nil {
		panic(fmt.Sprintf("analysis %s needs Decode and Empty", name))
	}

	registry[name] = def
	order = append(order, name)
}

// Get returns an analysis definition by name.
func Get(name AnalysisName) (AnalysisDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns every registered definition in registration order.
func All() []AnalysisDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AnalysisDefinition, len(order))
	for i, name := range order {
		result[i] = registry[name]
	}
	return result
}

// Specs returns the request specs of every registered analysis.
func Specs() []AnalysisRequestSpec {
	defs := All()
	specs := make([]AnalysisRequestSpec, len(defs))
	for i, def := range defs {
		specs[i] = def.Spec
	}
	return specs
}

// AnalysisCount returns the number of registered analyses.
func AnalysisCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered analyses.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[AnalysisName]AnalysisDefinition)
	order = nil
}

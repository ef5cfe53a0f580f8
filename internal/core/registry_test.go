package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OrderAndLookup(t *testing.T) {
	defs := testDefs(t)

	assert.Equal(t, 3, AnalysisCount())
	for i, def := range All() {
		assert.Equal(t, defs[i].Spec.Name, def.Spec.Name)
	}

	def, ok := Get(AnalysisChurn)
	require.True(t, ok)
	assert.Equal(t, "churn_prediction", def.Spec.Endpoint)

	_, ok = Get("nope")
	assert.False(t, ok)

	specs := Specs()
	require.Len(t, specs, 3)
	assert.Equal(t, AnalysisRFM, specs[0].Name)
}

func TestRegistry_PanicsOnDuplicate(t *testing.T) {
	testDefs(t)
	assert.Panics(t, func() { Register(clvDef()) })
	assert.Panics(t, func() { Register(AnalysisDefinition{}) })
	assert.Panics(t, func() {
		Register(AnalysisDefinition{Spec: AnalysisRequestSpec{Name: "x"}})
	})
}

func TestWithQueryCopies(t *testing.T) {
	spec := AnalysisRequestSpec{Name: AnalysisGeography, Endpoint: "geographical_analysis"}

	scaled := spec.WithQuery("scaled", "true")
	again := scaled.WithQuery("top", "10")

	assert.Empty(t, spec.Query)
	assert.Equal(t, "true", scaled.Query.Get("scaled"))
	assert.Empty(t, scaled.Query.Get("top"))
	assert.Equal(t, "10", again.Query.Get("top"))
}

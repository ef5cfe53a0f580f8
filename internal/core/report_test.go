package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_NilIsSafe(t *testing.T) {
	var r *Report

	assert.Equal(t, "No report yet", r.Summary())
	assert.False(t, r.Partial())
	assert.False(t, r.Failed(AnalysisCLV))
	assert.Nil(t, r.Populated())
	assert.Empty(t, r.CLV().Rows)
}

func TestReport_EmptyVersusFailed(t *testing.T) {
	testDefs(t)
	outcomes := []AnalysisOutcome{
		{Name: AnalysisCLV, Status: StatusSuccess, Payload: CLVResult{Rows: []CLVRow{}}},
		{Name: AnalysisChurn, Status: StatusFailed, Error: "timeout"},
	}

	r := newReport("id", "f.csv", "ok", time.Now(), outcomes)

	assert.Empty(t, r.CLV().Rows)
	assert.Empty(t, r.Churn().Predictions)
	assert.True(t, r.Succeeded(AnalysisCLV), "ran but empty is a success")
	assert.False(t, r.Failed(AnalysisCLV))
	assert.True(t, r.Failed(AnalysisChurn))
	assert.False(t, r.Failed(AnalysisRFM), "not requested is not failed")
}

func TestReport_SuccessWithoutPayloadIsFailure(t *testing.T) {
	r := newReport("id", "f.csv", "", time.Now(), []AnalysisOutcome{{Name: AnalysisCLV, Status: StatusSuccess}})

	assert.True(t, r.Failed(AnalysisCLV))
	assert.Empty(t, r.Populated())
}

func TestResultStore_ReplaceIsWholesale(t *testing.T) {
	var store ResultStore
	assert.Nil(t, store.Current())

	first := newReport("r1", "a.csv", "", time.Now(), []AnalysisOutcome{
		{Name: AnalysisCLV, Status: StatusSuccess, Payload: CLVResult{Rows: []CLVRow{{CLV: 1}}}},
		{Name: AnalysisChurn, Status: StatusSuccess, Payload: ChurnResult{}},
	})
	second := newReport("r2", "b.csv", "", time.Now(), []AnalysisOutcome{
		{Name: AnalysisCLV, Status: StatusSuccess, Payload: CLVResult{Rows: []CLVRow{{CLV: 2}}}},
	})

	assert.Nil(t, store.Replace(first))
	prev := store.Replace(second)
	assert.Same(t, first, prev)

	cur := store.Current()
	require.Same(t, second, cur)
	assert.False(t, cur.Succeeded(AnalysisChurn), "no payload survives from the previous run")

	store.Clear()
	assert.Nil(t, store.Current())
}

func TestResultStore_ConcurrentReaders(t *testing.T) {
	var store ResultStore
	reports := make([]*Report, 20)
	for i := range reports {
		reports[i] = newReport(string(rune('a'+i)), "f.csv", "", time.Now(), nil)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, r := range reports {
			store.Replace(r)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if r := store.Current(); r != nil {
				assert.NotEmpty(t, r.ID)
			}
		}
	}()
	wg.Wait()

	assert.Same(t, reports[len(reports)-1], store.Current())
}

func TestFailureSummary(t *testing.T) {
	assert.Equal(t, "", FailureSummary(nil))
	assert.Equal(t, "Failed to fetch data from: churn, clv", FailureSummary([]Failure{
		{Name: AnalysisChurn}, {Name: AnalysisCLV},
	}))
}

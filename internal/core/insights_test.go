package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeInsights(t *testing.T) {
	r := newReport("r", "f.csv", "", time.Now(), []AnalysisOutcome{
		{Name: AnalysisRFM, Status: StatusSuccess, Payload: RFMResult{Segments: map[string][]RFMCustomer{
			"Champions": make([]RFMCustomer, 5),
			"Lost":      make([]RFMCustomer, 2),
			"At Risk":   make([]RFMCustomer, 3),
		}}},
		{Name: AnalysisCLV, Status: StatusSuccess, Payload: CLVResult{Rows: []CLVRow{
			{CLV: 100}, {CLV: 80}, {CLV: 75}, {CLV: 10},
		}}},
		{Name: AnalysisMonthlyRevenue, Status: StatusSuccess, Payload: MonthlyRevenueResult{Rows: []MonthlyRevenueRow{
			{TotalPrice: 10.5}, {TotalPrice: 20},
		}}},
		{Name: AnalysisChurn, Status: StatusSuccess, Payload: ChurnResult{Predictions: []ChurnRow{
			{ChurnProbability: 0.9}, {ChurnProbability: 0.7}, {ChurnProbability: 0.71},
		}}},
	})

	got := ComputeInsights(r)

	assert.Equal(t, Insights{
		TotalCustomers: 10,
		TopSegment:     "Champions",
		HighCLVCount:   2,
		TotalRevenue:   30.5,
		HighChurnRisk:  2,
	}, got)
}

func TestComputeInsights_NoData(t *testing.T) {
	assert.Equal(t, Insights{TopSegment: "N/A"}, ComputeInsights(nil))

	failed := newReport("r", "f.csv", "", time.Now(), []AnalysisOutcome{
		{Name: AnalysisRFM, Status: StatusFailed, Error: "x"},
	})
	assert.Equal(t, Insights{TopSegment: "N/A"}, ComputeInsights(failed))
}

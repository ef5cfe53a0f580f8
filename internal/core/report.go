package core

import (
	"fmt"
	"time"
)

// Report is the aggregated result of one completed run. It is built once by
// the orchestrator and never mutated afterwards.
type Report struct {
	ID          string
	FileName    string
	Message     string // Upload confirmation from the analysis service
	Options     RunOptions
	StartedAt   time.Time
	CompletedAt time.Time
	Outcomes    []AnalysisOutcome // One per requested analysis, in request order
	Failures    []Failure

	payloads map[AnalysisName]Payload
}

// newReport assembles a report from settled outcomes. Only successful
// outcomes contribute payloads.
func newReport(id, fileName, message string, started time.Time, outcomes []AnalysisOutcome) *Report {
	r := &Report{
		ID:          id,
		FileName:    fileName,
		Message:     message,
		StartedAt:   started,
		CompletedAt: time.Now(),
		Outcomes:    outcomes,
		payloads:    make(map[AnalysisName]Payload, len(outcomes)),
	}
	for _, o := range outcomes {
		if o.Status == StatusSuccess && o.Payload != nil {
			r.payloads[o.Name] = o.Payload
			continue
		}
		r.Failures = append(r.Failures, Failure{Name: o.Name, Message: o.Error})
	}
	return r
}

// Payload returns the success payload for name.
func (r *Report) Payload(name AnalysisName) (Payload, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.payloads[name]
	return p, ok
}

// Succeeded reports whether name produced a payload in this run.
func (r *Report) Succeeded(name AnalysisName) bool {
	_, ok := r.Payload(name)
	return ok
}

// Failed reports whether name was requested and failed in this run.
func (r *Report) Failed(name AnalysisName) bool {
	if r == nil {
		return false
	}
	for _, f := range r.Failures {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Populated returns the names of successful analyses in request order.
func (r *Report) Populated() []AnalysisName {
	if r == nil {
		return nil
	}
	names := make([]AnalysisName, 0, len(r.payloads))
	for _, o := range r.Outcomes {
		if _, ok := r.payloads[o.Name]; ok {
			names = append(names, o.Name)
		}
	}
	return names
}

// Partial reports whether at least one analysis failed.
func (r *Report) Partial() bool {
	return r != nil && len(r.Failures) > 0
}

// Summary describes the run outcome in one line.
func (r *Report) Summary() string {
	if r == nil {
		return "No report yet"
	}
	if len(r.Failures) == 0 {
		return fmt.Sprintf("All %d analyses succeeded", len(r.Outcomes))
	}
	return fmt.Sprintf("Partially succeeded (%d of %d). %s",
		len(r.Outcomes)-len(r.Failures), len(r.Outcomes), FailureSummary(r.Failures))
}

// payloadOf returns the success payload for name as P, or the registered
// placeholder when the analysis failed or was not requested.
func payloadOf[P Payload](r *Report, name AnalysisName) P {
	if p, ok := r.Payload(name); ok {
		if typed, ok := p.(P); ok {
			return typed
		}
	}
	if def, ok := Get(name); ok {
		if typed, ok := def.Empty().(P); ok {
			return typed
		}
	}
	var zero P
	return zero
}

func (r *Report) RFM() RFMResult { return payloadOf[RFMResult](r, AnalysisRFM) }

func (r *Report) MonthlyRevenue() MonthlyRevenueResult {
	return payloadOf[MonthlyRevenueResult](r, AnalysisMonthlyRevenue)
}

func (r *Report) DailyRevenue() DailyRevenueResult {
	return payloadOf[DailyRevenueResult](r, AnalysisDailyRevenue)
}

func (r *Report) TopCustomers() TopCustomersResult {
	return payloadOf[TopCustomersResult](r, AnalysisTopCustomers)
}

func (r *Report) TopProducts() TopProductsResult {
	return payloadOf[TopProductsResult](r, AnalysisTopProducts)
}

func (r *Report) Geography() GeographyResult {
	return payloadOf[GeographyResult](r, AnalysisGeography)
}

func (r *Report) Acquisition() AcquisitionResult {
	return payloadOf[AcquisitionResult](r, AnalysisAcquisition)
}

func (r *Report) ActivityHeatmap() HeatmapResult {
	return payloadOf[HeatmapResult](r, AnalysisActivityHeatmap)
}

func (r *Report) Churn() ChurnResult { return payloadOf[ChurnResult](r, AnalysisChurn) }

func (r *Report) CLV() CLVResult { return payloadOf[CLVResult](r, AnalysisCLV) }

func (r *Report) Affinity() AffinityResult { return payloadOf[AffinityResult](r, AnalysisAffinity) }

func (r *Report) Sentiment() SentimentResult {
	return payloadOf[SentimentResult](r, AnalysisSentiment)
}

func (r *Report) InventoryTurnover() TurnoverResult {
	return payloadOf[TurnoverResult](r, AnalysisInventoryTurnover)
}

func (r *Report) DiscountImpact() DiscountResult {
	return payloadOf[DiscountResult](r, AnalysisDiscountImpact)
}

func (r *Report) Seasonality() SeasonalityResult {
	return payloadOf[SeasonalityResult](r, AnalysisSeasonality)
}

func (r *Report) Retention() RetentionResult {
	return payloadOf[RetentionResult](r, AnalysisRetention)
}

func (r *Report) SalesDrop() SalesDropResult {
	return payloadOf[SalesDropResult](r, AnalysisSalesDrop)
}

func (r *Report) Repurchase() RepurchaseResult {
	return payloadOf[RepurchaseResult](r, AnalysisRepurchase)
}

func (r *Report) Marketing() MarketingResult {
	return payloadOf[MarketingResult](r, AnalysisMarketing)
}

func (r *Report) ReturnRate() ReturnRateResult {
	return payloadOf[ReturnRateResult](r, AnalysisReturnRate)
}

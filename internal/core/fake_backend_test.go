package core

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeBackend is a scripted analysis service.
type fakeBackend struct {
	uploadErr   error
	uploadBlock chan struct{} // when set, Upload waits for it to close
	bodies      map[AnalysisName]string
	errs        map[AnalysisName]error
	panics      map[AnalysisName]bool
	delay       time.Duration
	block       chan struct{} // when set, Analyze waits for it to close

	uploads  atomic.Int32
	analyses atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32

	mu      sync.Mutex
	queries map[AnalysisName]url.Values
}

func (f *fakeBackend) Upload(ctx context.Context, file UploadSession) (string, error) {
	f.uploads.Add(1)
	if f.uploadBlock != nil {
		select {
		case <-f.uploadBlock:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "File uploaded successfully", nil
}

func (f *fakeBackend) Analyze(ctx context.Context, spec AnalysisRequestSpec, file UploadSession) ([]byte, error) {
	f.analyses.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	if f.queries == nil {
		f.queries = map[AnalysisName]url.Values{}
	}
	f.queries[spec.Name] = spec.Query
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.panics[spec.Name] {
		panic("boom")
	}
	if err := f.errs[spec.Name]; err != nil {
		return nil, err
	}
	if body, ok := f.bodies[spec.Name]; ok {
		return []byte(body), nil
	}
	return nil, &AnalysisError{Name: spec.Name, Message: "no data", Err: errors.New("status 500")}
}

func (f *fakeBackend) query(name AnalysisName) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[name]
}

var testBodies = map[AnalysisName]string{
	AnalysisRFM:       `{"segment_data":{"Champions":[{"CustomerID":1,"segment":"Champions"},{"CustomerID":2,"segment":"Champions"}],"Lost":[{"CustomerID":3,"segment":"Lost"}]}}`,
	AnalysisChurn:     `{"churn_predictions":[{"CustomerID":1,"Churn_Probability":0.9},{"CustomerID":2,"Churn_Probability":0.2}],"confusion_matrix":[[1,0],[0,1]]}`,
	AnalysisCLV:       `{"clv":[{"CustomerID":"A","CLV":100,"recommendation":"Reward"},{"CustomerID":"B","CLV":50,"recommendation":"Nurture"}]}`,
	AnalysisGeography: `{"geographical_revenue":[{"Country":"France","RawRevenue":10,"CustomerCount":1}]}`,
}

func rfmDef() AnalysisDefinition {
	return Define(AnalysisRequestSpec{Name: AnalysisRFM, Endpoint: "rfm_analysis"}, "Segmentation", "customer",
		func() RFMResult { return RFMResult{Segments: map[string][]RFMCustomer{}} })
}

func churnDef() AnalysisDefinition {
	return Define(AnalysisRequestSpec{Name: AnalysisChurn, Endpoint: "churn_prediction"}, "Churn", "predictive",
		func() ChurnResult { return ChurnResult{Predictions: []ChurnRow{}} })
}

func clvDef() AnalysisDefinition {
	return Define(AnalysisRequestSpec{Name: AnalysisCLV, Endpoint: "customer_lifetime_value"}, "CLV", "customer",
		func() CLVResult { return CLVResult{Rows: []CLVRow{}} })
}

func geographyDef() AnalysisDefinition {
	return Define(AnalysisRequestSpec{Name: AnalysisGeography, Endpoint: "geographical_analysis"}, "Geography", "revenue",
		func() GeographyResult { return GeographyResult{Rows: []CountryRevenue{}} })
}

func monthlyDef() AnalysisDefinition {
	return Define(AnalysisRequestSpec{Name: AnalysisMonthlyRevenue, Endpoint: "monthly_revenue"}, "Monthly", "revenue",
		func() MonthlyRevenueResult { return MonthlyRevenueResult{Rows: []MonthlyRevenueRow{}} })
}

// testDefs returns rfm, churn and clv, and registers them for the duration
// of the test so report accessors can find their placeholders.
func testDefs(t *testing.T) []AnalysisDefinition {
	t.Helper()
	defs := []AnalysisDefinition{rfmDef(), churnDef(), clvDef()}
	Clear()
	for _, d := range defs {
		Register(d)
	}
	t.Cleanup(Clear)
	return defs
}

func testFile() UploadSession {
	return UploadSession{FileName: "sales.csv", ContentType: "text/csv", Data: []byte("InvoiceNo,Quantity\n1,2\n"), UploadedAt: time.Now()}
}

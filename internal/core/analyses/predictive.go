package analyses

import "github.com/JonMunkholm/insights/internal/core"

func init() {
	registerChurn()
	registerRepurchase()
	registerRetention()
}

func registerChurn() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisChurn, Endpoint: "churn_prediction"},
		"Churn Prediction", GroupPredictive,
		func() core.ChurnResult {
			return core.ChurnResult{Predictions: []core.ChurnRow{}, ConfusionMatrix: [][]float64{}}
		},
	))
}

func registerRepurchase() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisRepurchase, Endpoint: "repurchase_prediction"},
		"Repurchase Prediction", GroupPredictive,
		func() core.RepurchaseResult {
			return core.RepurchaseResult{Rows: []core.RepurchaseRow{}}
		},
	))
}

func registerRetention() {
	core.Register(core.Define(
		core.AnalysisRequestSpec{Name: core.AnalysisRetention, Endpoint: "retention_rate"},
		"Retention Rate", GroupPredictive,
		func() core.RetentionResult {
			return core.RetentionResult{Cohorts: []core.RetentionCohort{}}
		},
	))
}

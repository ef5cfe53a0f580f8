package core

// Insights are the headline numbers shown above the dashboard tabs.
type Insights struct {
	TotalCustomers int     `json:"totalCustomers"`
	TopSegment     string  `json:"topSegment"`
	HighCLVCount   int     `json:"highCLVCount"`
	TotalRevenue   float64 `json:"totalRevenue"`
	HighChurnRisk  int     `json:"highChurnRisk"`
}

// HighCLVRatio marks a customer as high value when their CLV exceeds this
// share of the first CLV row.
const HighCLVRatio = 0.75

// HighChurnThreshold is the churn probability above which a customer counts
// as at risk.
const HighChurnThreshold = 0.7

// ComputeInsights derives the headline numbers from r. Analyses that failed
// contribute zero; a nil report yields zero Insights with TopSegment "N/A".
func ComputeInsights(r *Report) Insights {
	in := Insights{TopSegment: "N/A"}

	best := -1
	for _, s := range r.RFM().Sizes() {
		in.TotalCustomers += s.Customers
		if s.Customers > best {
			best = s.Customers
			in.TopSegment = s.Segment
		}
	}

	clv := r.CLV().Rows
	if len(clv) > 0 {
		threshold := clv[0].CLV * HighCLVRatio
		for _, c := range clv {
			if c.CLV > threshold {
				in.HighCLVCount++
			}
		}
	}

	for _, m := range r.MonthlyRevenue().Rows {
		in.TotalRevenue += m.TotalPrice
	}

	for _, c := range r.Churn().Predictions {
		if c.ChurnProbability > HighChurnThreshold {
			in.HighChurnRisk++
		}
	}

	return in
}

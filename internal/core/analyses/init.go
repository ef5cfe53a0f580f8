// Package analyses registers every analysis definition with the core registry.
// Import this package to ensure all analyses are registered.
package analyses

// Registration order is request order: each group file registers its
// analyses from its own init(), and Go runs them in file name order.

// Dashboard groups.
const (
	GroupCustomer   = "customer"
	GroupRevenue    = "revenue"
	GroupProduct    = "product"
	GroupPredictive = "predictive"
)

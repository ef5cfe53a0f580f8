// Package core provides the report orchestration logic.
//
// This package turns one uploaded dataset into one aggregated report. It is
// independent of any UI or transport layer and can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Analysis Definitions: Registered via the registry, each analysis has a
//     request spec, a payload type and an empty placeholder.
//   - Orchestrator: Uploads the file once, then fans out every analysis and
//     waits for all of them to settle.
//   - Report and ResultStore: The aggregated result of one run, published
//     atomically per session.
//   - Service: Sessions, run serialization, progress and run history.
//
// # Analysis Registry
//
// Analyses are registered at init time using [Register]. [Define] binds a
// request spec to a typed payload:
//
//	core.Register(core.Define(
//	    core.AnalysisRequestSpec{Name: core.AnalysisCLV, Endpoint: "customer_lifetime_value"},
//	    "Customer Lifetime Value", "customer",
//	    func() core.CLVResult { return core.CLVResult{Rows: []core.CLVRow{}} },
//	))
//
// The report is a tagged union keyed by analysis name. Typed accessors such
// as [Report.CLV] return the decoded payload, or the registered placeholder
// when the analysis failed, so view code never reads a missing field.
//
// # Runs
//
// A run proceeds as follows:
//
//  1. Client calls [Service.StartRun] with the uploaded file
//  2. The session's RunGate rejects the run if another is in flight
//  3. The global RunLimiter waits for a free slot
//  4. The Orchestrator uploads the file; a failed upload ends the run
//  5. Every analysis is requested concurrently; failures are recorded
//  6. The report replaces the session's previous one wholesale
//
// Progress is broadcast to subscribers via [Service.SubscribeProgress].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - UPL001-UPL004: Upload errors (rejected, missing, empty, too large)
//   - ANL001-ANL003: Analysis errors (decode, failed, unknown)
//   - RUN001-RUN004: Run errors (in progress, busy, not found, cancelled)
//   - VIEW001-VIEW002, EXP001-EXP002: View and export errors
//   - NET001-NET002: Analysis service unreachable or slow
//
// Only an upload failure is fatal to a run. Failed analyses are listed in
// [Report.Failures] and summarized by [FailureSummary].
package core

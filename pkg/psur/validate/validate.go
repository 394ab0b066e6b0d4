package validate

import (
	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/trace"
)

// Validate runs every rule family over the computation context and DTR
// chain and returns the flat, ordered list of results. It never records
// a DTR; VALIDATE_PSUR does that with this function's return value as
// the outputContent.
func Validate(ctx *pctx.Context, chain []trace.DTR) []Result {
	var results []Result

	results = append(results, evidencePeriodRules(ctx)...)
	results = append(results, dataSufficiencyRules(ctx)...)
	results = append(results, structuralCoverageRules(ctx)...)
	results = append(results, consistencyRules(ctx)...)
	results = append(results, reconciliationRules(ctx)...)
	results = append(results, llmProofRules(ctx, chain)...)

	return results
}

// CriticalFailureCount returns how many results are critical-severity
// failures. VALIDATE_PSUR records it in its DTR's outputContent; S12's
// narrative does not include it, since sections are generated before
// validation runs.
func CriticalFailureCount(results []Result) int {
	count := 0
	for _, r := range results {
		if r.Severity == SeverityCritical && r.Status == StatusFail {
			count++
		}
	}
	return count
}

package validate

import (
	"fmt"

	"github.com/certen-health/psurgen/pkg/psur/analytics"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
)

func evidencePeriodRules(ctx *pctx.Context) []Result {
	var results []Result

	if len(ctx.AtomsByType("sales_exposure")) == 0 {
		results = append(results, fail("denominator_present", SeverityCritical, "no exposure evidence atom was cited for this run", nil))
	} else {
		results = append(results, pass("denominator_present", SeverityCritical, "exposure evidence is present"))
	}

	if ctx.Analytics.Exposure.TotalUnits == 0 {
		results = append(results, fail("denominator_nonzero", SeverityCritical, "total exposure units is zero", nil))
	} else {
		results = append(results, pass("denominator_nonzero", SeverityCritical, "total exposure units is non-zero"))
	}

	if ctx.EarliestComplaintDate != "" {
		if ctx.EarliestComplaintDate < ctx.CaseStart || ctx.LatestComplaintDate > ctx.CaseEnd {
			results = append(results, fail("surveillance_period_coverage", SeverityCritical,
				"complaint dates fall outside the declared surveillance period",
				map[string]any{"dataStart": ctx.EarliestComplaintDate, "dataEnd": ctx.LatestComplaintDate}))
		} else {
			results = append(results, pass("surveillance_period_coverage", SeverityCritical, "complaint dates fall within the surveillance period"))
		}
	} else {
		results = append(results, pass("surveillance_period_coverage", SeverityCritical, "no complaints were recorded to evaluate coverage against"))
	}

	if ctx.Analytics.Trend.Determination == analytics.DeterminationTrendDetected && len(ctx.Analytics.Trend.WesternElectricViolations) == 0 {
		results = append(results, fail("trend_with_evidence", SeverityCritical, "TREND_DETECTED was determined with no supporting Western Electric violation", nil))
	} else {
		results = append(results, pass("trend_with_evidence", SeverityCritical, "trend determination is supported by its evidence"))
	}

	if ctx.Analytics.Risk.RiskProfileChanged && ctx.Analytics.Trend.Determination != analytics.DeterminationTrendDetected {
		results = append(results, fail("benefit_risk_requires_trend", SeverityCritical, "benefit-risk conclusion changed without a corresponding trend detection", nil))
	} else {
		results = append(results, pass("benefit_risk_requires_trend", SeverityCritical, "benefit-risk conclusion is consistent with the trend determination"))
	}

	results = append(results, claimsLinkedToEvidence(ctx))

	return results
}

func claimsLinkedToEvidence(ctx *pctx.Context) Result {
	var unverified []string
	for id, raw := range ctx.Sections {
		claims, ok := sectionClaims(raw)
		if !ok {
			continue
		}
		for _, c := range claims {
			if !c.Verified {
				unverified = append(unverified, fmt.Sprintf("%s: %s", id, c.Text))
			}
		}
	}

	if len(unverified) > 0 {
		return fail("claims_linked_to_evidence", SeverityCritical, "one or more extracted claims are not linked to any evidence or derived input",
			map[string]any{"unverifiedClaims": unverified})
	}
	return pass("claims_linked_to_evidence", SeverityCritical, "every extracted claim is linked to evidence or a derived input")
}

func dataSufficiencyRules(ctx *pctx.Context) []Result {
	var results []Result

	n := len(ctx.Analytics.Trend.MonthlySeries)
	if n < 12 {
		results = append(results, warn("minimum_datapoints", SeverityMajor, fmt.Sprintf("only %d monthly data points available, fewer than the minimum of 12", n), map[string]any{"n": n}))
	} else {
		results = append(results, pass("minimum_datapoints", SeverityMajor, "at least 12 monthly data points are available"))
	}

	if ctx.Analytics.CAPA.Total == 0 {
		results = append(results, fail("capa_dataset_present", SeverityMajor, "no CAPA records were provided", nil))
	} else {
		results = append(results, pass("capa_dataset_present", SeverityMajor, "CAPA records are present"))
	}

	r := ctx.Analytics.Risk
	if r.HighCount == 0 && r.MediumCount == 0 && r.LowCount == 0 {
		results = append(results, fail("risk_summary_present", SeverityMajor, "no residual risk summary was provided", nil))
	} else {
		results = append(results, pass("risk_summary_present", SeverityMajor, "residual risk summary is present"))
	}

	if ctx.Analytics.Literature.Total == 0 && ctx.Analytics.PMCF.Total == 0 {
		results = append(results, warn("optional_fields_present", SeverityMinor, "no literature or PMCF records were provided", nil))
	} else {
		results = append(results, pass("optional_fields_present", SeverityMinor, "literature or PMCF records are present"))
	}

	return results
}

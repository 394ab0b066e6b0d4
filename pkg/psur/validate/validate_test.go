package validate_test

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/certen-health/psurgen/pkg/psur/analytics"
	"github.com/certen-health/psurgen/pkg/psur/annex"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/section"
	"github.com/certen-health/psurgen/pkg/psur/trace"
	"github.com/certen-health/psurgen/pkg/psur/validate"
)

func TestValidate(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "validate suite")
}

func fullyPopulatedContext() *pctx.Context {
	ctx := pctx.New("CASE-1", "2023-01-01", "2023-12-31")
	ctx.EvidenceAtoms = []pctx.EvidenceAtomRef{{ID: "e1", Type: "sales_exposure"}}
	ctx.Analytics.Exposure = analytics.ExposureResult{TotalUnits: 12000}
	ctx.Analytics.CAPA = analytics.LifecycleResult{Total: 2}
	ctx.Analytics.Risk = analytics.RiskResult{LowCount: 1}
	ctx.Analytics.Trend = analytics.TrendResult{
		Determination: analytics.DeterminationNoTrend,
		MonthlySeries: make([]analytics.MonthlyPoint, 12),
	}

	for _, s := range section.All() {
		result := s(ctx)
		ctx.Sections[result.SectionID] = result
	}
	for _, a := range annex.All() {
		result := a(ctx)
		result.Rows = [][]string{{"x"}}
		ctx.AnnexTables[result.TableID] = result
	}

	return ctx
}

func llmDTR(sectionID string, complete bool, provider, requestID string) trace.DTR {
	output := map[string]any{
		"provider":          provider,
		"model":             "claude-x",
		"correlationId":     "corr-1",
		"providerRequestId": requestID,
		"sectionId":         sectionID,
		"inputTokens":       100.0,
		"outputTokens":      200.0,
		"latencyMs":         50.0,
	}
	if complete {
		output["transportProof"] = map[string]any{
			"sdk":                 "anthropic-sdk-go",
			"endpointHost":        "api.anthropic.com",
			"httpStatus":          200.0,
			"providerRequestId":   requestID,
			"responseHeadersHash": "abc123",
		}
	}
	return trace.DTR{TraceID: "t-" + sectionID, TraceType: trace.TypeLLMSectionEnhancement, OutputContent: output}
}

var _ = Describe("Validate", func() {
	It("passes evidence/period and data-sufficiency rules on a well-formed context", func() {
		ctx := fullyPopulatedContext()
		results := validate.Validate(ctx, nil)

		for _, r := range results {
			if r.RuleKey == "denominator_present" || r.RuleKey == "denominator_nonzero" || r.RuleKey == "capa_dataset_present" || r.RuleKey == "risk_summary_present" {
				Expect(r.Status).To(Equal(validate.StatusPass), r.RuleKey)
			}
		}
	})

	It("warns minimum_datapoints and passes trend_with_evidence for below-minimum data", func() {
		ctx := fullyPopulatedContext()
		ctx.Analytics.Trend.MonthlySeries = make([]analytics.MonthlyPoint, 6)

		results := validate.Validate(ctx, nil)
		ruleByKey := indexByKey(results)

		Expect(ruleByKey["minimum_datapoints"].Status).To(Equal(validate.StatusWarn))
		Expect(ruleByKey["trend_with_evidence"].Status).To(Equal(validate.StatusPass))
	})

	It("fails surveillance_period_coverage with dataStart/dataEnd context on a period breach", func() {
		ctx := fullyPopulatedContext()
		ctx.EarliestComplaintDate = "2024-01-05"
		ctx.LatestComplaintDate = "2024-01-05"

		results := validate.Validate(ctx, nil)
		r := indexByKey(results)["surveillance_period_coverage"]

		Expect(r.Status).To(Equal(validate.StatusFail))
		Expect(r.Context["dataStart"]).To(Equal("2024-01-05"))
		Expect(r.Context["dataEnd"]).To(Equal("2024-01-05"))
	})

	It("requires at least 12 complete LLM proof DTRs and full section coverage", func() {
		ctx := fullyPopulatedContext()
		var chain []trace.DTR
		for i := 1; i <= 12; i++ {
			chain = append(chain, llmDTR(fmt.Sprintf("S%02d", i), true, "anthropic", fmt.Sprintf("r-%d", i)))
		}

		results := validate.Validate(ctx, chain)
		ruleByKey := indexByKey(results)

		Expect(ruleByKey["strict_llm_proof_required"].Status).To(Equal(validate.StatusPass))
		Expect(ruleByKey["strict_llm_coverage"].Status).To(Equal(validate.StatusPass))
	})

	It("rejects a mock provider via mock_proof_provider without failing VERIFY_TRACE_CHAIN-independent checks", func() {
		ctx := fullyPopulatedContext()
		chain := []trace.DTR{llmDTR("S01", true, "mock", "r-1")}

		results := validate.Validate(ctx, chain)
		r := indexByKey(results)["mock_proof_provider"]

		Expect(r.Status).To(Equal(validate.StatusFail))
	})

	It("rejects a mock-shaped provider request id via mock_proof_request_id", func() {
		ctx := fullyPopulatedContext()
		chain := []trace.DTR{llmDTR("S01", true, "anthropic", "req-S01")}

		results := validate.Validate(ctx, chain)
		r := indexByKey(results)["mock_proof_request_id"]

		Expect(r.Status).To(Equal(validate.StatusFail))
	})

	It("evaluates psur_benefit_risk_consistency as passing when S11/S12 are generated consistently", func() {
		ctx := fullyPopulatedContext()
		results := validate.Validate(ctx, nil)
		r := indexByKey(results)["psur_benefit_risk_consistency"]
		Expect(r.Status).To(Equal(validate.StatusPass))
	})

	It("warns structural coverage for a zero-row annex table instead of failing", func() {
		ctx := fullyPopulatedContext()
		t := ctx.AnnexTables["A01"].(annex.TableResult)
		t.Rows = nil
		ctx.AnnexTables["A01"] = t

		results := validate.Validate(ctx, nil)
		r := indexByKey(results)["psur_table_A01_present"]
		Expect(r.Status).To(Equal(validate.StatusWarn))
	})
})

func indexByKey(results []validate.Result) map[string]validate.Result {
	out := make(map[string]validate.Result)
	for _, r := range results {
		out[r.RuleKey] = r
	}
	return out
}

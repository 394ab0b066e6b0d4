package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/trace"
)

var requestIDPattern = regexp.MustCompile(`^req-S\d{2}$`)

// mockProviderPolicy and mockRequestIDPolicy are the anti-mock rules
// expressed as embedded Rego, evaluated per LLM DTR alongside the
// gojq-queried structural checks below.
const mockProviderPolicy = `
package llmproof

default is_mock = false

mock_providers = {"mock", "demo", "stub", "test"}

is_mock if {
	lower(input.provider) == mock_providers[_]
}
`

const mockRequestIDPolicy = `
package llmproof

default is_mock_request_id = false

literal_mocks = {"mock", "demo", "stub"}

is_mock_request_id if {
	literal_mocks[input.providerRequestId]
}

is_mock_request_id if {
	regex.match("^req-S[0-9]{2}$", input.providerRequestId)
}
`

func llmProofRules(ctx *pctx.Context, chain []trace.DTR) []Result {
	var llmDTRs []trace.DTR
	for _, d := range chain {
		if d.TraceType == trace.TypeLLMSectionEnhancement {
			llmDTRs = append(llmDTRs, d)
		}
	}

	return []Result{
		strictLLMProofRequired(llmDTRs),
		strictLLMCoverage(llmDTRs),
		mockProofProvider(llmDTRs),
		mockProofRequestID(llmDTRs),
	}
}

func strictLLMProofRequired(llmDTRs []trace.DTR) Result {
	complete := 0
	for _, d := range llmDTRs {
		if hasCompleteLLMProof(d.OutputContent) {
			complete++
		}
	}
	if complete < 12 {
		return fail("strict_llm_proof_required", SeverityCritical,
			fmt.Sprintf("only %d of %d LLM enhancement DTRs carry complete proof of provenance", complete, len(llmDTRs)),
			map[string]any{"complete": complete, "total": len(llmDTRs)})
	}
	return pass("strict_llm_proof_required", SeverityCritical, "at least 12 LLM enhancement DTRs carry complete proof of provenance")
}

func hasCompleteLLMProof(outputContent any) bool {
	required := []string{
		".provider", ".model", ".correlationId", ".providerRequestId",
		".transportProof.sdk", ".transportProof.endpointHost", ".transportProof.httpStatus",
		".transportProof.providerRequestId", ".transportProof.responseHeadersHash",
	}
	for _, q := range required {
		v, ok := gojqFirst(q, outputContent)
		if !ok || v == nil || v == "" {
			return false
		}
	}

	for _, q := range []string{".inputTokens", ".outputTokens", ".latencyMs"} {
		v, ok := gojqFirst(q, outputContent)
		if !ok {
			return false
		}
		n, ok := v.(float64)
		if !ok || n <= 0 {
			return false
		}
	}
	return true
}

func strictLLMCoverage(llmDTRs []trace.DTR) Result {
	covered := make(map[string]bool)
	for _, d := range llmDTRs {
		if v, ok := gojqFirst(".sectionId", d.OutputContent); ok {
			if s, ok := v.(string); ok {
				covered[s] = true
			}
		}
	}

	var missing []string
	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("S%02d", i)
		if !covered[id] {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		return fail("strict_llm_coverage", SeverityCritical, "not every section has a corresponding LLM enhancement DTR",
			map[string]any{"missingSections": missing})
	}
	return pass("strict_llm_coverage", SeverityCritical, "every section has a corresponding LLM enhancement DTR")
}

func mockProofProvider(llmDTRs []trace.DTR) Result {
	for _, d := range llmDTRs {
		providerVal, ok := gojqFirst(".provider", d.OutputContent)
		if !ok {
			continue
		}
		provider, _ := providerVal.(string)

		input := map[string]any{"provider": strings.ToLower(provider)}
		isMock, err := regoEvalBool(mockProviderPolicy, "data.llmproof.is_mock", input)
		if err == nil && isMock {
			return fail("mock_proof_provider", SeverityCritical,
				fmt.Sprintf("LLM DTR %s declares a mock/demo/stub/test provider %q", d.TraceID, provider),
				map[string]any{"traceId": d.TraceID, "provider": provider})
		}
	}
	return pass("mock_proof_provider", SeverityCritical, "no LLM DTR declares a mock provider")
}

func mockProofRequestID(llmDTRs []trace.DTR) Result {
	for _, d := range llmDTRs {
		idVal, ok := gojqFirst(".providerRequestId", d.OutputContent)
		if !ok {
			continue
		}
		requestID, _ := idVal.(string)

		input := map[string]any{"providerRequestId": requestID}
		isMock, err := regoEvalBool(mockRequestIDPolicy, "data.llmproof.is_mock_request_id", input)
		if (err == nil && isMock) || requestIDPattern.MatchString(requestID) {
			return fail("mock_proof_request_id", SeverityCritical,
				fmt.Sprintf("LLM DTR %s carries a mock-shaped provider request id %q", d.TraceID, requestID),
				map[string]any{"traceId": d.TraceID, "providerRequestId": requestID})
		}
	}
	return pass("mock_proof_request_id", SeverityCritical, "no LLM DTR carries a mock-shaped provider request id")
}

func gojqFirst(query string, input any) (any, bool) {
	q, err := gojq.Parse(query)
	if err != nil {
		return nil, false
	}
	iter := q.Run(input)
	v, ok := iter.Next()
	if !ok {
		return nil, false
	}
	if err, ok := v.(error); ok {
		_ = err
		return nil, false
	}
	return v, true
}

func regoEvalBool(module, query string, input map[string]any) (bool, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module("llmproof.rego", module),
	)
	prepared, err := r.PrepareForEval(context.Background())
	if err != nil {
		return false, err
	}
	results, err := prepared.Eval(context.Background(), rego.EvalInput(input))
	if err != nil {
		return false, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	b, _ := results[0].Expressions[0].Value.(bool)
	return b, nil
}

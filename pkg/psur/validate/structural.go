package validate

import (
	"fmt"

	"github.com/certen-health/psurgen/pkg/psur/annex"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/reconcile"
	"github.com/certen-health/psurgen/pkg/psur/section"
)

func sectionClaims(raw any) ([]section.Claim, bool) {
	s, ok := raw.(section.SectionResult)
	if !ok {
		return nil, false
	}
	return s.Claims, true
}

func structuralCoverageRules(ctx *pctx.Context) []Result {
	var results []Result

	for i := 1; i <= 12; i++ {
		sectionID := fmt.Sprintf("S%02d", i)
		tableID := fmt.Sprintf("A%02d", i)

		if raw, ok := ctx.Sections[sectionID]; ok {
			if s, ok := raw.(section.SectionResult); ok && s.Narrative != "" {
				results = append(results, pass(fmt.Sprintf("psur_section_%s_present", sectionID), SeverityCritical, sectionID+" is present"))
			} else {
				results = append(results, fail(fmt.Sprintf("psur_section_%s_present", sectionID), SeverityCritical, sectionID+" is present but empty", nil))
			}
		} else {
			results = append(results, fail(fmt.Sprintf("psur_section_%s_present", sectionID), SeverityCritical, sectionID+" is missing from the store", nil))
		}

		if raw, ok := ctx.AnnexTables[tableID]; ok {
			t, ok := raw.(annex.TableResult)
			switch {
			case !ok:
				results = append(results, fail(fmt.Sprintf("psur_table_%s_present", tableID), SeverityCritical, tableID+" has an unexpected stored shape", nil))
			case len(t.Rows) == 0:
				results = append(results, warn(fmt.Sprintf("psur_table_%s_present", tableID), SeverityCritical, tableID+" is present with zero rows", nil))
			default:
				results = append(results, pass(fmt.Sprintf("psur_table_%s_present", tableID), SeverityCritical, tableID+" is present"))
			}
		} else {
			results = append(results, fail(fmt.Sprintf("psur_table_%s_present", tableID), SeverityCritical, tableID+" is missing from the store", nil))
		}
	}

	return results
}

// benefitRiskPolicy decides whether two narratives land in opposite
// benefit-risk phrase sets, evaluated via Rego rather than hand-rolled
// Go string matching, matching the LLM-proof rule family's engine choice
// for this kind of phrase-classification check.
const benefitRiskPolicy = `
package benefitrisk

adverse_phrases = ["adversely impacted", "profile has changed"]
favorable_phrases = ["not been adversely", "remains unchanged", "remains favorable"]

is_adverse(text) if {
	some p
	contains(text, adverse_phrases[p])
}

is_favorable(text) if {
	some p
	contains(text, favorable_phrases[p])
}

default opposite = false

opposite if {
	is_adverse(input.s11)
	is_favorable(input.s12)
}

opposite if {
	is_favorable(input.s11)
	is_adverse(input.s12)
}
`

// consistencyRules compares S11 and S12 narratives; they must land in
// the same benefit-risk phrase set, not opposite ones.
func consistencyRules(ctx *pctx.Context) []Result {
	s11, ok11 := ctx.Sections["S11"].(section.SectionResult)
	s12, ok12 := ctx.Sections["S12"].(section.SectionResult)

	if !ok11 || !ok12 {
		return []Result{fail("psur_benefit_risk_consistency", SeverityCritical, "S11 or S12 is missing", nil)}
	}

	opposite, err := regoEvalBool(benefitRiskPolicy, "data.benefitrisk.opposite", map[string]any{
		"s11": s11.Narrative,
		"s12": s12.Narrative,
	})
	if err == nil && opposite {
		return []Result{fail("psur_benefit_risk_consistency", SeverityCritical, "S11 and S12 state opposite benefit-risk conclusions", nil)}
	}
	return []Result{pass("psur_benefit_risk_consistency", SeverityCritical, "S11 and S12 are consistent")}
}

// reconciliationRules surfaces error-severity reconciliation findings
// through validation at a downgraded major/warn severity rather than
// treating them as fatal; see DESIGN.md's Open Question resolution #3.
func reconciliationRules(ctx *pctx.Context) []Result {
	var errorFindings []reconcile.Finding
	for _, f := range ctx.Reconciliation.Findings {
		if f.Severity == reconcile.SeverityError {
			errorFindings = append(errorFindings, f)
		}
	}

	if len(errorFindings) == 0 {
		return []Result{pass("psur_reconciliation", SeverityMajor, "no error-severity reconciliation findings")}
	}

	messages := make([]string, 0, len(errorFindings))
	for _, f := range errorFindings {
		messages = append(messages, f.Message)
	}

	return []Result{warn("psur_reconciliation", SeverityMajor,
		fmt.Sprintf("%d reconciliation finding(s) at error severity", len(errorFindings)),
		map[string]any{"messages": messages})}
}

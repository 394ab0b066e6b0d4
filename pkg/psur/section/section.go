// Package section implements the twelve narrative section generators
// (C7): pure functions from the computation context to deterministic
// templated prose plus the claims extracted from it. No generator ever
// fails; narrative content is always produced from context values, even
// when those values are zero.
package section

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/reconcile"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)
	numericToken  = regexp.MustCompile(`\d`)
	domainTerm    = regexp.MustCompile(`rate|trend|UCL|sigma|CAPA|incident|hazard|risk|benefit`)
)

// Provenance cites the evidence atoms and derived inputs a section's
// narrative draws from.
type Provenance struct {
	EvidenceAtomIDs []string
	DerivedInputIDs []string
}

// Claim is one sentence extracted from a section's narrative that either
// carries a numeric token or a domain term.
type Claim struct {
	Text           string
	EvidenceAtomID string
	DerivedInputID string
	Verified       bool
}

// SectionResult is the output of one section generator.
type SectionResult struct {
	SectionID          string
	Title              string
	Number             int
	Narrative          string
	Claims             []Claim
	ReferencedTableIDs []string
	Limitations        []string
	Provenance         Provenance
}

func provenanceFor(ctx *pctx.Context, atomTypes, derivedTypes []string) Provenance {
	atoms := ctx.AtomsByType(atomTypes...)
	derived := ctx.DerivedByType(derivedTypes...)

	p := Provenance{}
	for _, a := range atoms {
		p.EvidenceAtomIDs = append(p.EvidenceAtomIDs, a.ID)
	}
	for _, d := range derived {
		p.DerivedInputIDs = append(p.DerivedInputIDs, d.ID)
	}
	return p
}

// extractClaims splits narrative into sentences and retains those that
// carry either a numeric token or one of the domain terms, attaching the
// first cited evidence atom / derived input id when available.
func extractClaims(narrative string, prov Provenance) []Claim {
	sentences := sentenceSplit.Split(strings.TrimSpace(narrative), -1)

	var claims []Claim
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !numericToken.MatchString(s) && !domainTerm.MatchString(s) {
			continue
		}

		claim := Claim{Text: s}
		if len(prov.EvidenceAtomIDs) > 0 {
			claim.EvidenceAtomID = prov.EvidenceAtomIDs[0]
		}
		if len(prov.DerivedInputIDs) > 0 {
			claim.DerivedInputID = prov.DerivedInputIDs[0]
		}
		claim.Verified = claim.EvidenceAtomID != "" || claim.DerivedInputID != ""

		claims = append(claims, claim)
	}
	return claims
}

// Builder is the common shape of every section generator function.
type Builder func(*pctx.Context) SectionResult

// All returns every builder in section-id order.
func All() []Builder {
	return []Builder{S01, S02, S03, S04, S05, S06, S07, S08, S09, S10, S11, S12}
}

func S01(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"device_master"}, nil)
	narrative := fmt.Sprintf(
		"This Periodic Safety Update Report covers case %s for the surveillance period from %s to %s. "+
			"A total of %d complaints were recorded against %d units distributed.",
		ctx.CaseID, ctx.CaseStart, ctx.CaseEnd, ctx.Analytics.Complaints.Total, ctx.Analytics.Exposure.TotalUnits,
	)
	return build("S01", "Executive Summary", 1, narrative, nil, prov)
}

func S02(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"device_master"}, nil)
	narrative := fmt.Sprintf(
		"The subject device is %s, model %s, manufactured by %s.",
		orNA(ctx.Device.Name), orNA(ctx.Device.Model), orNA(ctx.Device.Manufacturer),
	)
	return build("S02", "Device Description", 2, narrative, nil, prov)
}

func S03(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"device_master", "sales_exposure", "complaints"}, nil)
	narrative := "Surveillance data was sourced from sales exposure records, complaint intake, serious incident reporting, CAPA, FSCA, literature review, and PMCF datasets, normalized and reconciled against the declared surveillance period."
	if limitation := reconciliationLimitationNarrative(ctx); limitation != "" {
		narrative += " " + limitation
	}
	return build("S03", "Surveillance Methodology", 3, narrative, nil, prov)
}

// reconciliationLimitationNarrative renders the limitation sentences the
// reconciler recorded alongside its error-severity findings, so a reader
// of the Methods section sees exactly which cross-dataset checks could
// not be fully reconciled rather than only the pass/fail validator
// result.
func reconciliationLimitationNarrative(ctx *pctx.Context) string {
	hasError := false
	for _, f := range ctx.Reconciliation.Findings {
		if f.Severity == reconcile.SeverityError {
			hasError = true
			break
		}
	}
	if !hasError || len(ctx.Reconciliation.Limitations) == 0 {
		return ""
	}
	return "Known limitations: " + strings.Join(ctx.Reconciliation.Limitations, " ")
}

func S04(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"sales_exposure"}, []string{"exposure_analytics"})
	narrative := fmt.Sprintf(
		"Total exposure for this period was %d units across %d reporting periods and %d countries.",
		ctx.Analytics.Exposure.TotalUnits, len(ctx.Analytics.Exposure.ByPeriod), len(ctx.Analytics.Exposure.ByCountry),
	)
	return build("S04", "Exposure Summary", 4, narrative, []string{"A03", "A04"}, prov)
}

func S05(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"complaints", "sales_exposure"}, []string{"complaint_analytics", "rate_calculation"})
	trend := ctx.Analytics.Trend
	narrative := fmt.Sprintf(
		"Mean complaint rate: %s per 1,000 units. The upper control limit (UCL) is %s with a standard deviation (sigma) of %s over %d monthly data points. "+
			"Western Electric rule evaluation yielded %d violation(s). The trend determination is %s. %s "+
			"The first and second halves of the period's rate series have a shape similarity of %s.",
		formatRate(trend.Mean), formatRate(trend.UCL), formatRate(trend.StdDev), len(trend.MonthlySeries),
		len(trend.WesternElectricViolations), trend.Determination, trend.Justification, formatRate(trend.HalfSeriesSimilarity),
	)
	limitations := trend.Limitations
	return build("S05", "Complaint Rate and Trend Analysis", 5, narrative, []string{"A05", "A06", "A07", "A08"}, prov, limitations...)
}

func S06(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"serious_incidents"}, []string{"incident_analytics"})
	narrative := fmt.Sprintf(
		"%d serious incidents were reported, an incident rate of %s per 1,000 units distributed.",
		ctx.Analytics.Incidents.TotalIncidents, formatRate(ctx.Analytics.Incidents.IncidentRate),
	)
	return build("S06", "Serious Incident Summary", 6, narrative, []string{"A09"}, prov)
}

func S07(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"capa"}, []string{"capa_analytics"})
	c := ctx.Analytics.CAPA
	narrative := fmt.Sprintf(
		"%d CAPA records were tracked in this period, of which %d remain open and %d are closed.",
		c.Total, c.OpenCount, c.ClosedCount,
	)
	return build("S07", "CAPA Summary", 7, narrative, []string{"A10"}, prov)
}

func S08(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"fsca"}, []string{"fsca_analytics"})
	f := ctx.Analytics.FSCA
	narrative := fmt.Sprintf(
		"%d field safety corrective action records were tracked, of which %d remain open and %d are closed.",
		f.Total, f.OpenCount, f.ClosedCount,
	)
	return build("S08", "Field Safety Corrective Actions", 8, narrative, []string{"A10"}, prov)
}

func S09(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"literature", "pmcf"}, []string{"literature_analytics", "pmcf_analytics"})
	lit, pmcf := ctx.Analytics.Literature, ctx.Analytics.PMCF
	narrative := fmt.Sprintf(
		"%d literature records and %d PMCF activities were reviewed for this period.",
		lit.Total, pmcf.Total,
	)
	return build("S09", "Literature and PMCF Summary", 9, narrative, []string{"A11"}, prov)
}

func S10(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"risk_summary"}, []string{"risk_analytics"})
	r := ctx.Analytics.Risk
	narrative := fmt.Sprintf(
		"Residual risk assessment recorded %d high, %d medium, and %d low risk items.",
		r.HighCount, r.MediumCount, r.LowCount,
	)
	return build("S10", "Residual Risk Summary", 10, narrative, []string{"A12"}, prov)
}

func S11(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"risk_summary", "complaints"}, []string{"risk_analytics"})
	narrative := fmt.Sprintf("Benefit-risk analysis: %s", benefitRiskStatement(ctx))
	return build("S11", "Benefit-Risk Analysis", 11, narrative, []string{"A12"}, prov)
}

func S12(ctx *pctx.Context) SectionResult {
	prov := provenanceFor(ctx, []string{"risk_summary", "complaints"}, []string{"risk_analytics"})
	narrative := fmt.Sprintf("Overall conclusion: %s", benefitRiskStatement(ctx))
	return build("S12", "Conclusions and Overall Benefit-Risk Determination", 12, narrative, nil, prov)
}

// benefitRiskStatement produces the same phrase set for S11 and S12 so
// the two sections are consistent by construction; the validator's
// psur_benefit_risk_consistency rule checks this independently.
func benefitRiskStatement(ctx *pctx.Context) string {
	if ctx.Analytics.Risk.RiskProfileChanged {
		return "the benefit-risk profile has changed and the device has been adversely impacted by the findings of this period."
	}
	return "the device has not been adversely affected; the benefit-risk profile remains unchanged and remains favorable."
}

func build(id, title string, number int, narrative string, tableIDs []string, prov Provenance, limitations ...string) SectionResult {
	return SectionResult{
		SectionID:          id,
		Title:              title,
		Number:             number,
		Narrative:          narrative,
		Claims:             extractClaims(narrative, prov),
		ReferencedTableIDs: tableIDs,
		Limitations:        limitations,
		Provenance:         prov,
	}
}

func orNA(s string) string {
	if s == "" {
		return "not reported"
	}
	return s
}

func formatRate(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

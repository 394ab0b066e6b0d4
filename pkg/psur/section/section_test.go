package section

import (
	"strings"
	"testing"

	"github.com/certen-health/psurgen/pkg/psur/analytics"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
)

func emptyContext() *pctx.Context {
	return pctx.New("CASE-1", "2023-01-01", "2023-12-31")
}

func TestAllTwelveGeneratorsProduceASectionID(t *testing.T) {
	ctx := emptyContext()
	want := []string{"S01", "S02", "S03", "S04", "S05", "S06", "S07", "S08", "S09", "S10", "S11", "S12"}
	for i, builder := range All() {
		result := builder(ctx)
		if result.SectionID != want[i] {
			t.Errorf("builder %d produced SectionID %q, want %q", i, result.SectionID, want[i])
		}
		if result.Number != i+1 {
			t.Errorf("builder %d has Number %d, want %d", i, result.Number, i+1)
		}
	}
}

func TestS05MentionsMeanComplaintRateCleanSeries(t *testing.T) {
	ctx := emptyContext()
	ctx.Analytics.Trend = analytics.TrendResult{
		Mean: 1.0, StdDev: 0, UCL: 1.0,
		Determination: analytics.DeterminationNoTrend,
		MonthlySeries: make([]analytics.MonthlyPoint, 12),
	}

	result := S05(ctx)
	if !strings.Contains(result.Narrative, "Mean complaint rate: 1 per 1,000 units") {
		t.Errorf("narrative = %q, expected mean complaint rate phrase", result.Narrative)
	}
}

func TestS11AndS12AreConsistentWhenProfileUnchanged(t *testing.T) {
	ctx := emptyContext()
	ctx.Analytics.Risk = analytics.RiskResult{RiskProfileChanged: false}

	s11 := S11(ctx)
	s12 := S12(ctx)

	unchangedPhrases := []string{"not been adversely", "remains unchanged", "remains favorable"}
	for _, p := range unchangedPhrases {
		if strings.Contains(s11.Narrative, p) != strings.Contains(s12.Narrative, p) {
			t.Errorf("S11/S12 disagree on phrase %q: s11=%q s12=%q", p, s11.Narrative, s12.Narrative)
		}
	}
}

func TestS11AndS12AreConsistentWhenProfileChanged(t *testing.T) {
	ctx := emptyContext()
	ctx.Analytics.Risk = analytics.RiskResult{RiskProfileChanged: true}

	s11 := S11(ctx)
	s12 := S12(ctx)

	if !strings.Contains(s11.Narrative, "adversely impacted") || !strings.Contains(s12.Narrative, "adversely impacted") {
		t.Errorf("expected both sections to state an adverse impact: s11=%q s12=%q", s11.Narrative, s12.Narrative)
	}
	if !strings.Contains(s11.Narrative, "profile has changed") || !strings.Contains(s12.Narrative, "profile has changed") {
		t.Errorf("expected both sections to state the profile has changed: s11=%q s12=%q", s11.Narrative, s12.Narrative)
	}
}

func TestExtractClaimsKeepsOnlyNumericOrDomainTermSentences(t *testing.T) {
	prov := Provenance{EvidenceAtomIDs: []string{"e1"}, DerivedInputIDs: []string{"d1"}}
	narrative := "This is a plain sentence with no signal. The incident rate was elevated this quarter. 42 complaints were recorded."

	claims := extractClaims(narrative, prov)
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d: %+v", len(claims), claims)
	}
	for _, c := range claims {
		if !c.Verified {
			t.Errorf("expected claim to be verified when provenance is present: %+v", c)
		}
	}
}

func TestExtractClaimsZeroMatchingSentencesYieldsZeroClaims(t *testing.T) {
	claims := extractClaims("Nothing notable happened. All systems behaved normally.", Provenance{})
	if len(claims) != 0 {
		t.Errorf("expected zero claims, got %d: %+v", len(claims), claims)
	}
}

func TestExtractClaimsUnverifiedWithoutProvenance(t *testing.T) {
	claims := extractClaims("The risk profile was reviewed.", Provenance{})
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %d", len(claims))
	}
	if claims[0].Verified {
		t.Error("expected claim to be unverified when no provenance is available")
	}
}

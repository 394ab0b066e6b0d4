// Package annex implements the twelve annex table builders (C6): pure
// functions from the computation context to a tabular result with
// provenance. No builder ever fails; an empty input yields either a
// single N/A row or a zero-row table with an explanatory footnote,
// whichever policy is declared for that table.
package annex

import (
	"fmt"
	"sort"

	"github.com/certen-health/psurgen/pkg/psur/analytics"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
)

// Provenance cites the evidence atoms and derived inputs a table's rows
// were computed from.
type Provenance struct {
	EvidenceAtomIDs []string
	DerivedInputIDs []string
}

// TableResult is the output of one annex table builder.
type TableResult struct {
	TableID    string
	Title      string
	Columns    []string
	Rows       [][]string
	Footnotes  []string
	Provenance Provenance
}

// Builder is the common shape of every annex table function.
type Builder func(*pctx.Context) TableResult

// All returns every builder in table-id order, for callers (BUILD_ANNEX_TABLES)
// that need to run and store all twelve uniformly.
func All() []Builder {
	return []Builder{A01, A02, A03, A04, A05, A06, A07, A08, A09, A10, A11, A12}
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

func naRow(columns []string) [][]string {
	row := make([]string, len(columns))
	row[0] = "N/A"
	for i := 1; i < len(row); i++ {
		row[i] = ""
	}
	return [][]string{row}
}

// A01 lists device identification fields from the device master record.
// Empty-input policy: a single N/A row when no device master was loaded.
func A01(ctx *pctx.Context) TableResult {
	columns := []string{"Field", "Value"}
	result := TableResult{
		TableID:    "A01",
		Title:      "Device Identification",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"device_master"}, nil),
	}

	if ctx.Device.Name == "" && ctx.Device.Model == "" {
		result.Rows = naRow(columns)
		result.Footnotes = []string{"No device master record was present in the pack."}
		return result
	}

	result.Rows = [][]string{
		{"Device Name", ctx.Device.Name},
		{"Model", ctx.Device.Model},
		{"Manufacturer", ctx.Device.Manufacturer},
	}
	for _, ref := range ctx.Device.RegulatoryRefs {
		result.Rows = append(result.Rows, []string{"Regulatory Reference", ref})
	}
	return result
}

// A02 summarizes the surveillance period and total exposure.
// Empty-input policy: a zero-row table with a footnote when no exposure
// data was provided.
func A02(ctx *pctx.Context) TableResult {
	columns := []string{"Field", "Value"}
	result := TableResult{
		TableID:    "A02",
		Title:      "Surveillance Period Summary",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"sales_exposure"}, []string{"exposure_analytics"}),
	}

	if ctx.Analytics.Exposure.TotalUnits == 0 {
		result.Footnotes = []string{"No exposure data was available for this surveillance period."}
		return result
	}

	result.Rows = [][]string{
		{"Case Start", ctx.CaseStart},
		{"Case End", ctx.CaseEnd},
		{"Total Units Distributed", fmt.Sprintf("%d", ctx.Analytics.Exposure.TotalUnits)},
	}
	return result
}

// A03 breaks exposure down by calendar month, ascending.
// Empty-input policy: a single N/A row when no monthly exposure exists.
func A03(ctx *pctx.Context) TableResult {
	columns := []string{"Period", "Units Sold"}
	result := TableResult{
		TableID:    "A03",
		Title:      "Exposure by Period",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"sales_exposure"}, []string{"exposure_analytics"}),
	}

	if len(ctx.Analytics.Exposure.ByPeriod) == 0 {
		result.Rows = naRow(columns)
		result.Footnotes = []string{"No monthly exposure data was available."}
		return result
	}

	for _, p := range sortedPeriodKeys(ctx.Analytics.Exposure.ByPeriod) {
		result.Rows = append(result.Rows, []string{p, fmt.Sprintf("%d", ctx.Analytics.Exposure.ByPeriod[p])})
	}
	return result
}

// A04 breaks exposure down by country, descending by units.
// Empty-input policy: zero-row table with a footnote when no country
// breakdown exists.
func A04(ctx *pctx.Context) TableResult {
	columns := []string{"Country", "Units Sold", "Share (%)"}
	result := TableResult{
		TableID:    "A04",
		Title:      "Exposure by Country",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"sales_exposure"}, []string{"exposure_analytics"}),
	}

	if len(ctx.Analytics.Exposure.ByCountry) == 0 {
		result.Footnotes = []string{"No geographic exposure breakdown was available."}
		return result
	}

	for _, c := range ctx.Analytics.Exposure.ByCountry {
		result.Rows = append(result.Rows, []string{c.Country, fmt.Sprintf("%d", c.Units), fmt.Sprintf("%.1f", c.SharePercent)})
	}
	return result
}

// A05 breaks complaint counts down by month, ascending.
// Empty-input policy: a single N/A row when no complaints were recorded.
func A05(ctx *pctx.Context) TableResult {
	columns := []string{"Period", "Complaints"}
	result := TableResult{
		TableID:    "A05",
		Title:      "Complaints by Month",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"complaints"}, []string{"complaint_analytics"}),
	}

	if len(ctx.Analytics.Complaints.ByMonth) == 0 {
		result.Rows = naRow(columns)
		result.Footnotes = []string{"No complaints were recorded in this surveillance period."}
		return result
	}

	for _, m := range ctx.Analytics.Complaints.ByMonth {
		result.Rows = append(result.Rows, []string{m.Key, fmt.Sprintf("%d", m.Count)})
	}
	return result
}

// A06 breaks complaint counts down by country, descending.
// Empty-input policy: zero-row table with a footnote when no complaints
// were recorded.
func A06(ctx *pctx.Context) TableResult {
	columns := []string{"Country", "Complaints"}
	result := TableResult{
		TableID:    "A06",
		Title:      "Complaints by Country",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"complaints"}, []string{"complaint_analytics"}),
	}

	if len(ctx.Analytics.Complaints.ByCountry) == 0 {
		result.Footnotes = []string{"No complaints were recorded in this surveillance period."}
		return result
	}

	for _, c := range ctx.Analytics.Complaints.ByCountry {
		result.Rows = append(result.Rows, []string{c.Key, fmt.Sprintf("%d", c.Count)})
	}
	return result
}

// A07 breaks complaints down by problem code with the serious sub-count.
// Empty-input policy: a single N/A row when no complaints were recorded.
func A07(ctx *pctx.Context) TableResult {
	columns := []string{"Problem Code", "Complaints", "Serious"}
	result := TableResult{
		TableID:    "A07",
		Title:      "Complaints by Problem Code",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"complaints"}, []string{"complaint_analytics"}),
	}

	if len(ctx.Analytics.Complaints.ByProblem) == 0 {
		result.Rows = naRow(columns)
		result.Footnotes = []string{"No complaints were recorded in this surveillance period."}
		return result
	}

	for _, p := range ctx.Analytics.Complaints.ByProblem {
		result.Rows = append(result.Rows, []string{p.ProblemCode, fmt.Sprintf("%d", p.Count), fmt.Sprintf("%d", p.SeriousCount)})
	}
	return result
}

// A08 breaks complaints down by harm code, descending.
// Empty-input policy: zero-row table with a footnote when no complaints
// were recorded.
func A08(ctx *pctx.Context) TableResult {
	columns := []string{"Harm Code", "Complaints"}
	result := TableResult{
		TableID:    "A08",
		Title:      "Complaints by Harm Code",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"complaints"}, []string{"complaint_analytics"}),
	}

	if len(ctx.Analytics.Complaints.ByHarm) == 0 {
		result.Footnotes = []string{"No complaints were recorded in this surveillance period."}
		return result
	}

	for _, h := range ctx.Analytics.Complaints.ByHarm {
		result.Rows = append(result.Rows, []string{h.Key, fmt.Sprintf("%d", h.Count)})
	}
	return result
}

// A09 summarizes serious incidents by country and severity, plus the
// incident rate per 1000 units.
// Empty-input policy: a single N/A row when no serious incidents were
// recorded.
func A09(ctx *pctx.Context) TableResult {
	columns := []string{"Dimension", "Key", "Count"}
	result := TableResult{
		TableID:    "A09",
		Title:      "Serious Incident Summary",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"serious_incidents"}, []string{"incident_analytics"}),
	}

	if ctx.Analytics.Incidents.TotalIncidents == 0 {
		result.Rows = naRow(columns)
		result.Footnotes = []string{"No serious incidents were recorded in this surveillance period."}
		return result
	}

	for _, c := range ctx.Analytics.Incidents.ByCountry {
		result.Rows = append(result.Rows, []string{"Country", c.Key, fmt.Sprintf("%d", c.Count)})
	}
	for _, s := range ctx.Analytics.Incidents.BySeverity {
		result.Rows = append(result.Rows, []string{"Severity", s.Key, fmt.Sprintf("%d", s.Count)})
	}
	result.Footnotes = []string{fmt.Sprintf("Incident rate: %.4f per 1,000 units distributed.", ctx.Analytics.Incidents.IncidentRate)}
	return result
}

// A10 summarizes CAPA and FSCA lifecycle totals.
// Empty-input policy: zero-row table with a footnote when neither
// dataset has entries.
func A10(ctx *pctx.Context) TableResult {
	columns := []string{"Category", "Total", "Open", "Closed", "Avg. Closure Days"}
	result := TableResult{
		TableID:    "A10",
		Title:      "CAPA and FSCA Summary",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"capa", "fsca"}, []string{"capa_analytics", "fsca_analytics"}),
	}

	if ctx.Analytics.CAPA.Total == 0 && ctx.Analytics.FSCA.Total == 0 {
		result.Footnotes = []string{"No CAPA or FSCA records were present in this surveillance period."}
		return result
	}

	result.Rows = append(result.Rows, lifecycleRow("CAPA", ctx.Analytics.CAPA))
	result.Rows = append(result.Rows, lifecycleRow("FSCA", ctx.Analytics.FSCA))
	return result
}

// A11 summarizes literature review and PMCF activity totals.
// Empty-input policy: zero-row table with a footnote when neither
// dataset has entries.
func A11(ctx *pctx.Context) TableResult {
	columns := []string{"Category", "Total", "Open", "Closed", "Avg. Closure Days"}
	result := TableResult{
		TableID:    "A11",
		Title:      "Literature and PMCF Summary",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"literature", "pmcf"}, []string{"literature_analytics", "pmcf_analytics"}),
	}

	if ctx.Analytics.Literature.Total == 0 && ctx.Analytics.PMCF.Total == 0 {
		result.Footnotes = []string{"No literature or PMCF records were present in this surveillance period."}
		return result
	}

	result.Rows = append(result.Rows, lifecycleRow("Literature", ctx.Analytics.Literature))
	result.Rows = append(result.Rows, lifecycleRow("PMCF", ctx.Analytics.PMCF))
	return result
}

// A12 summarizes the residual risk profile.
// Empty-input policy: a single N/A row when no risk summary was
// provided.
func A12(ctx *pctx.Context) TableResult {
	columns := []string{"Level", "Count"}
	result := TableResult{
		TableID:    "A12",
		Title:      "Residual Risk Summary",
		Columns:    columns,
		Provenance: provenanceFor(ctx, []string{"risk_summary"}, []string{"risk_analytics"}),
	}

	r := ctx.Analytics.Risk
	if r.HighCount == 0 && r.MediumCount == 0 && r.LowCount == 0 {
		result.Rows = naRow(columns)
		result.Footnotes = []string{"No residual risk summary was provided."}
		return result
	}

	result.Rows = [][]string{
		{"HIGH", fmt.Sprintf("%d", r.HighCount)},
		{"MEDIUM", fmt.Sprintf("%d", r.MediumCount)},
		{"LOW", fmt.Sprintf("%d", r.LowCount)},
	}
	if r.RiskProfileChanged {
		result.Footnotes = []string{"The benefit-risk conclusion has changed since the prior report."}
	}
	return result
}

func lifecycleRow(label string, r analytics.LifecycleResult) []string {
	avg := "N/A"
	if r.AverageClosureDays != nil {
		avg = fmt.Sprintf("%.1f", *r.AverageClosureDays)
	}
	return []string{label, fmt.Sprintf("%d", r.Total), fmt.Sprintf("%d", r.OpenCount), fmt.Sprintf("%d", r.ClosedCount), avg}
}

func sortedPeriodKeys(byPeriod map[string]int) []string {
	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

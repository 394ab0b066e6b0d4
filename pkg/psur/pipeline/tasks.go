package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "github.com/certen-health/psurgen/internal/errors"
	"github.com/certen-health/psurgen/pkg/psur/analytics"
	"github.com/certen-health/psurgen/pkg/psur/annex"
	"github.com/certen-health/psurgen/pkg/psur/collaborators"
	"github.com/certen-health/psurgen/pkg/psur/hashkit"
	"github.com/certen-health/psurgen/pkg/psur/llm"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/reconcile"
	"github.com/certen-health/psurgen/pkg/psur/section"
	"github.com/certen-health/psurgen/pkg/psur/store"
	"github.com/certen-health/psurgen/pkg/psur/trace"
	"github.com/certen-health/psurgen/pkg/psur/validate"
)

const rawDatasetPrefix = "raw:"

func runPackLoad(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	manifest, err := callThrough(r, breakerLoader, func() (collaborators.Manifest, error) {
		return r.collaborators.Loader.LoadManifest(ctx, r.Config.PackDir)
	})
	if err != nil {
		return nil, apperrors.ExternalFailure("loader.LoadManifest", err)
	}

	datasets, err := callThrough(r, breakerLoader, func() ([]collaborators.NormalizedDataset, error) {
		return r.collaborators.Loader.LoadDatasets(ctx, r.Config.PackDir, manifest.Files)
	})
	if err != nil {
		return nil, apperrors.ExternalFailure("loader.LoadDatasets", err)
	}

	if _, err := r.Store.Set(store.KindManifest, "manifest", manifest); err != nil {
		return nil, err
	}
	for _, f := range manifest.Files {
		if _, err := r.Store.Set(store.KindFileHashes, f.FileName, f.SHA256); err != nil {
			return nil, err
		}
	}
	for _, ds := range datasets {
		if _, err := r.Store.Set(store.KindNormalizedData, rawDatasetPrefix+ds.CanonicalTarget, ds.Rows); err != nil {
			return nil, err
		}
	}

	r.Context.Device = pctx.DeviceMaster{
		Name:           manifest.DeviceName,
		Model:          manifest.DeviceModel,
		Manufacturer:   manifest.Manufacturer,
		RegulatoryRefs: manifest.RegulatoryRefs,
	}
	if manifest.CaseStart != "" {
		r.Context.CaseStart = manifest.CaseStart
	}
	if manifest.CaseEnd != "" {
		r.Context.CaseEnd = manifest.CaseEnd
	}

	return manifest, nil
}

func runEvidenceIngest(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	initiated := time.Now()

	rawManifest, err := r.Store.Get(store.KindManifest, "manifest")
	if err != nil {
		return nil, err
	}
	manifest := rawManifest.(collaborators.Manifest)

	var sources []trace.SourceCitation
	var steps []trace.ReasoningStep
	for i, f := range manifest.Files {
		atom := pctx.EvidenceAtomRef{
			ID:       fmt.Sprintf("EA-%02d", i+1),
			Type:     f.CanonicalTarget,
			FileName: f.FileName,
			SHA256:   f.SHA256,
		}
		r.Context.EvidenceAtoms = append(r.Context.EvidenceAtoms, atom)
		if _, err := r.Store.Set(store.KindEvidenceAtoms, atom.ID, atom); err != nil {
			return nil, err
		}
		sources = append(sources, trace.SourceCitation{SourceID: atom.ID, SourceHash: atom.SHA256, SourceType: atom.Type})
		steps = append(steps, trace.ReasoningStep{
			StepNumber: i + 1,
			Action:     "qualify_evidence_atom",
			Detail:     fmt.Sprintf("registered %s as evidence atom %s of type %s", f.FileName, atom.ID, atom.Type),
		})
	}

	dtr := r.record(trace.TypeDataQualification, initiated, trace.Fields{
		InputLineage:  trace.InputLineage{PrimarySources: sources},
		Reasoning:     trace.ReasoningChain{Steps: steps},
		OutputContent: map[string]any{"evidenceAtomCount": len(r.Context.EvidenceAtoms)},
		Regulatory:    trace.RegulatoryObligations{Primary: []string{"MDR Article 86", "MDR Annex III"}},
		ValidationResults: trace.ValidationOutcome{Pass: true, Messages: []string{fmt.Sprintf("%d evidence atoms qualified", len(r.Context.EvidenceAtoms))}},
	})

	return dtr, nil
}

func runNormalizeDatasets(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	raw := r.Store.GetAllByKind(store.KindNormalizedData)

	summary := map[string]int{}

	for id, value := range raw {
		if len(id) < len(rawDatasetPrefix) || id[:len(rawDatasetPrefix)] != rawDatasetPrefix {
			continue
		}
		target := id[len(rawDatasetPrefix):]
		rows, _ := value.([]map[string]any)

		var typed any
		switch target {
		case "sales_exposure":
			typed = decodeExposure(rows)
		case "complaints":
			complaints := decodeComplaints(rows)
			typed = complaints
			if dates := complaintDates(complaints); len(dates) > 0 {
				earliest, latest := dates[0], dates[0]
				for _, d := range dates {
					if d < earliest {
						earliest = d
					}
					if d > latest {
						latest = d
					}
				}
				r.Context.EarliestComplaintDate = earliest
				r.Context.LatestComplaintDate = latest
			}
		case "serious_incidents":
			typed = decodeIncidents(rows)
		case "capa", "fsca", "literature", "pmcf":
			typed = decodeLifecycle(rows)
		case "risk_summary":
			typed = decodeRisk(rows)
		default:
			typed = rows // device_master / distribution / vigilance pass through opaque
		}

		if _, err := r.Store.Set(store.KindNormalizedData, target, typed); err != nil {
			return nil, err
		}
		summary[target] = len(rows)
	}

	return summary, nil
}

func complaintDates(records []analytics.ComplaintRecord) []string {
	out := make([]string, 0, len(records))
	for _, c := range records {
		if c.Date != "" {
			out = append(out, c.Date)
		}
	}
	return out
}

// runQualifyData is the data-sufficiency pass: a placeholder for schema
// enforcement the loader is already expected to guarantee, kept as its
// own task so a future stricter loader can be swapped in without
// reshaping the DAG.
func runQualifyData(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	for _, target := range []string{"sales_exposure", "complaints", "serious_incidents", "capa", "fsca", "literature", "pmcf", "risk_summary"} {
		v, err := r.Store.Get(store.KindNormalizedData, target)
		if err != nil {
			continue
		}
		if _, err := r.Store.Set(store.KindQualifiedData, target, v); err != nil {
			return nil, err
		}
	}
	return r.Store.GetAllByKind(store.KindQualifiedData), nil
}

func runReconcile(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	exposureVal, _ := r.Store.Get(store.KindNormalizedData, "sales_exposure")
	complaintsVal, _ := r.Store.Get(store.KindNormalizedData, "complaints")
	_, distributionSet := r.Store.GetAllByKind(store.KindNormalizedData)["distribution"]

	exposure, _ := exposureVal.([]analytics.ExposureRecord)
	complaints, _ := complaintsVal.([]analytics.ComplaintRecord)

	exposureMonths := monthSet(exposure)
	complaintMonths := monthSetComplaints(complaints)

	result := reconcile.Run(reconcile.Input{
		CaseStart:       r.Context.CaseStart,
		CaseEnd:         r.Context.CaseEnd,
		ComplaintDates:  complaintDates(complaints),
		ExposureMonths:  exposureMonths,
		ComplaintMonths: complaintMonths,
		DeviceMasterSet: r.Context.Device.Name != "",
		DistributionSet: distributionSet,
	})

	r.Context.Reconciliation = result
	if _, err := r.Store.Set(store.KindReconciliation, "result", result); err != nil {
		return nil, err
	}

	return result, nil
}

func monthSet(records []analytics.ExposureRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range records {
		if !seen[e.Period] {
			seen[e.Period] = true
			out = append(out, e.Period)
		}
	}
	return out
}

func monthSetComplaints(records []analytics.ComplaintRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range records {
		if len(c.Date) < 7 {
			continue
		}
		month := c.Date[:7]
		if !seen[month] {
			seen[month] = true
			out = append(out, month)
		}
	}
	return out
}

func runComputeMetrics(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	initiated := time.Now()

	exposureRows, _ := r.Store.Get(store.KindQualifiedData, "sales_exposure")
	complaintsRows, _ := r.Store.Get(store.KindQualifiedData, "complaints")
	incidentsRows, _ := r.Store.Get(store.KindQualifiedData, "serious_incidents")
	capaRows, _ := r.Store.Get(store.KindQualifiedData, "capa")
	fscaRows, _ := r.Store.Get(store.KindQualifiedData, "fsca")
	literatureRows, _ := r.Store.Get(store.KindQualifiedData, "literature")
	pmcfRows, _ := r.Store.Get(store.KindQualifiedData, "pmcf")
	riskRows, _ := r.Store.Get(store.KindQualifiedData, "risk_summary")

	exposure := analytics.Exposure(asExposure(exposureRows))
	complaints := analytics.Complaints(asComplaints(complaintsRows))
	incidents := analytics.Incidents(asIncidents(incidentsRows), exposure.TotalUnits)
	capa := analytics.CAPA(asLifecycle(capaRows))
	fsca := analytics.FSCA(asLifecycle(fscaRows))
	literature := analytics.Literature(asLifecycle(literatureRows))
	pmcf := analytics.PMCF(asLifecycle(pmcfRows))

	riskRecords := asRisk(riskRows)
	currentConclusion := r.Context.CurrentConclusion
	if currentConclusion == "" && len(riskRecords) > 0 {
		currentConclusion = riskRecords[len(riskRecords)-1].Conclusion
		r.Context.CurrentConclusion = currentConclusion
	}
	risk := analytics.Risk(riskRecords, r.Context.PriorConclusion, currentConclusion)

	trend := analytics.Trend(monthlyComplaintCounts(asComplaints(complaintsRows)), exposure.ByPeriod)

	r.Context.Analytics = pctx.AnalyticsResults{
		Exposure: exposure, Complaints: complaints, Incidents: incidents,
		CAPA: capa, FSCA: fsca, Literature: literature, PMCF: pmcf,
		Risk: risk, Trend: trend,
	}

	for i, kernel := range []string{"exposure", "complaints", "incidents", "capa", "fsca", "literature", "pmcf", "risk", "trend"} {
		r.Context.DerivedInputs = append(r.Context.DerivedInputs, pctx.DerivedInputRef{
			ID:       fmt.Sprintf("DI-%02d", i+1),
			Type:     kernel,
			Formula:  kernel,
			CodeHash: hashkit.StringHash("analytics." + kernel),
		})
	}

	if _, err := r.Store.Set(store.KindAnalytics, "results", r.Context.Analytics); err != nil {
		return nil, err
	}

	dtr := r.record(trace.TypeRateCalculation, initiated, trace.Fields{
		DerivedInputs: []trace.DerivedInputCitation{
			{Formula: "trend.rate_per_1000", Parameters: map[string]any{"months": len(trend.MonthlySeries)}, CodeHash: hashkit.StringHash("analytics.trend")},
		},
		OutputContent: map[string]any{
			"totalUnits":        exposure.TotalUnits,
			"totalComplaints":   complaints.Total,
			"incidentRate":      incidents.IncidentRate,
			"trendMean":         trend.Mean,
			"trendUCL":          trend.UCL,
			"trendDetermination": string(trend.Determination),
		},
		Regulatory:        trace.RegulatoryObligations{Primary: []string{"MDR Article 88", "MEDDEV 2.12/2"}},
		ValidationResults: trace.ValidationOutcome{Pass: true},
	})

	return dtr, nil
}

func asExposure(v any) []analytics.ExposureRecord {
	out, _ := v.([]analytics.ExposureRecord)
	return out
}
func asComplaints(v any) []analytics.ComplaintRecord {
	out, _ := v.([]analytics.ComplaintRecord)
	return out
}
func asIncidents(v any) []analytics.IncidentRecord {
	out, _ := v.([]analytics.IncidentRecord)
	return out
}
func asLifecycle(v any) []analytics.LifecycleItem {
	out, _ := v.([]analytics.LifecycleItem)
	return out
}
func asRisk(v any) []analytics.RiskRecord {
	out, _ := v.([]analytics.RiskRecord)
	return out
}

func monthlyComplaintCounts(records []analytics.ComplaintRecord) map[string]int {
	out := map[string]int{}
	for _, c := range records {
		if len(c.Date) < 7 {
			continue
		}
		out[c.Date[:7]]++
	}
	return out
}

func runBuildAnnexTables(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	initiated := time.Now()

	var summary []map[string]any
	for _, builder := range annex.All() {
		result := builder(r.Context)
		r.Context.AnnexTables[result.TableID] = result
		if _, err := r.Store.Set(store.KindAnnexTables, result.TableID, result); err != nil {
			return nil, err
		}
		summary = append(summary, map[string]any{"tableId": result.TableID, "rows": len(result.Rows)})
	}

	dtr := r.record(trace.TypeDerivedSeriesGeneration, initiated, trace.Fields{
		OutputContent:     map[string]any{"tables": summary},
		ValidationResults: trace.ValidationOutcome{Pass: true},
	})

	return dtr, nil
}

func runGenerateSections(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	initiated := time.Now()

	var summary []map[string]any
	for _, builder := range section.All() {
		result := builder(r.Context)
		r.Context.Sections[result.SectionID] = result
		if _, err := r.Store.Set(store.KindSections, result.SectionID, result); err != nil {
			return nil, err
		}
		summary = append(summary, map[string]any{"sectionId": result.SectionID, "claims": len(result.Claims)})
	}

	dtr := r.record(trace.TypeBenefitRiskNarrative, initiated, trace.Fields{
		OutputContent:     map[string]any{"sections": summary},
		Regulatory:        trace.RegulatoryObligations{Primary: []string{"MDR Annex III(B)"}},
		ValidationResults: trace.ValidationOutcome{Pass: true},
	})

	return dtr, nil
}

func runLLMEnhanceSections(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	if r.collaborators.Enhancer == nil {
		return nil, apperrors.ExternalFailure("llm.Enhancer", fmt.Errorf("no enhancer configured"))
	}

	var ids []string
	for id := range r.Context.Sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]llm.EnhanceResult, 0, len(ids))
	for _, id := range ids {
		initiated := time.Now()
		sec := r.Context.Sections[id].(section.SectionResult)

		result, err := callThrough(r, breakerLLM, func() (llm.EnhanceResult, error) {
			return r.collaborators.Enhancer.Enhance(ctx, llm.EnhanceRequest{
				SectionID:     id,
				Narrative:     sec.Narrative,
				CorrelationID: r.Config.CaseID,
			})
		})
		if err != nil {
			return nil, apperrors.ExternalFailure("llm.Enhancer.Enhance", err)
		}

		if _, err := r.Store.Set(store.KindLLMCalls, id, result); err != nil {
			return nil, err
		}

		r.record(trace.TypeLLMSectionEnhancement, initiated, trace.Fields{
			OutputContent:     result.AsOutputContent(),
			ValidationResults: trace.ValidationOutcome{Pass: true},
		})

		results = append(results, result)
	}

	return results, nil
}

func runValidatePSUR(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	initiated := time.Now()

	results := validate.Validate(r.Context, r.Recorder.GetChain())
	if _, err := r.Store.Set(store.KindValidationResults, "results", results); err != nil {
		return nil, err
	}

	critical := validate.CriticalFailureCount(results)

	dtr := r.record(trace.TypeValidationDecision, initiated, trace.Fields{
		OutputContent:     map[string]any{"results": results, "criticalFailureCount": critical},
		ValidationResults: trace.ValidationOutcome{Pass: critical == 0},
	})

	return dtr, nil
}

func runRenderDocx(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	chart, err := callThrough(r, breakerChart, func() ([]byte, error) {
		return r.collaborators.ChartRenderer.RenderTrendChart(ctx, monthlySeriesAsAny(r.Context.Analytics.Trend.MonthlySeries))
	})
	if err != nil {
		return nil, apperrors.ExternalFailure("collaborators.ChartRenderer", err)
	}
	if _, err := r.Store.Set(store.KindChartBuffer, "trend_chart", chart); err != nil {
		return nil, err
	}

	docx, err := callThrough(r, breakerDocx, func() ([]byte, error) {
		return r.collaborators.DocxRenderer.Render(ctx, r.Config.TemplateID, sectionsAsAny(r.Context.Sections), tablesAsAny(r.Context.AnnexTables))
	})
	if err != nil {
		return nil, apperrors.ExternalFailure("collaborators.DocxRenderer", err)
	}
	if _, err := r.Store.Set(store.KindDocxBuffer, "report", docx); err != nil {
		return nil, err
	}

	return map[string]int{"docxBytes": len(docx), "chartBytes": len(chart)}, nil
}

func monthlySeriesAsAny(series []analytics.MonthlyPoint) []any {
	out := make([]any, len(series))
	for i, p := range series {
		out[i] = p
	}
	return out
}

func sectionsAsAny(sections map[string]any) []any {
	var ids []string
	for id := range sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = sections[id]
	}
	return out
}

func tablesAsAny(tables map[string]any) []any {
	var ids []string
	for id := range tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = tables[id]
	}
	return out
}

func runExportBundle(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	initiated := time.Now()

	docxVal, err := r.Store.Get(store.KindDocxBuffer, "report")
	if err != nil {
		return nil, err
	}
	chartVal, err := r.Store.Get(store.KindChartBuffer, "trend_chart")
	if err != nil {
		return nil, err
	}

	chain := r.Recorder.GetChain()

	auditJSONL, err := buildAuditJSONL(chain)
	if err != nil {
		return nil, err
	}
	contextGraph, err := buildContextGraph(chain)
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to build context graph: %w", err)
	}
	computationContext, err := buildComputationContext(r.Context)
	if err != nil {
		return nil, fmt.Errorf("pipeline: failed to build computation context: %w", err)
	}

	files := map[string][]byte{
		"psur.docx":                           docxVal.([]byte),
		"trend_chart.png":                     chartVal.([]byte),
		"audit/audit.jsonl":                   auditJSONL,
		"audit/context_graph.cytoscape.json":  contextGraph,
		"audit/audit_summary.md":              buildAuditSummary(chain),
		"data/computation_context.json":       computationContext,
	}

	bundle, err := callThrough(r, breakerZip, func() ([]byte, error) {
		return r.collaborators.ZipPackager.Package(ctx, files)
	})
	if err != nil {
		return nil, apperrors.ExternalFailure("collaborators.ZipPackager", err)
	}

	if _, err := r.Store.Set(store.KindZipBundle, "bundle", bundle); err != nil {
		return nil, err
	}

	dtr := r.record(trace.TypeExportGeneration, initiated, trace.Fields{
		OutputContent: map[string]any{
			"dtrRecords": len(chain) + 1,
			"bundleHash": hashkit.BytesHash(bundle),
			"bundleSize": len(bundle),
		},
		ValidationResults: trace.ValidationOutcome{Pass: true},
	})

	return dtr, nil
}

func runVerifyTraceChain(ctx context.Context, r *Runtime, in InputBundle) (any, error) {
	report := r.Recorder.ValidateChain()
	if _, err := r.Store.Set(store.KindChainVerification, "report", report); err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, apperrors.ChainCorrupt(report.Errors)
	}
	return report, nil
}

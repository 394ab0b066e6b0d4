// Package pctx defines the computation context: the aggregate bound to
// one run that carries case identity, period bounds, every analytics
// result, evidence/derived-input references, and the accumulated
// sections/annex tables/validation results produced as the pipeline
// progresses. It is mutated exactly by the pipeline stages and never
// shared across runs.
package pctx

import (
	"github.com/certen-health/psurgen/pkg/psur/analytics"
	"github.com/certen-health/psurgen/pkg/psur/reconcile"
)

// EvidenceAtomRef cites one ingested source file.
type EvidenceAtomRef struct {
	ID       string
	Type     string
	FileName string
	SHA256   string
}

// DerivedInputRef cites one analytics kernel invocation's output.
type DerivedInputRef struct {
	ID       string
	Type     string
	Formula  string
	CodeHash string
}

// DeviceMaster is the device identity block from the pack manifest.
type DeviceMaster struct {
	Name           string
	Model          string
	Manufacturer   string
	RegulatoryRefs []string
}

// AnalyticsResults bundles every C4 kernel output for the run.
type AnalyticsResults struct {
	Exposure   analytics.ExposureResult
	Complaints analytics.ComplaintResult
	Incidents  analytics.IncidentResult
	CAPA       analytics.LifecycleResult
	FSCA       analytics.LifecycleResult
	Literature analytics.LifecycleResult
	PMCF       analytics.LifecycleResult
	Risk       analytics.RiskResult
	Trend      analytics.TrendResult
}

// Context is the computation context shared across annex builders,
// section generators, and the validator.
type Context struct {
	CaseID      string
	CaseStart   string
	CaseEnd     string
	Device      DeviceMaster

	Analytics     AnalyticsResults
	Reconciliation reconcile.Result

	EvidenceAtoms []EvidenceAtomRef
	DerivedInputs []DerivedInputRef

	PriorConclusion   string
	CurrentConclusion string

	EarliestComplaintDate string // YYYY-MM-DD, empty when no complaints
	LatestComplaintDate   string

	// Sections and AnnexTables accumulate as GENERATE_SECTIONS and
	// BUILD_ANNEX_TABLES run; the validator reads them back.
	Sections     map[string]any
	AnnexTables  map[string]any
}

// New returns an empty context ready for the pipeline to populate.
func New(caseID, caseStart, caseEnd string) *Context {
	return &Context{
		CaseID:      caseID,
		CaseStart:   caseStart,
		CaseEnd:     caseEnd,
		Sections:    make(map[string]any),
		AnnexTables: make(map[string]any),
	}
}

// AtomsByType returns every evidence atom whose type tag is in the given
// set, preserving ingest order. Used by annex/section builders to
// populate provenance by declared type tags.
func (c *Context) AtomsByType(types ...string) []EvidenceAtomRef {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var out []EvidenceAtomRef
	for _, a := range c.EvidenceAtoms {
		if wanted[a.Type] {
			out = append(out, a)
		}
	}
	return out
}

// DerivedByType returns every derived input whose type tag is in the
// given set, preserving emission order.
func (c *Context) DerivedByType(types ...string) []DerivedInputRef {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var out []DerivedInputRef
	for _, d := range c.DerivedInputs {
		if wanted[d.Type] {
			out = append(out, d)
		}
	}
	return out
}

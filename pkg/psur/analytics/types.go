// Package analytics implements the nine pure aggregator kernels and the
// SPC trend engine (C4). Every kernel here is deterministic and
// side-effect free: given equal inputs it always returns equal outputs,
// and none of them touch the store, the clock, or any other kernel's
// state.
package analytics

import "github.com/certen-health/psurgen/pkg/shared/math"

// ExposureRecord is one row of the normalized sales_exposure dataset.
type ExposureRecord struct {
	Period string // YYYY-MM
	Country string
	Units  int
}

// ComplaintRecord is one row of the normalized complaints dataset.
type ComplaintRecord struct {
	ID          string
	Date        string // YYYY-MM-DD
	Country     string
	Serious     bool
	Reportable  bool
	ProblemCode string
	HarmCode    string
	RootCause   string // empty => "Unclassified"
}

// IncidentRecord is one row of the normalized serious_incidents dataset.
type IncidentRecord struct {
	ID       string
	Country  string
	Severity string
}

// LifecycleItem is the common shape shared by CAPA, FSCA, literature and
// PMCF pass-through rows: an id, an open/closed-style status, and
// optional open/close dates (YYYY-MM-DD strings, empty if unset).
type LifecycleItem struct {
	ID        string
	Status    string // kernel-specific vocabulary, see each kernel's doc comment
	OpenedAt  string
	ClosedAt  string
}

// RiskRecord is one row of the normalized risk_summary dataset.
type RiskRecord struct {
	ID          string
	Level       string // HIGH | MEDIUM | LOW
	Conclusion  string
}

// ExposureResult is the output of the exposure-analytics kernel.
type ExposureResult struct {
	TotalUnits   int
	ByPeriod     map[string]int
	ByCountry    []CountryShare
}

// CountryShare is one row of a country breakdown, sorted descending by
// count with insertion-order tie-break.
type CountryShare struct {
	Country      string
	Units        int
	SharePercent float64 // units*100/totalUnits, rounded to one decimal
}

// CodeCount is one row of a code/country/root-cause breakdown.
type CodeCount struct {
	Key   string
	Count int
}

// ProblemHarmCell is one cell of the problem x harm matrix.
type ProblemHarmCell struct {
	ProblemCode string
	HarmCode    string
	Count       int
}

// ComplaintResult is the output of the complaint-analytics kernel.
type ComplaintResult struct {
	Total      int
	Serious    int
	Reportable int

	ByMonth     []CodeCount // ascending by month
	ByCountry   []CodeCount // descending by count
	ByProblem   []ProblemSeriousCount
	ByHarm      []CodeCount
	ByRootCause []CodeCount
	ProblemHarmMatrix []ProblemHarmCell
}

// ProblemSeriousCount is one row of the problem-code breakdown, carrying
// the serious-complaint sub-count for that problem code.
type ProblemSeriousCount struct {
	ProblemCode string
	Count       int
	SeriousCount int
}

// IncidentResult is the output of the incident-analytics kernel.
type IncidentResult struct {
	TotalIncidents int
	ByCountry      []CodeCount
	BySeverity     []CodeCount
	IncidentRate   float64
}

// LifecycleResult is the shared output shape for CAPA/FSCA/literature/PMCF
// kernels.
type LifecycleResult struct {
	Total             int
	OpenCount         int
	ClosedCount       int
	AverageClosureDays *float64 // nil when no closed items
	Items             []LifecycleItem
}

// RiskResult is the output of the risk-analytics kernel.
type RiskResult struct {
	HighCount          int
	MediumCount        int
	LowCount           int
	RiskProfileChanged bool
}

// MonthlyPoint is one row of the trend engine's monthly series.
type MonthlyPoint struct {
	Period     string
	Complaints int
	UnitsSold  int
	Rate       float64
}

// WesternElectricViolation is one emission of one Western Electric rule.
type WesternElectricViolation struct {
	Rule        int
	Description string
	Periods     []string
	Values      []float64
}

// Determination is the trend engine's final verdict.
type Determination string

const (
	DeterminationNoTrend      Determination = "NO_TREND"
	DeterminationTrendDetected Determination = "TREND_DETECTED"
	DeterminationInconclusive Determination = "INCONCLUSIVE"
)

// TrendResult is the output of the SPC trend engine.
type TrendResult struct {
	MonthlySeries             []MonthlyPoint
	Mean                      float64
	StdDev                    float64
	UCL                       float64
	WesternElectricViolations []WesternElectricViolation
	Determination             Determination
	Justification             string
	Limitations               []string

	// HalfSeriesSimilarity is the cosine similarity between the rate
	// series' first and second halves: a purely informational
	// shape-stability indicator alongside the Western Electric
	// violations, not itself a factor in Determination.
	HalfSeriesSimilarity float64
}

func round4(v float64) float64 {
	return math.RoundHalfAwayFromZero(v, 4)
}

// Package reconcile implements the cross-dataset reconciler (C5): checks
// that run against the normalized inputs and the case's period bounds,
// producing findings and narrative limitations rather than failing the
// run outright. An error-severity finding is surfaced (at a downgraded
// severity) through validation, not treated as fatal here.
package reconcile

// Severity is the level of a single reconciliation finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is one reconciliation observation.
type Finding struct {
	Severity Severity
	Message  string
	Context  map[string]any
}

// Result is the full output of a reconciliation run.
type Result struct {
	Passed      bool
	Findings    []Finding
	Limitations []string
}

// Input bundles every normalized dataset and bound the reconciler checks
// cross-references against.
type Input struct {
	CaseStart        string // YYYY-MM-DD
	CaseEnd          string
	ComplaintDates   []string // YYYY-MM-DD, one per complaint
	ExposureMonths   []string // YYYY-MM, months with recorded exposure
	ComplaintMonths  []string // YYYY-MM, months with recorded complaints
	DeviceMasterSet  bool
	DistributionSet  bool
}

// Run evaluates every cross-dataset check and returns the accumulated
// findings plus a narrative limitations list. Passed is false iff any
// finding at error severity was produced; this does not halt the
// pipeline (the caller, the validator, decides fatality).
func Run(in Input) Result {
	result := Result{Passed: true}

	if !in.DeviceMasterSet {
		result.addFinding(Finding{
			Severity: SeverityError,
			Message:  "device master record is absent from the normalized pack",
		})
		result.Limitations = append(result.Limitations, "Device master data could not be reconciled against the surveillance period; identity fields default to the pack manifest.")
	}

	if len(in.ComplaintDates) > 0 {
		earliest, latest := minMax(in.ComplaintDates)
		if earliest < in.CaseStart || latest > in.CaseEnd {
			result.addFinding(Finding{
				Severity: SeverityError,
				Message:  "complaint dates fall outside the surveillance period bounds",
				Context: map[string]any{
					"dataStart": earliest,
					"dataEnd":   latest,
					"caseStart": in.CaseStart,
					"caseEnd":   in.CaseEnd,
				},
			})
			result.Limitations = append(result.Limitations, "One or more complaint records fall outside the declared surveillance period and are reported as a coverage limitation.")
		}
	}

	monthsOnlyInExposure := setDifference(in.ExposureMonths, in.ComplaintMonths)
	if len(monthsOnlyInExposure) > 0 {
		result.addFinding(Finding{
			Severity: SeverityWarning,
			Message:  "exposure data exists for months with no recorded complaints",
			Context:  map[string]any{"months": monthsOnlyInExposure},
		})
	}

	monthsOnlyInComplaints := setDifference(in.ComplaintMonths, in.ExposureMonths)
	if len(monthsOnlyInComplaints) > 0 {
		result.addFinding(Finding{
			Severity: SeverityError,
			Message:  "complaints exist for months with no recorded exposure data",
			Context:  map[string]any{"months": monthsOnlyInComplaints},
		})
		result.Limitations = append(result.Limitations, "Complaint rate for months lacking exposure data could not be computed and is recorded as zero.")
	}

	if !in.DistributionSet {
		result.addFinding(Finding{
			Severity: SeverityInfo,
			Message:  "distribution dataset not provided; geographic distribution narrative relies on complaint/exposure country fields only",
		})
	}

	return result
}

func (r *Result) addFinding(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == SeverityError {
		r.Passed = false
	}
}

func minMax(dates []string) (string, string) {
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}

func setDifference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range a {
		if !inB[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

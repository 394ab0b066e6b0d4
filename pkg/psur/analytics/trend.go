package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/certen-health/psurgen/pkg/shared/math"
)

// Trend runs the SPC trend engine: it builds the monthly complaint-rate
// series over the union of months present in either map, computes the
// population mean/stdDev/UCL, evaluates Western Electric rules 1-4, and
// produces a determination with a justification string.
func Trend(complaintsByMonth, unitsByMonth map[string]int) TrendResult {
	months := unionKeys(complaintsByMonth, unitsByMonth)
	sort.Strings(months)

	series := make([]MonthlyPoint, 0, len(months))
	rates := make([]float64, 0, len(months))
	var limitations []string

	for _, m := range months {
		complaints := complaintsByMonth[m]
		units := unitsByMonth[m]

		var rate float64
		if units == 0 {
			limitations = append(limitations, fmt.Sprintf("%s: zero units sold, rate recorded as 0", m))
		} else {
			rate = round4(float64(complaints) / float64(units) * 1000)
		}

		series = append(series, MonthlyPoint{Period: m, Complaints: complaints, UnitsSold: units, Rate: rate})
		rates = append(rates, rate)
	}

	mean := round4(math.Mean(rates))
	stdDev := round4(math.StandardDeviation(rates))
	ucl := round4(mean + 3*stdDev)

	violations := westernElectric(series, rates, mean, stdDev)

	n := len(series)
	var determination Determination
	switch {
	case n < 12:
		determination = DeterminationInconclusive
	case len(violations) > 0:
		determination = DeterminationTrendDetected
	default:
		determination = DeterminationNoTrend
	}

	return TrendResult{
		MonthlySeries:             series,
		Mean:                      mean,
		StdDev:                    stdDev,
		UCL:                       ucl,
		WesternElectricViolations: violations,
		Determination:             determination,
		Justification:             justification(mean, stdDev, ucl, n, series, violations),
		Limitations:               limitations,
		HalfSeriesSimilarity:      halfSeriesSimilarity(rates),
	}
}

// halfSeriesSimilarity compares the shape of the rate series' first and
// second halves via cosine similarity, trimming the longer half by one
// element for an odd-length series so both vectors compare equal-length.
// Fewer than two points yields 0, same as CosineSimilarity's own
// empty/mismatched-length default.
func halfSeriesSimilarity(rates []float64) float64 {
	n := len(rates)
	if n < 2 {
		return 0
	}
	half := n / 2
	first := rates[:half]
	second := rates[n-half:]
	return round4(math.CosineSimilarity(first, second))
}

func unionKeys(a, b map[string]int) []string {
	seen := make(map[string]bool)
	out := []string{}
	for k := range a {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// westernElectric evaluates rules 1-4 over the rate series. sigma == 0 or
// fewer than two points yields no violations regardless of the rate
// values.
func westernElectric(series []MonthlyPoint, rates []float64, mean, sigma float64) []WesternElectricViolation {
	var violations []WesternElectricViolation
	n := len(rates)

	if sigma == 0 || n < 2 {
		return violations
	}

	// Rule 1: any single point beyond 3 sigma.
	for i := 0; i < n; i++ {
		if abs(rates[i]-mean) > 3*sigma {
			violations = append(violations, WesternElectricViolation{
				Rule:        1,
				Description: "single point beyond 3 sigma from the mean",
				Periods:     []string{series[i].Period},
				Values:      []float64{rates[i]},
			})
		}
	}

	// Rule 2: windows of 3 consecutive points, >=2 strictly beyond +2sigma
	// (one emission) or strictly beyond -2sigma (one emission).
	for i := 0; i+3 <= n; i++ {
		window := rates[i : i+3]
		above, below := 0, 0
		for _, v := range window {
			if v > mean+2*sigma {
				above++
			}
			if v < mean-2*sigma {
				below++
			}
		}
		if above >= 2 {
			violations = append(violations, windowViolation(2, "2 of 3 consecutive points beyond +2 sigma", series, i, 3))
		}
		if below >= 2 {
			violations = append(violations, windowViolation(2, "2 of 3 consecutive points beyond -2 sigma", series, i, 3))
		}
	}

	// Rule 3: windows of 5 consecutive points, >=4 strictly beyond +1sigma
	// or -1sigma.
	for i := 0; i+5 <= n; i++ {
		window := rates[i : i+5]
		above, below := 0, 0
		for _, v := range window {
			if v > mean+sigma {
				above++
			}
			if v < mean-sigma {
				below++
			}
		}
		if above >= 4 {
			violations = append(violations, windowViolation(3, "4 of 5 consecutive points beyond +1 sigma", series, i, 5))
		}
		if below >= 4 {
			violations = append(violations, windowViolation(3, "4 of 5 consecutive points beyond -1 sigma", series, i, 5))
		}
	}

	// Rule 4: windows of 8 consecutive points all strictly above or below
	// the mean.
	for i := 0; i+8 <= n; i++ {
		window := rates[i : i+8]
		allAbove, allBelow := true, true
		for _, v := range window {
			if v <= mean {
				allAbove = false
			}
			if v >= mean {
				allBelow = false
			}
		}
		if allAbove {
			violations = append(violations, windowViolation(4, "8 consecutive points all above the mean", series, i, 8))
		}
		if allBelow {
			violations = append(violations, windowViolation(4, "8 consecutive points all below the mean", series, i, 8))
		}
	}

	return violations
}

func windowViolation(rule int, description string, series []MonthlyPoint, start, length int) WesternElectricViolation {
	periods := make([]string, length)
	values := make([]float64, length)
	for i := 0; i < length; i++ {
		periods[i] = series[start+i].Period
		values[i] = series[start+i].Rate
	}
	return WesternElectricViolation{Rule: rule, Description: description, Periods: periods, Values: values}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func justification(mean, stdDev, ucl float64, n int, series []MonthlyPoint, violations []WesternElectricViolation) string {
	periodRange := "none"
	if n > 0 {
		periodRange = fmt.Sprintf("%s to %s", series[0].Period, series[n-1].Period)
	}

	ruleSet := make(map[int]bool)
	var ruleNames []string
	for _, v := range violations {
		if !ruleSet[v.Rule] {
			ruleSet[v.Rule] = true
			ruleNames = append(ruleNames, fmt.Sprintf("Rule %d", v.Rule))
		}
	}
	sort.Strings(ruleNames)
	rulesText := "none"
	if len(ruleNames) > 0 {
		rulesText = strings.Join(ruleNames, ", ")
	}

	return fmt.Sprintf(
		"mean=%.4f, stdDev=%.4f, UCL=%.4f, N=%d, period range %s, violated rules: %s",
		mean, stdDev, ucl, n, periodRange, rulesText,
	)
}

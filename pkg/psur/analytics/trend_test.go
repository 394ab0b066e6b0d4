package analytics

import (
	"fmt"
	"testing"
)

func monthsSeq(n int) []string {
	months := make([]string, n)
	for i := 0; i < n; i++ {
		months[i] = fmt.Sprintf("%04d-%02d", 2023+i/12, i%12+1)
	}
	return months
}

func TestTrendCleanTwelveMonthSeriesNoTrend(t *testing.T) {
	complaints := map[string]int{}
	units := map[string]int{}
	months := monthsSeq(12)
	for _, m := range months {
		complaints[m] = 1
		units[m] = 1000
	}

	result := Trend(complaints, units)

	if result.Mean != 1.0 {
		t.Errorf("Mean = %v, want 1.0", result.Mean)
	}
	if result.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0", result.StdDev)
	}
	if result.UCL != 1.0 {
		t.Errorf("UCL = %v, want 1.0", result.UCL)
	}
	if len(result.WesternElectricViolations) != 0 {
		t.Errorf("expected zero violations, got %v", result.WesternElectricViolations)
	}
	if result.Determination != DeterminationNoTrend {
		t.Errorf("Determination = %v, want NO_TREND", result.Determination)
	}
	for _, p := range result.MonthlySeries {
		if p.Rate != 1.0 {
			t.Errorf("period %s rate = %v, want 1.0", p.Period, p.Rate)
		}
	}
}

func TestTrendRuleOneSpike(t *testing.T) {
	complaints := map[string]int{}
	units := map[string]int{}
	months := monthsSeq(12)
	for i, m := range months {
		complaints[m] = 1
		units[m] = 1000
		if i == 5 {
			complaints[m] = 20
		}
	}

	result := Trend(complaints, units)

	if result.Determination != DeterminationTrendDetected {
		t.Fatalf("Determination = %v, want TREND_DETECTED", result.Determination)
	}

	foundRule1 := false
	for _, v := range result.WesternElectricViolations {
		if v.Rule == 1 && len(v.Periods) == 1 && v.Periods[0] == months[5] {
			foundRule1 = true
		}
	}
	if !foundRule1 {
		t.Errorf("expected a Rule 1 violation at month index 5, got %v", result.WesternElectricViolations)
	}
}

func TestTrendBelowMinimumDataIsInconclusive(t *testing.T) {
	complaints := map[string]int{}
	units := map[string]int{}
	for _, m := range monthsSeq(6) {
		complaints[m] = 3
		units[m] = 500
	}

	result := Trend(complaints, units)
	if result.Determination != DeterminationInconclusive {
		t.Errorf("Determination = %v, want INCONCLUSIVE", result.Determination)
	}
}

func TestTrendEmptyInputsYieldInconclusiveZeroEverything(t *testing.T) {
	result := Trend(map[string]int{}, map[string]int{})

	if len(result.WesternElectricViolations) != 0 {
		t.Error("expected zero violations on empty input")
	}
	if result.Mean != 0 || result.StdDev != 0 || result.UCL != 0 {
		t.Errorf("expected mean/stdDev/UCL all zero, got mean=%v stdDev=%v ucl=%v", result.Mean, result.StdDev, result.UCL)
	}
	if result.Determination != DeterminationInconclusive {
		t.Errorf("Determination = %v, want INCONCLUSIVE", result.Determination)
	}
}

func TestTrendZeroUnitsMonthYieldsZeroRateAndLimitation(t *testing.T) {
	complaints := map[string]int{"2024-01": 5}
	units := map[string]int{"2024-01": 0}

	result := Trend(complaints, units)

	if len(result.MonthlySeries) != 1 || result.MonthlySeries[0].Rate != 0 {
		t.Fatalf("expected a single zero-rate month, got %v", result.MonthlySeries)
	}
	if len(result.Limitations) != 1 {
		t.Errorf("expected one limitation for the zero-units month, got %v", result.Limitations)
	}
}

func TestTrendSigmaZeroWithAtLeastTwoPointsYieldsNoViolations(t *testing.T) {
	complaints := map[string]int{"2024-01": 2, "2024-02": 2, "2024-03": 2}
	units := map[string]int{"2024-01": 1000, "2024-02": 1000, "2024-03": 1000}

	result := Trend(complaints, units)
	if len(result.WesternElectricViolations) != 0 {
		t.Errorf("expected zero violations when sigma=0, got %v", result.WesternElectricViolations)
	}
}

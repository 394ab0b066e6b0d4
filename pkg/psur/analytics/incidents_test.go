package analytics

import "testing"

func TestIncidentsRateAndBreakdowns(t *testing.T) {
	records := []IncidentRecord{
		{ID: "i1", Country: "US", Severity: "serious"},
		{ID: "i2", Country: "US", Severity: "serious"},
		{ID: "i3", Country: "DE", Severity: "minor"},
	}

	result := Incidents(records, 1000)

	if result.TotalIncidents != 3 {
		t.Errorf("TotalIncidents = %d, want 3", result.TotalIncidents)
	}
	if result.IncidentRate != 3.0 {
		t.Errorf("IncidentRate = %v, want 3.0", result.IncidentRate)
	}
	if result.ByCountry[0].Key != "US" || result.ByCountry[0].Count != 2 {
		t.Errorf("ByCountry[0] = %+v, want US:2", result.ByCountry[0])
	}
}

func TestIncidentsZeroExposureYieldsZeroRate(t *testing.T) {
	records := []IncidentRecord{{ID: "i1", Country: "US", Severity: "serious"}}
	result := Incidents(records, 0)
	if result.IncidentRate != 0 {
		t.Errorf("IncidentRate = %v, want 0 for zero exposure", result.IncidentRate)
	}
}

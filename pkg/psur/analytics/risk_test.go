package analytics

import "testing"

func TestRiskCountsByLevel(t *testing.T) {
	records := []RiskRecord{
		{ID: "r1", Level: "HIGH"},
		{ID: "r2", Level: "MEDIUM"},
		{ID: "r3", Level: "MEDIUM"},
		{ID: "r4", Level: "LOW"},
	}

	result := Risk(records, "favorable", "favorable")
	if result.HighCount != 1 || result.MediumCount != 2 || result.LowCount != 1 {
		t.Errorf("unexpected counts: %+v", result)
	}
	if result.RiskProfileChanged {
		t.Error("expected RiskProfileChanged = false for identical conclusions")
	}
}

func TestRiskProfileChangedOnExactStringMismatch(t *testing.T) {
	result := Risk(nil, "favorable", "Favorable")
	if !result.RiskProfileChanged {
		t.Error("expected exact string comparison to treat case difference as a change")
	}
}

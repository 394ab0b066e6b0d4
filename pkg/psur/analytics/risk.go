package analytics

// Risk counts residual risk levels and reports whether the current
// benefit-risk conclusion has changed from the prior one (exact string
// compare, no normalization).
func Risk(records []RiskRecord, priorConclusion, currentConclusion string) RiskResult {
	result := RiskResult{
		RiskProfileChanged: priorConclusion != currentConclusion,
	}

	for _, r := range records {
		switch r.Level {
		case "HIGH":
			result.HighCount++
		case "MEDIUM":
			result.MediumCount++
		case "LOW":
			result.LowCount++
		}
	}

	return result
}

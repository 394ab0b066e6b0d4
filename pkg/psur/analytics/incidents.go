package analytics

// Incidents computes country/severity breakdowns and the incident rate
// per 1000 units. A zero exposure denominator yields rate 0, not NaN.
func Incidents(records []IncidentRecord, totalUnits int) IncidentResult {
	result := IncidentResult{TotalIncidents: len(records)}

	countryCounts, countryOrder := map[string]int{}, []string{}
	severityCounts, severityOrder := map[string]int{}, []string{}

	for _, r := range records {
		if _, ok := countryCounts[r.Country]; !ok {
			countryOrder = append(countryOrder, r.Country)
		}
		countryCounts[r.Country]++

		if _, ok := severityCounts[r.Severity]; !ok {
			severityOrder = append(severityOrder, r.Severity)
		}
		severityCounts[r.Severity]++
	}

	result.ByCountry = sortedDesc(countryOrder, countryCounts)
	result.BySeverity = sortedDesc(severityOrder, severityCounts)

	if totalUnits != 0 {
		result.IncidentRate = round4(float64(result.TotalIncidents) / float64(totalUnits) * 1000)
	}

	return result
}

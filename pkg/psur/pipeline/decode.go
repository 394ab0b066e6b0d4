package pipeline

import "github.com/certen-health/psurgen/pkg/psur/analytics"

// decode.go converts the opaque map[string]any rows a Loader returns
// into the typed records the analytics kernels expect. Fields absent
// from a row decode to their zero value; the loader, not this package,
// is responsible for schema validity.

func getString(row map[string]any, key string) string {
	if v, ok := row[key].(string); ok {
		return v
	}
	return ""
}

func getBool(row map[string]any, key string) bool {
	if v, ok := row[key].(bool); ok {
		return v
	}
	return false
}

func getInt(row map[string]any, key string) int {
	switch v := row[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func decodeExposure(rows []map[string]any) []analytics.ExposureRecord {
	out := make([]analytics.ExposureRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, analytics.ExposureRecord{
			Period:  getString(row, "period"),
			Country: getString(row, "country"),
			Units:   getInt(row, "units"),
		})
	}
	return out
}

func decodeComplaints(rows []map[string]any) []analytics.ComplaintRecord {
	out := make([]analytics.ComplaintRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, analytics.ComplaintRecord{
			ID:          getString(row, "id"),
			Date:        getString(row, "date"),
			Country:     getString(row, "country"),
			Serious:     getBool(row, "serious"),
			Reportable:  getBool(row, "reportable"),
			ProblemCode: getString(row, "problemCode"),
			HarmCode:    getString(row, "harmCode"),
			RootCause:   getString(row, "rootCause"),
		})
	}
	return out
}

func decodeIncidents(rows []map[string]any) []analytics.IncidentRecord {
	out := make([]analytics.IncidentRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, analytics.IncidentRecord{
			ID:       getString(row, "id"),
			Country:  getString(row, "country"),
			Severity: getString(row, "severity"),
		})
	}
	return out
}

func decodeLifecycle(rows []map[string]any) []analytics.LifecycleItem {
	out := make([]analytics.LifecycleItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, analytics.LifecycleItem{
			ID:       getString(row, "id"),
			Status:   getString(row, "status"),
			OpenedAt: getString(row, "openedAt"),
			ClosedAt: getString(row, "closedAt"),
		})
	}
	return out
}

func decodeRisk(rows []map[string]any) []analytics.RiskRecord {
	out := make([]analytics.RiskRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, analytics.RiskRecord{
			ID:         getString(row, "id"),
			Level:      getString(row, "level"),
			Conclusion: getString(row, "conclusion"),
		})
	}
	return out
}

package analytics

import "time"

// CAPA treats statuses "closed" as closed and everything else (including
// "open") as open.
func CAPA(items []LifecycleItem) LifecycleResult {
	return lifecycle(items, map[string]bool{"closed": true})
}

// FSCA treats statuses "closed" and "completed" as closed.
func FSCA(items []LifecycleItem) LifecycleResult {
	return lifecycle(items, map[string]bool{"closed": true, "completed": true})
}

// Literature treats "completed" as closed and "ongoing" (or anything
// else) as open, matching the literature-review lifecycle vocabulary.
func Literature(items []LifecycleItem) LifecycleResult {
	return lifecycle(items, map[string]bool{"completed": true})
}

// PMCF treats "completed" as closed and "ongoing" as open.
func PMCF(items []LifecycleItem) LifecycleResult {
	return lifecycle(items, map[string]bool{"completed": true})
}

// lifecycle is the shared aggregator behind CAPA/FSCA/literature/PMCF:
// totals, an open/closed split by the kernel's closed-status vocabulary,
// average closure time in days (nil when no item both opened and closed
// within a parseable date), and a pass-through item list.
func lifecycle(items []LifecycleItem, closedStatuses map[string]bool) LifecycleResult {
	result := LifecycleResult{Total: len(items), Items: items}

	var totalDays float64
	var closureSamples int

	for _, item := range items {
		if closedStatuses[item.Status] {
			result.ClosedCount++
			if days, ok := closureDays(item.OpenedAt, item.ClosedAt); ok {
				totalDays += days
				closureSamples++
			}
		} else {
			result.OpenCount++
		}
	}

	if closureSamples > 0 {
		avg := round4(totalDays / float64(closureSamples))
		result.AverageClosureDays = &avg
	}

	return result
}

func closureDays(openedAt, closedAt string) (float64, bool) {
	if openedAt == "" || closedAt == "" {
		return 0, false
	}
	opened, err := time.Parse("2006-01-02", openedAt)
	if err != nil {
		return 0, false
	}
	closed, err := time.Parse("2006-01-02", closedAt)
	if err != nil {
		return 0, false
	}
	return closed.Sub(opened).Hours() / 24, true
}

package analytics

import "sort"

// Complaints computes totals, the seven breakdowns, and the problem x
// harm matrix over a complaints dataset. Sorting ties break by the order
// records were first seen.
func Complaints(records []ComplaintRecord) ComplaintResult {
	result := ComplaintResult{}

	monthCounts, monthOrder := map[string]int{}, []string{}
	countryCounts, countryOrder := map[string]int{}, []string{}
	problemCounts, problemSerious, problemOrder := map[string]int{}, map[string]int{}, []string{}
	harmCounts, harmOrder := map[string]int{}, []string{}
	rootCounts, rootOrder := map[string]int{}, []string{}
	matrixCounts := map[[2]string]int{}
	matrixOrder := [][2]string{}

	for _, r := range records {
		result.Total++
		if r.Serious {
			result.Serious++
		}
		if r.Reportable {
			result.Reportable++
		}

		month := monthOf(r.Date)
		if _, ok := monthCounts[month]; !ok {
			monthOrder = append(monthOrder, month)
		}
		monthCounts[month]++

		if _, ok := countryCounts[r.Country]; !ok {
			countryOrder = append(countryOrder, r.Country)
		}
		countryCounts[r.Country]++

		if _, ok := problemCounts[r.ProblemCode]; !ok {
			problemOrder = append(problemOrder, r.ProblemCode)
		}
		problemCounts[r.ProblemCode]++
		if r.Serious {
			problemSerious[r.ProblemCode]++
		}

		if _, ok := harmCounts[r.HarmCode]; !ok {
			harmOrder = append(harmOrder, r.HarmCode)
		}
		harmCounts[r.HarmCode]++

		rootCause := r.RootCause
		if rootCause == "" {
			rootCause = "Unclassified"
		}
		if _, ok := rootCounts[rootCause]; !ok {
			rootOrder = append(rootOrder, rootCause)
		}
		rootCounts[rootCause]++

		key := [2]string{r.ProblemCode, r.HarmCode}
		if _, ok := matrixCounts[key]; !ok {
			matrixOrder = append(matrixOrder, key)
		}
		matrixCounts[key]++
	}

	// by-month is ascending by period, not by count.
	sort.Strings(monthOrder)
	for _, m := range monthOrder {
		result.ByMonth = append(result.ByMonth, CodeCount{Key: m, Count: monthCounts[m]})
	}

	result.ByCountry = sortedDesc(countryOrder, countryCounts)
	result.ByHarm = sortedDesc(harmOrder, harmCounts)
	result.ByRootCause = sortedDesc(rootOrder, rootCounts)

	type problemRow struct {
		code  string
		count int
		order int
	}
	prows := make([]problemRow, len(problemOrder))
	for i, p := range problemOrder {
		prows[i] = problemRow{code: p, count: problemCounts[p], order: i}
	}
	sort.SliceStable(prows, func(i, j int) bool { return prows[i].count > prows[j].count })
	for _, row := range prows {
		result.ByProblem = append(result.ByProblem, ProblemSeriousCount{
			ProblemCode:  row.code,
			Count:        row.count,
			SeriousCount: problemSerious[row.code],
		})
	}

	type matrixRow struct {
		key   [2]string
		count int
	}
	mrows := make([]matrixRow, len(matrixOrder))
	for i, k := range matrixOrder {
		mrows[i] = matrixRow{key: k, count: matrixCounts[k]}
	}
	sort.SliceStable(mrows, func(i, j int) bool { return mrows[i].count > mrows[j].count })
	for _, row := range mrows {
		result.ProblemHarmMatrix = append(result.ProblemHarmMatrix, ProblemHarmCell{
			ProblemCode: row.key[0],
			HarmCode:    row.key[1],
			Count:       row.count,
		})
	}

	return result
}

// monthOf extracts the YYYY-MM prefix of a YYYY-MM-DD date string.
func monthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

func sortedDesc(order []string, counts map[string]int) []CodeCount {
	type row struct {
		key   string
		count int
	}
	rows := make([]row, len(order))
	for i, k := range order {
		rows[i] = row{key: k, count: counts[k]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].count > rows[j].count })

	out := make([]CodeCount, len(rows))
	for i, r := range rows {
		out[i] = CodeCount{Key: r.key, Count: r.count}
	}
	return out
}

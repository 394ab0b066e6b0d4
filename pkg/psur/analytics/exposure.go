package analytics

import (
	"sort"

	"github.com/certen-health/psurgen/pkg/shared/math"
)

// Exposure sums units total, groups them by period, and groups them by
// country sorted descending by units with insertion-order tie-break. The
// share of each country is a percentage: units*100/totalUnits, rounded to
// one decimal.
func Exposure(records []ExposureRecord) ExposureResult {
	result := ExposureResult{
		ByPeriod:  make(map[string]int),
		ByCountry: []CountryShare{},
	}

	countryOrder := []string{}
	countryUnits := make(map[string]int)

	for _, r := range records {
		result.TotalUnits += r.Units
		result.ByPeriod[r.Period] += r.Units

		if _, seen := countryUnits[r.Country]; !seen {
			countryOrder = append(countryOrder, r.Country)
		}
		countryUnits[r.Country] += r.Units
	}

	type indexed struct {
		country string
		units   int
		order   int
	}
	rows := make([]indexed, len(countryOrder))
	for i, c := range countryOrder {
		rows[i] = indexed{country: c, units: countryUnits[c], order: i}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].units > rows[j].units
	})

	for _, row := range rows {
		share := 0.0
		if result.TotalUnits != 0 {
			share = math.RoundHalfAwayFromZero(float64(row.units)*100/float64(result.TotalUnits), 1)
		}
		result.ByCountry = append(result.ByCountry, CountryShare{
			Country:      row.country,
			Units:        row.units,
			SharePercent: share,
		})
	}

	return result
}

package core

import "sort"

// MonthShortExcess aggregates daily short/excess figures for one
// year-month. Shortfall and Excess accumulate independently because
// the business audits them separately; Net is their signed sum.
type MonthShortExcess struct {
	Month     string // "2006-01"
	Shortfall int64  // sum of strictly negative daily values, <= 0
	Excess    int64  // sum of strictly positive daily values, >= 0
	Net       int64
}

// MonthlyShortExcess rolls daily records into per-month totals keyed
// by the year-month prefix of the date. Days without a counted
// cash-in-hand have no short/excess and are skipped; zero-valued days
// count toward neither sum. Output is ordered most recent month first.
func MonthlyShortExcess(records []DailyCashRecord) []MonthShortExcess {
	byMonth := make(map[string]*MonthShortExcess)
	for _, rec := range records {
		if rec.CashShortExcess == nil {
			continue
		}
		key := rec.Date.MonthKey()
		m, ok := byMonth[key]
		if !ok {
			m = &MonthShortExcess{Month: key}
			byMonth[key] = m
		}
		v := *rec.CashShortExcess
		switch {
		case v < 0:
			m.Shortfall += v
		case v > 0:
			m.Excess += v
		}
		m.Net = m.Shortfall + m.Excess
	}

	months := make([]MonthShortExcess, 0, len(byMonth))
	for _, m := range byMonth {
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month > months[j].Month
	})
	return months
}

package cpscovid

import (
	"fmt"
	"sort"
)

// CovidOnset is the pandemic cutpoint: months at or after March 2020 are the
// post period.
const CovidOnset = YearMonth(202003)

// YearMonth is an ordered monthly key, year*100 + month.
type YearMonth int

func NewYearMonth(year, month int) YearMonth {
	return YearMonth(year*100 + month)
}

func (ym YearMonth) Year() int { return int(ym) / 100 }

func (ym YearMonth) Month() int { return int(ym) % 100 }

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year(), ym.Month())
}

// MonthsSince returns the number of calendar months from cut to ym; negative
// before the cut.
func (ym YearMonth) MonthsSince(cut YearMonth) int {
	return 12*(ym.Year()-cut.Year()) + ym.Month() - cut.Month()
}

// Post is true for months at or after the pandemic onset.
func (ym YearMonth) Post() bool { return ym >= CovidOnset }

// CovidBucket buckets elapsed time since the onset into 4-month bins with an
// open-ended final bin; all pre-onset months share the reference bucket.
func (ym YearMonth) CovidBucket() string {
	el := ym.MonthsSince(CovidOnset)
	if el < 0 {
		return "pre"
	}
	if el >= 16 {
		return "months 16+"
	}
	lo := 4 * (el / 4)

	return fmt.Sprintf("months %d-%d", lo, lo+3)
}

// Months returns the distinct YearMonth keys present in recs, ascending.
func Months(recs []Record) []YearMonth {
	seen := make(map[YearMonth]bool)
	for ind := 0; ind < len(recs); ind++ {
		seen[recs[ind].YM] = true
	}

	var out []YearMonth
	for ym := range seen {
		out = append(out, ym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// TimeTrend numbers the distinct months of recs 1..K in chronological order.
func TimeTrend(recs []Record) map[YearMonth]int {
	trend := make(map[YearMonth]int)
	for ind, ym := range Months(recs) {
		trend[ym] = ind + 1
	}

	return trend
}

// ExcludeMonth drops every record of the designated month (the pre/post
// transition month or the ASEC oversample month) from both numerators and
// denominators downstream.
func ExcludeMonth(recs []Record, ym YearMonth) []Record {
	var out []Record
	for ind := 0; ind < len(recs); ind++ {
		if recs[ind].YM != ym {
			out = append(out, recs[ind])
		}
	}

	return out
}

// FilterIndustry keeps records whose industry name matches.
func FilterIndustry(recs []Record, name string) []Record {
	var out []Record
	for ind := 0; ind < len(recs); ind++ {
		if recs[ind].Industry == name {
			out = append(out, recs[ind])
		}
	}

	return out
}

// TopIndustries ranks industries by the weighted count of employed records
// over the whole window and returns the top n names.  skip industries (e.g.
// retail, which is always analyzed on its own) are left out of the ranking.
// Ties break alphabetically.
func TopIndustries(recs []Record, n int, skip ...string) []string {
	wts := make(map[string]float64)
	for ind := 0; ind < len(recs); ind++ {
		if !recs[ind].Employed {
			continue
		}
		wts[recs[ind].Industry] += recs[ind].Weight
	}

	var names []string
	for nm := range wts {
		skipped := false
		for _, s := range skip {
			if nm == s {
				skipped = true
				break
			}
		}
		if !skipped {
			names = append(names, nm)
		}
	}

	sort.Slice(names, func(i, j int) bool {
		if wts[names[i]] != wts[names[j]] {
			return wts[names[i]] > wts[names[j]]
		}
		return names[i] < names[j]
	})

	if n < len(names) {
		names = names[:n]
	}

	return names
}

// KeepIndustries keeps records whose industry is in names.
func KeepIndustries(recs []Record, names []string) []Record {
	var out []Record
	for ind := 0; ind < len(recs); ind++ {
		for _, nm := range names {
			if recs[ind].Industry == nm {
				out = append(out, recs[ind])
				break
			}
		}
	}

	return out
}

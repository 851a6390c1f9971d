package cpscovid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroDenominator signals a group whose weighted denominator is zero: the
// employment rate is undefined there and must not flow into tables or plots.
var ErrZeroDenominator = errors.New("zero weighted denominator")

// Rate is the survey-weighted employment rate of one group, with a
// design-based confidence interval.
type Rate struct {
	YM    YearMonth
	Level string

	Rate  float64
	Lower float64
	Upper float64

	N       int     // record count
	WTotal  float64 // weighted denominator
	WEmploy float64 // weighted numerator
}

// Grouper assigns a record to a demographic level, e.g. Record.Sex.String.
type Grouper func(Record) string

// By adapters for the standard demographic cuts.
var (
	BySex        Grouper = func(r Record) string { return r.Sex.String() }
	ByMarital    Grouper = func(r Record) string { return r.Marital.String() }
	ByGeneration Grouper = func(r Record) string { return r.Gen.String() }
	ByEduc       Grouper = func(r Record) string { return r.Educ.String() }
	ByRace       Grouper = func(r Record) string { return r.Race.String() }
)

const zCrit = 1.959964 // two-sided 95%

// WeightedRate computes the weighted employment rate of recs with a normal
// confidence interval using the Kish effective sample size.  The weight is
// treated as an analytic weight.
func WeightedRate(recs []Record) (*Rate, error) {
	y := make([]float64, len(recs))
	w := make([]float64, len(recs))
	for ind := 0; ind < len(recs); ind++ {
		w[ind] = recs[ind].Weight
		if recs[ind].Employed {
			y[ind] = 1
		}
	}

	wSum := floats.Sum(w)
	if wSum <= 0 {
		return nil, fmt.Errorf("group of %d records: %w", len(recs), ErrZeroDenominator)
	}

	p := stat.Mean(y, w)
	wEmp := floats.Dot(y, w)
	nEff := wSum * wSum / floats.Dot(w, w)
	se := math.Sqrt(p * (1 - p) / nEff)

	return &Rate{
		Rate:    p,
		Lower:   math.Max(0, p-zCrit*se),
		Upper:   math.Min(1, p+zCrit*se),
		N:       len(recs),
		WTotal:  wSum,
		WEmploy: wEmp,
	}, nil
}

// MonthlyRates computes the weighted employment rate per month per level of
// the grouping variable.  Output is sorted by month then level.  group may be
// nil for an ungrouped monthly series.
func MonthlyRates(recs []Record, group Grouper) ([]*Rate, error) {
	type key struct {
		ym    YearMonth
		level string
	}

	cells := make(map[key][]Record)
	for ind := 0; ind < len(recs); ind++ {
		k := key{ym: recs[ind].YM}
		if group != nil {
			k.level = group(recs[ind])
		}
		cells[k] = append(cells[k], recs[ind])
	}

	var out []*Rate
	for k, cell := range cells {
		r, e := WeightedRate(cell)
		if e != nil {
			return nil, fmt.Errorf("month %s level %q: %w", k.ym, k.level, e)
		}
		r.YM, r.Level = k.ym, k.level
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].YM != out[j].YM {
			return out[i].YM < out[j].YM
		}
		return out[i].Level < out[j].Level
	})

	return out, nil
}

// IndustryShares computes each industry's share of weighted employment in a
// single month, for the pie charts.
func IndustryShares(recs []Record, ym YearMonth) (map[string]float64, error) {
	var total float64
	byInd := make(map[string]float64)

	for ind := 0; ind < len(recs); ind++ {
		if recs[ind].YM != ym || !recs[ind].Employed {
			continue
		}
		byInd[recs[ind].Industry] += recs[ind].Weight
		total += recs[ind].Weight
	}

	if total <= 0 {
		return nil, fmt.Errorf("month %s: %w", ym, ErrZeroDenominator)
	}

	for nm := range byInd {
		byInd[nm] /= total
	}

	return byInd, nil
}

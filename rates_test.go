package cpscovid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Jan 2020: weighted employed 100 of 120; Feb 2020: 90 of 130.
func TestMonthlyRatesScenario(t *testing.T) {
	recs := []Record{
		rec(2020, 1, 100, true, "Retail Trade"),
		rec(2020, 1, 20, false, "Retail Trade"),
		rec(2020, 2, 90, true, "Retail Trade"),
		rec(2020, 2, 40, false, "Retail Trade"),
	}

	rates, e := MonthlyRates(recs, nil)
	assert.Nil(t, e)
	assert.Equal(t, 2, len(rates))

	assert.Equal(t, NewYearMonth(2020, 1), rates[0].YM)
	assert.InDelta(t, 0.833, rates[0].Rate, 0.0005)
	assert.Equal(t, 120.0, rates[0].WTotal)
	assert.Equal(t, 100.0, rates[0].WEmploy)

	assert.Equal(t, NewYearMonth(2020, 2), rates[1].YM)
	assert.InDelta(t, 0.692, rates[1].Rate, 0.0005)
}

func TestWeightedRateBounds(t *testing.T) {
	recs := []Record{
		rec(2020, 1, 3, true, "Retail Trade"),
		rec(2020, 1, 1, true, "Retail Trade"),
		rec(2020, 1, 2, false, "Retail Trade"),
	}

	r, e := WeightedRate(recs)
	assert.Nil(t, e)

	assert.InDelta(t, 4.0/6.0, r.Rate, 1e-12)
	assert.GreaterOrEqual(t, r.Lower, 0.0)
	assert.LessOrEqual(t, r.Upper, 1.0)
	assert.Less(t, r.Lower, r.Rate)
	assert.Greater(t, r.Upper, r.Rate)
}

func TestWeightedRateDegenerate(t *testing.T) {
	// all employed: rate 1, interval collapses but stays in [0,1]
	recs := []Record{rec(2020, 1, 5, true, "Retail Trade")}
	r, e := WeightedRate(recs)
	assert.Nil(t, e)
	assert.Equal(t, 1.0, r.Rate)
	assert.Equal(t, 1.0, r.Upper)
}

func TestWeightedRateZeroDenominator(t *testing.T) {
	_, e := WeightedRate(nil)
	assert.ErrorIs(t, e, ErrZeroDenominator)

	zero := []Record{rec(2020, 1, 0, true, "Retail Trade")}
	_, e = WeightedRate(zero)
	assert.ErrorIs(t, e, ErrZeroDenominator)
}

func TestMonthlyRatesGrouped(t *testing.T) {
	recs := []Record{
		rec(2020, 1, 100, true, "Retail Trade"),
		rec(2020, 1, 20, false, "Retail Trade"),
	}
	recs[1].Sex = SexFemale

	rates, e := MonthlyRates(recs, BySex)
	assert.Nil(t, e)
	assert.Equal(t, 2, len(rates))

	// sorted by month then level
	assert.Equal(t, "Female", rates[0].Level)
	assert.Equal(t, 0.0, rates[0].Rate)
	assert.Equal(t, "Male", rates[1].Level)
	assert.Equal(t, 1.0, rates[1].Rate)
}

func TestIndustryShares(t *testing.T) {
	recs := []Record{
		rec(2020, 1, 300, true, "Retail Trade"),
		rec(2020, 1, 100, true, "Mining"),
		rec(2020, 1, 500, false, "Mining"),  // unemployed: not a share of employment
		rec(2020, 2, 900, true, "Finance"),  // other month
	}

	shares, e := IndustryShares(recs, NewYearMonth(2020, 1))
	assert.Nil(t, e)
	assert.Equal(t, 2, len(shares))
	assert.InDelta(t, 0.75, shares["Retail Trade"], 1e-12)
	assert.InDelta(t, 0.25, shares["Mining"], 1e-12)

	_, e = IndustryShares(recs, NewYearMonth(2020, 3))
	assert.ErrorIs(t, e, ErrZeroDenominator)
}

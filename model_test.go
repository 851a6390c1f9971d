package cpscovid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// cell builds a pre- or post-period cell with an exact weighted employment
// rate p: one employed record with weight 10p and one unemployed with
// weight 10(1-p).
func cell(ym YearMonth, sex Sex, p float64) []Record {
	emp := rec(ym.Year(), ym.Month(), 10*p, true, "Retail Trade")
	une := rec(ym.Year(), ym.Month(), 10*(1-p), false, "Retail Trade")
	emp.Sex, une.Sex = sex, sex

	return []Record{emp, une}
}

// saturated 2x2 data: the LPM recovers the cell means exactly
func saturated() []Record {
	var recs []Record
	recs = append(recs, cell(NewYearMonth(2020, 1), SexFemale, 0.8)...)
	recs = append(recs, cell(NewYearMonth(2020, 1), SexMale, 0.9)...)
	recs = append(recs, cell(NewYearMonth(2020, 6), SexFemale, 0.6)...)
	recs = append(recs, cell(NewYearMonth(2020, 6), SexMale, 0.5)...)

	return recs
}

func TestLPMSaturated(t *testing.T) {
	des, e := NewDesign(saturated(), "sex", BySex)
	assert.Nil(t, e)
	assert.Equal(t, []string{"intercept", "post", "sex=Male", "post:sex=Male"}, des.Names())

	fit, e := des.LPM()
	assert.Nil(t, e)

	// reference level is Female (alphabetical)
	assert.InDelta(t, 0.8, fit.Term("intercept").Est, 1e-8)
	assert.InDelta(t, -0.2, fit.Term("post").Est, 1e-8)
	assert.InDelta(t, 0.1, fit.Term("sex=Male").Est, 1e-8)
	// differential post effect for men vs the -0.2 for women
	assert.InDelta(t, -0.2, fit.Term("post:sex=Male").Est, 1e-8)

	// total post effect for men combines main effect and interaction
	tot, e := fit.TotalEffect("post:sex=Male")
	assert.Nil(t, e)
	assert.InDelta(t, -0.4, tot, 1e-8)

	for ind := 0; ind < len(fit.Terms); ind++ {
		assert.Greater(t, fit.Terms[ind].SE, 0.0)
		assert.False(t, math.IsNaN(fit.Terms[ind].P))
	}
}

func TestLogitSaturated(t *testing.T) {
	des, e := NewDesign(saturated(), "sex", BySex)
	assert.Nil(t, e)

	fit, e := des.Logit()
	assert.Nil(t, e)

	logit := func(p float64) float64 { return math.Log(p / (1 - p)) }

	// saturated logit reproduces the cell log odds
	assert.InDelta(t, logit(0.8), fit.Term("intercept").Est, 1e-6)
	assert.InDelta(t, logit(0.6)-logit(0.8), fit.Term("post").Est, 1e-6)
	assert.InDelta(t, logit(0.9)-logit(0.8), fit.Term("sex=Male").Est, 1e-6)
	assert.InDelta(t, (logit(0.5)-logit(0.9))-(logit(0.6)-logit(0.8)), fit.Term("post:sex=Male").Est, 1e-6)
}

func TestMarginalEffects(t *testing.T) {
	des, e := NewDesign(saturated(), "sex", BySex)
	assert.Nil(t, e)

	lgt, e := des.Logit()
	assert.Nil(t, e)

	ame, e := des.MarginalEffects(lgt)
	assert.Nil(t, e)

	// one effect per non-intercept term
	assert.Equal(t, 3, len(ame.Terms))
	for ind := 0; ind < len(ame.Terms); ind++ {
		assert.Greater(t, ame.Terms[ind].Est, -1.0)
		assert.Less(t, ame.Terms[ind].Est, 1.0)
		assert.Greater(t, ame.Terms[ind].SE, 0.0)
	}

	// post lowers employment in both cells, so its AME is negative
	assert.Less(t, ame.Terms[0].Est, 0.0)
	assert.Equal(t, "post", ame.Terms[0].Name)
}

// a cut with as many terms as records must fail explicitly, not emit Inf SEs
func TestLPMNoResidualDF(t *testing.T) {
	one := func(ym YearMonth, sex Sex, employed bool) Record {
		r := rec(ym.Year(), ym.Month(), 10, employed, "Retail Trade")
		r.Sex = sex
		return r
	}

	recs := []Record{
		one(NewYearMonth(2020, 1), SexFemale, true),
		one(NewYearMonth(2020, 1), SexMale, true),
		one(NewYearMonth(2020, 6), SexFemale, false),
		one(NewYearMonth(2020, 6), SexMale, true),
	}

	des, e := NewDesign(recs, "sex", BySex)
	assert.Nil(t, e)

	_, e = des.LPM()
	assert.NotNil(t, e)
	assert.Contains(t, e.Error(), "no residual degrees of freedom")
}

func TestDesignSingleLevel(t *testing.T) {
	var recs []Record
	recs = append(recs, cell(NewYearMonth(2020, 1), SexFemale, 0.8)...)
	recs = append(recs, cell(NewYearMonth(2020, 6), SexFemale, 0.6)...)

	// a demographic with one observed level fails explicitly
	_, e := NewDesign(recs, "sex", BySex)
	assert.NotNil(t, e)
	assert.Contains(t, e.Error(), "single observed level")
}

func TestDesignSinglePeriod(t *testing.T) {
	var recs []Record
	recs = append(recs, cell(NewYearMonth(2020, 1), SexFemale, 0.8)...)
	recs = append(recs, cell(NewYearMonth(2020, 1), SexMale, 0.9)...)

	_, e := NewDesign(recs, "sex", BySex)
	assert.NotNil(t, e)
	assert.Contains(t, e.Error(), "single level")
}

func TestTrendDesign(t *testing.T) {
	var recs []Record
	recs = append(recs, cell(NewYearMonth(2020, 1), SexFemale, 0.8)...)
	recs = append(recs, cell(NewYearMonth(2020, 2), SexFemale, 0.7)...)
	recs = append(recs, cell(NewYearMonth(2020, 4), SexFemale, 0.5)...)
	recs = append(recs, cell(NewYearMonth(2020, 5), SexFemale, 0.3)...)

	trend := TimeTrend(recs)
	des, e := NewTrendDesign(recs, trend)
	assert.Nil(t, e)

	fit, e := des.LPM()
	assert.Nil(t, e)

	// pre months (trend 1, 2) lie on 0.9 - 0.1 t; post months (3, 4) on 1.1 - 0.2 t
	assert.InDelta(t, 0.9, fit.Term("intercept").Est, 1e-8)
	assert.InDelta(t, -0.1, fit.Term("trend").Est, 1e-8)
	assert.InDelta(t, 0.2, fit.Term("post").Est, 1e-8)
	assert.InDelta(t, -0.1, fit.Term("post:trend").Est, 1e-8)
}

func TestTrendDesignMissingMonth(t *testing.T) {
	recs := cell(NewYearMonth(2020, 1), SexFemale, 0.8)

	_, e := NewTrendDesign(recs, map[YearMonth]int{})
	assert.NotNil(t, e)
}

func TestBucketDesign(t *testing.T) {
	var recs []Record
	recs = append(recs, cell(NewYearMonth(2020, 1), SexFemale, 0.8)...)
	recs = append(recs, cell(NewYearMonth(2020, 4), SexFemale, 0.6)...)
	recs = append(recs, cell(NewYearMonth(2020, 10), SexFemale, 0.5)...)
	recs = append(recs, cell(NewYearMonth(2021, 8), SexFemale, 0.7)...)

	des, e := NewBucketDesign(recs)
	assert.Nil(t, e)
	assert.Equal(t, []string{"intercept", "months 0-3", "months 4-7", "months 16+"}, des.Names())

	fit, e := des.LPM()
	assert.Nil(t, e)

	assert.InDelta(t, 0.8, fit.Term("intercept").Est, 1e-8)
	assert.InDelta(t, -0.2, fit.Term("months 0-3").Est, 1e-8)
	assert.InDelta(t, -0.3, fit.Term("months 4-7").Est, 1e-8)
	assert.InDelta(t, -0.1, fit.Term("months 16+").Est, 1e-8)
}

func TestBucketDesignNoPre(t *testing.T) {
	recs := cell(NewYearMonth(2020, 4), SexFemale, 0.6)

	_, e := NewBucketDesign(recs)
	assert.NotNil(t, e)
}

func TestFitTable(t *testing.T) {
	des, e := NewDesign(saturated(), "sex", BySex)
	assert.Nil(t, e)

	fit, e := des.LPM()
	assert.Nil(t, e)

	tbl := fit.Table()
	assert.Contains(t, tbl, "post:sex=Male")
	assert.Contains(t, tbl, "-0.200")
}

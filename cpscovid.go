// Package cpscovid studies the effect of the COVID-19 pandemic on employment
// using CPS (Current Population Survey) person-month microdata.
//
// The pipeline is a single pass:
//
//	extract.Load -> BuildRecords -> panel (YearMonth, trend, industry split) ->
//	    MonthlyRates / Design.LPM / Design.Logit -> tables & plots
//
// Every run recomputes everything from the extract and the industry lookup;
// there is no persistent intermediate state.
package cpscovid

import (
	"fmt"
	"sort"
)

// Raw is one person-month as it comes off the extract: survey metadata plus
// unrecoded CPS codes.
type Raw struct {
	Year   int
	Month  int
	Weight float64 // WTFINL final survey weight

	Age     int
	Sex     int // SEX
	Marst   int // MARST
	Race    int // RACE
	Educ    int // EDUC general code
	EmpStat int // EMPSTAT
	Ind     int // IND census industry code
}

// Record is one person-month after recoding.  Only in-sample rows become
// Records: the labor force (employed or actively unemployed), with a resolved
// industry and a resolved generation.
type Record struct {
	YM     YearMonth
	Weight float64
	Age    int

	Sex      Sex
	Marital  Marital
	Educ     EducTier
	Race     RaceGroup
	Gen      Generation
	Employed bool

	Industry string
}

// Audit tallies rows dropped by each recode so silent exclusions are visible
// in the run log.
type Audit struct {
	counts map[string]int
}

func NewAudit() *Audit {
	return &Audit{counts: make(map[string]int)}
}

func (a *Audit) Drop(reason string) {
	if a == nil {
		return
	}
	a.counts[reason]++
}

// Count returns the number of rows dropped for reason.
func (a *Audit) Count(reason string) int {
	if a == nil {
		return 0
	}
	return a.counts[reason]
}

// Reasons returns the drop reasons seen so far, sorted.
func (a *Audit) Reasons() []string {
	var out []string
	for r := range a.counts {
		out = append(out, r)
	}
	sort.Strings(out)

	return out
}

func (a *Audit) String() string {
	if a == nil || len(a.counts) == 0 {
		return "no rows dropped"
	}

	s := ""
	for _, r := range a.Reasons() {
		s += fmt.Sprintf("%s: %d dropped\n", r, a.counts[r])
	}

	return s
}

// BuildRecords recodes raw person-months into Records, dropping rows that are
// out of sample: armed forces / not-in-universe employment codes, unmapped
// industries, ages outside the generation bands, and unrecognized sex, marital
// or education codes.  Race needs no drop: every code lands in a group, with
// rare and mixed codes in Other.  Drops are tallied in aud (which may be nil).
func BuildRecords(raws []Raw, lookup IndustryLookup, aud *Audit) []Record {
	var recs []Record

	for ind := 0; ind < len(raws); ind++ {
		r := raws[ind]

		emp := RecodeEmployment(r.EmpStat)
		if emp == EmpOutOfScope {
			aud.Drop("employment status out of scope")
			continue
		}

		indName, ok := lookup.Name(r.Ind)
		if !ok {
			aud.Drop("unmapped industry code")
			continue
		}

		gen := RecodeGeneration(r.Age)
		if gen == GenUnresolved {
			aud.Drop("age outside generation bands")
			continue
		}

		sex := RecodeSex(r.Sex)
		if sex == SexUnresolved {
			aud.Drop("unrecognized sex code")
			continue
		}

		marital := RecodeMarital(r.Marst)
		if marital == MaritalUnresolved {
			aud.Drop("unrecognized marital code")
			continue
		}

		educ := RecodeEduc(r.Educ)
		if educ == EducUnresolved {
			aud.Drop("unrecognized education code")
			continue
		}

		recs = append(recs, Record{
			YM:       NewYearMonth(r.Year, r.Month),
			Weight:   r.Weight,
			Age:      r.Age,
			Sex:      sex,
			Marital:  marital,
			Educ:     educ,
			Race:     RecodeRace(r.Race),
			Gen:      gen,
			Employed: emp == EmpEmployed,
			Industry: indName,
		})
	}

	return recs
}

// IndustryLookup maps census industry codes to names.
type IndustryLookup map[int]string

// Name resolves a code; ok is false for codes absent from the lookup.
func (l IndustryLookup) Name(code int) (string, bool) {
	nm, ok := l[code]
	return nm, ok
}

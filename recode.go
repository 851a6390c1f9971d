package cpscovid

// Recodes from raw CPS codes to analysis categories.  Each recode is a total
// function: codes not covered by any bucket map to the type's unresolved
// sentinel, which BuildRecords drops before any aggregation can see it.  Race
// is the exception: every code lands in a group, with rare and mixed codes
// folded into an explicit Other bucket.
//
// Code values follow the IPUMS CPS codebook.

// EmpStatus is the U-3 employment recode of EMPSTAT.
type EmpStatus int

const (
	// EmpOutOfScope covers armed forces, NILF and not-in-universe codes;
	// these rows leave the sample entirely.
	EmpOutOfScope EmpStatus = iota
	EmpEmployed
	EmpUnemployed
)

// RecodeEmployment partitions EMPSTAT: at work (10) and has-job-not-at-work
// (12) are employed; unemployed on layoff or looking (20, 21, 22) are
// unemployed; everything else is out of scope.
func RecodeEmployment(code int) EmpStatus {
	switch code {
	case 10, 12:
		return EmpEmployed
	case 20, 21, 22:
		return EmpUnemployed
	}

	return EmpOutOfScope
}

type Sex int

const (
	SexUnresolved Sex = iota
	SexMale
	SexFemale
)

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "Male"
	case SexFemale:
		return "Female"
	}

	return "Unresolved"
}

func RecodeSex(code int) Sex {
	switch code {
	case 1:
		return SexMale
	case 2:
		return SexFemale
	}

	return SexUnresolved
}

// Marital is the binary marital-status collapse.  The canonical definition is
// "ever married": MARST codes 1-5 (married spouse present or absent,
// separated, divorced, widowed) against never married (6).  The alternative
// "currently married" collapse is not used anywhere in this module.
type Marital int

const (
	MaritalUnresolved Marital = iota
	EverMarried
	Single
)

func (m Marital) String() string {
	switch m {
	case EverMarried:
		return "Ever married"
	case Single:
		return "Single"
	}

	return "Unresolved"
}

func RecodeMarital(code int) Marital {
	switch {
	case code >= 1 && code <= 5:
		return EverMarried
	case code == 6:
		return Single
	}

	return MaritalUnresolved
}

// EducTier is the ordered education recode of the EDUC general codes.
// Bachelor's and above are carved out first by exact code; "high school" is
// then everything at or below code 73.
type EducTier int

const (
	EducUnresolved EducTier = iota
	BelowHighSchool
	HighSchool
	SomeCollege
	Bachelor
	Master
	Professional
	Doctorate
)

func (t EducTier) String() string {
	switch t {
	case BelowHighSchool:
		return "Below high school"
	case HighSchool:
		return "High school"
	case SomeCollege:
		return "Some college"
	case Bachelor:
		return "Bachelor"
	case Master:
		return "Master"
	case Professional:
		return "Professional"
	case Doctorate:
		return "Doctorate"
	}

	return "Unresolved"
}

func RecodeEduc(code int) EducTier {
	switch code {
	case 111:
		return Bachelor
	case 123:
		return Master
	case 124:
		return Professional
	case 125:
		return Doctorate
	}

	switch {
	case code > 0 && code < 73:
		return BelowHighSchool
	case code == 73:
		return HighSchool
	// some college through associate degrees
	case code > 73 && code < 111:
		return SomeCollege
	}

	return EducUnresolved
}

// RaceGroup collapses the CPS RACE detail to five groups; mixed-race and rare
// single-race codes fold into Other to preserve statistical power.
type RaceGroup int

const (
	RaceOther RaceGroup = iota
	White
	Black
	AmericanIndian
	Asian
)

func (r RaceGroup) String() string {
	switch r {
	case White:
		return "White"
	case Black:
		return "Black"
	case AmericanIndian:
		return "American Indian"
	case Asian:
		return "Asian"
	}

	return "Other"
}

func RecodeRace(code int) RaceGroup {
	switch code {
	case 100:
		return White
	case 200:
		return Black
	case 300:
		return AmericanIndian
	case 651, 652:
		return Asian
	}

	return RaceOther
}

// Generation maps age to three cohorts: Millennial 26-40, GenX 41-55,
// Boomer 56-75.  Ages outside all bands are unresolved and leave the sample.
type Generation int

const (
	GenUnresolved Generation = iota
	Millennial
	GenX
	Boomer
)

func (g Generation) String() string {
	switch g {
	case Millennial:
		return "Millennial"
	case GenX:
		return "GenX"
	case Boomer:
		return "Boomer"
	}

	return "Unresolved"
}

func RecodeGeneration(age int) Generation {
	switch {
	case age >= 26 && age <= 40:
		return Millennial
	case age >= 41 && age <= 55:
		return GenX
	case age >= 56 && age <= 75:
		return Boomer
	}

	return GenUnresolved
}

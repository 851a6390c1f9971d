// Package extract loads CPS person-month microdata into []cpscovid.Raw.
//
// Three sources are supported: Stata .dta extracts (the format IPUMS ships),
// CSV extracts, and a database table reached through a Dialect (ClickHouse or
// Postgres).  Any load failure is fatal to the run; there are no partial
// loads.
package extract

import (
	"fmt"
	"os"
	"strings"

	u "github.com/invertedv/utilities"
	"github.com/kshedden/datareader"

	"github.com/invertedv/cpscovid"
)

// required extract columns, IPUMS names
var required = []string{"YEAR", "MONTH", "WTFINL", "AGE", "SEX", "MARST", "RACE", "EDUC", "EMPSTAT", "IND"}

// Load reads a microdata extract, dispatching on the file extension (.dta or
// .csv).  Rows with a missing value in any required column are dropped and
// tallied in aud (which may be nil).
func Load(fileName string, aud *cpscovid.Audit) ([]cpscovid.Raw, error) {
	switch {
	case strings.HasSuffix(fileName, ".dta"):
		return LoadStata(fileName, aud)
	case strings.HasSuffix(fileName, ".csv"):
		return LoadCSV(fileName, aud)
	}

	return nil, fmt.Errorf("extract %s: unknown format (want .dta or .csv)", fileName)
}

// LoadStata reads a Stata .dta extract.
func LoadStata(fileName string, aud *cpscovid.Audit) (raws []cpscovid.Raw, err error) {
	f, e := os.Open(fileName)
	if e != nil {
		return nil, fmt.Errorf("cannot open extract %s: %w", fileName, e)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()

	rdr, e := datareader.NewStataReader(f)
	if e != nil {
		return nil, fmt.Errorf("cannot read extract %s: %w", fileName, e)
	}

	series, e := rdr.Read(-1)
	if e != nil {
		return nil, fmt.Errorf("cannot read extract %s: %w", fileName, e)
	}

	return fromSeries(series, aud)
}

// LoadCSV reads a CSV extract with a header row, using datareader's
// type-sniffing reader.
func LoadCSV(fileName string, aud *cpscovid.Audit) (raws []cpscovid.Raw, err error) {
	f, e := os.Open(fileName)
	if e != nil {
		return nil, fmt.Errorf("cannot open extract %s: %w", fileName, e)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()

	rdr := datareader.NewCSVReader(f)

	series, e := rdr.Read(-1)
	if e != nil {
		return nil, fmt.Errorf("cannot read extract %s: %w", fileName, e)
	}

	return fromSeries(series, aud)
}

// fromSeries assembles Raw rows from the columnar series, checking that every
// required column is present and numeric.
func fromSeries(series []*datareader.Series, aud *cpscovid.Audit) ([]cpscovid.Raw, error) {
	var names []string
	for ind := 0; ind < len(series); ind++ {
		names = append(names, strings.ToUpper(strings.TrimSpace(series[ind].Name)))
	}

	cols := make([][]float64, len(required))
	miss := make([][]bool, len(required))
	for ind, nm := range required {
		pos := u.Position(nm, "", names...)
		if pos < 0 {
			return nil, fmt.Errorf("extract is missing required column %s", nm)
		}

		ser := series[pos].UpcastNumeric()
		data, ok := ser.Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("extract column %s is not numeric", nm)
		}

		cols[ind] = data
		miss[ind] = ser.Missing()
	}

	n := len(cols[0])
	var raws []cpscovid.Raw

rows:
	for i := 0; i < n; i++ {
		for j := 0; j < len(required); j++ {
			if miss[j] != nil && miss[j][i] {
				aud.Drop("missing value in extract")
				continue rows
			}
		}

		raws = append(raws, cpscovid.Raw{
			Year:    int(cols[0][i]),
			Month:   int(cols[1][i]),
			Weight:  cols[2][i],
			Age:     int(cols[3][i]),
			Sex:     int(cols[4][i]),
			Marst:   int(cols[5][i]),
			Race:    int(cols[6][i]),
			Educ:    int(cols[7][i]),
			EmpStat: int(cols[8][i]),
			Ind:     int(cols[9][i]),
		})
	}

	return raws, nil
}

package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/invertedv/cpscovid"
)

// LoadIndustryMap reads the industry lookup CSV: two columns, a numeric census
// industry code and a human-readable industry name.  A header row is detected
// and skipped.  A code that appears twice is an error.
func LoadIndustryMap(fileName string) (lookup cpscovid.IndustryLookup, err error) {
	f, e := os.Open(fileName)
	if e != nil {
		return nil, fmt.Errorf("cannot open industry lookup %s: %w", fileName, e)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()

	rdr := csv.NewReader(f)
	rows, e := rdr.ReadAll()
	if e != nil {
		return nil, fmt.Errorf("cannot parse industry lookup %s: %w", fileName, e)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("industry lookup %s is empty", fileName)
	}

	lookup = make(cpscovid.IndustryLookup)
	for ind := 0; ind < len(rows); ind++ {
		row := rows[ind]
		if len(row) != 2 {
			return nil, fmt.Errorf("industry lookup %s row %d: want 2 columns, got %d", fileName, ind+1, len(row))
		}

		code, e := strconv.Atoi(strings.TrimSpace(row[0]))
		if e != nil {
			// header row
			if ind == 0 {
				continue
			}
			return nil, fmt.Errorf("industry lookup %s row %d: bad code %q", fileName, ind+1, row[0])
		}

		if _, ok := lookup[code]; ok {
			return nil, fmt.Errorf("industry lookup %s: duplicate code %d", fileName, code)
		}

		lookup[code] = strings.TrimSpace(row[1])
	}

	if len(lookup) == 0 {
		return nil, fmt.Errorf("industry lookup %s has no data rows", fileName)
	}

	return lookup, nil
}

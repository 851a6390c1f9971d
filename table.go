package cpscovid

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// All code writing tabular output is here

const (
	Sep         = ','
	EOL         = '\n'
	StringDelim = '"'
	DateFormat  = "20060102"
	FloatFormat = "%.3f"
	Header      = true
)

// Files writes delimited output tables (coefficient tables, monthly rate
// series).
type Files struct {
	FieldNames  []string
	EOL         byte
	Sep         byte
	StringDelim byte
	DateFormat  string
	FloatFormat string
	Header      bool

	file     *os.File
	fileName string
}

func NewFiles() *Files {
	f := &Files{
		EOL:         byte(EOL),
		Sep:         byte(Sep),
		StringDelim: byte(StringDelim),
		DateFormat:  DateFormat,
		FloatFormat: FloatFormat,
		Header:      Header,
	}

	return f
}

func (f *Files) Create(fileName string) error {
	var e error
	f.fileName = fileName
	f.file, e = os.Create(fileName)

	return e
}

func (f *Files) FileName() string {
	return f.fileName
}

func (f *Files) Close() error {
	if f.file != nil {
		return f.file.Close()
	}

	return fmt.Errorf("no open files")
}

func (f *Files) WriteLine(v []any) error {
	var line []byte
	for ind := 0; ind < len(v); ind++ {
		var lx []byte
		switch d := v[ind].(type) {
		case float64:
			lx = []byte(fmt.Sprintf(f.FloatFormat, d))
		case int:
			lx = []byte(fmt.Sprintf("%v", d))
		case time.Time:
			lx = []byte(d.Format(f.DateFormat))
		case string:
			lx = []byte(d)
			lx = append([]byte{f.StringDelim}, lx...)
			lx = append(lx, f.StringDelim)
		default:
			lx = []byte(fmt.Sprintf("%v", d))
		}
		line = append(line, lx...)
		if ind < len(v)-1 {
			line = append(line, f.Sep)
		}
	}
	if _, e := f.file.Write(line); e != nil {
		return e
	}
	_, e := f.file.Write([]byte{f.EOL})

	return e
}

func (f *Files) WriteHeader() error {
	if !f.Header {
		return nil
	}

	if f.FieldNames == nil {
		return fmt.Errorf("field names not set in *Files")
	}

	_, e := f.file.WriteString(strings.Join(f.FieldNames, string(rune(f.Sep))) + string(rune(f.EOL)))

	return e
}

// ***************** Rendering *****************

// Table renders the fit as a fixed-width coefficient table, 3 decimal places.
func (f *Fit) Table() string {
	wid := len("term")
	for ind := 0; ind < len(f.Terms); ind++ {
		if len(f.Terms[ind].Name) > wid {
			wid = len(f.Terms[ind].Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  (n=%d)\n", f.Formula, f.N)
	fmt.Fprintf(&b, "%-*s %10s %10s %10s %10s\n", wid, "term", "estimate", "std err", "z", "p")
	for ind := 0; ind < len(f.Terms); ind++ {
		t := f.Terms[ind]
		fmt.Fprintf(&b, "%-*s %10.3f %10.3f %10.3f %10.3f\n", wid, t.Name, t.Est, t.SE, t.Z, t.P)
	}

	return b.String()
}

// Save writes the fit to a delimited file.
func (f *Fit) Save(fileName string) (err error) {
	fl := NewFiles()
	if e := fl.Create(fileName); e != nil {
		return e
	}
	defer func() {
		if e := fl.Close(); e != nil && err == nil {
			err = e
		}
	}()

	fl.FieldNames = []string{"term", "estimate", "stderr", "z", "p"}
	if e := fl.WriteHeader(); e != nil {
		return e
	}

	for ind := 0; ind < len(f.Terms); ind++ {
		t := f.Terms[ind]
		if e := fl.WriteLine([]any{t.Name, t.Est, t.SE, t.Z, t.P}); e != nil {
			return e
		}
	}

	return nil
}

// SaveRates writes a monthly rate series to a delimited file.
func SaveRates(rates []*Rate, fileName string) (err error) {
	fl := NewFiles()
	if e := fl.Create(fileName); e != nil {
		return e
	}
	defer func() {
		if e := fl.Close(); e != nil && err == nil {
			err = e
		}
	}()

	fl.FieldNames = []string{"month", "level", "rate", "lower", "upper", "n", "wtotal"}
	if e := fl.WriteHeader(); e != nil {
		return e
	}

	for ind := 0; ind < len(rates); ind++ {
		r := rates[ind]
		if e := fl.WriteLine([]any{r.YM.String(), r.Level, r.Rate, r.Lower, r.Upper, r.N, r.WTotal}); e != nil {
			return e
		}
	}

	return nil
}

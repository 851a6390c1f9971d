// Command cpscovid runs the full analysis: load the extract and industry
// lookup, recode, build the monthly panel, and write employment-rate series,
// regression tables and charts for each demographic cut, for the whole
// sample, retail, and the top-5 non-retail industries.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/invertedv/cpscovid"
	"github.com/invertedv/cpscovid/extract"
)

func main() {
	data := flag.String("data", "", "extract file (.dta or .csv)")
	lookup := flag.String("lookup", "", "industry lookup csv")
	out := flag.String("out", "", "output directory")
	retail := flag.String("retail", "Retail Trade", "retail industry name in the lookup")
	exclude := flag.Int("exclude", 202003, "excluded month, yyyymm")
	pie1 := flag.Int("pie1", 202001, "first pie-chart month, yyyymm")
	pie2 := flag.Int("pie2", 202101, "second pie-chart month, yyyymm")
	show := flag.Bool("show", false, "open each chart in a browser")
	browser := flag.String("browser", "", "browser command for -show (default xdg-open)")

	// database source, used when -table is set
	host := flag.String("host", "127.0.0.1", "database host")
	user := flag.String("user", "default", "database user")
	password := flag.String("password", "", "database password")
	dbName := flag.String("db", "", "database name (postgres)")
	dialect := flag.String("dialect", "clickhouse", "clickhouse or postgres")
	table := flag.String("table", "", "extract table; overrides -data")

	flag.Parse()

	if *out == "" {
		log.Fatalln("need -out")
	}
	if e := os.MkdirAll(*out, 0o775); e != nil {
		log.Fatalln(e)
	}

	aud := cpscovid.NewAudit()

	var (
		raws []cpscovid.Raw
		err  error
	)
	switch {
	case *table != "":
		raws, err = loadDB(*host, *user, *password, *dbName, *dialect, *table)
	case *data != "":
		raws, err = extract.Load(*data, aud)
	default:
		log.Fatalln("need -data or -table")
	}
	if err != nil {
		log.Fatalln(err)
	}

	indMap, err := extract.LoadIndustryMap(*lookup)
	if err != nil {
		log.Fatalln(err)
	}

	recs := cpscovid.BuildRecords(raws, indMap, aud)
	log.Printf("%d of %d rows in sample\n%s", len(recs), len(raws), aud)

	recs = cpscovid.ExcludeMonth(recs, cpscovid.YearMonth(*exclude))
	trend := cpscovid.TimeTrend(recs)

	top5 := cpscovid.TopIndustries(recs, 5, *retail)
	log.Printf("top non-retail industries: %s", strings.Join(top5, "; "))

	datasets := []struct {
		name string
		recs []cpscovid.Record
	}{
		{"all", recs},
		{"retail", cpscovid.FilterIndustry(recs, *retail)},
	}
	for _, nm := range top5 {
		datasets = append(datasets, struct {
			name string
			recs []cpscovid.Record
		}{fileSafe(nm), cpscovid.FilterIndustry(recs, nm)})
	}

	cuts := []struct {
		name  string
		group cpscovid.Grouper
	}{
		{"sex", cpscovid.BySex},
		{"marital", cpscovid.ByMarital},
		{"generation", cpscovid.ByGeneration},
		{"education", cpscovid.ByEduc},
		{"race", cpscovid.ByRace},
	}

	view := viewer{show: *show, browser: *browser}

	for _, ds := range datasets {
		for _, cut := range cuts {
			if e := runCut(*out, ds.name, cut.name, ds.recs, cut.group, view); e != nil {
				log.Printf("%s/%s: %v", ds.name, cut.name, e)
			}
		}

		if e := runTrend(*out, ds.name, ds.recs, trend); e != nil {
			log.Printf("%s/trend: %v", ds.name, e)
		}
	}

	for _, ym := range []cpscovid.YearMonth{cpscovid.YearMonth(*pie1), cpscovid.YearMonth(*pie2)} {
		if e := runPie(*out, recs, ym, view); e != nil {
			log.Printf("pie %s: %v", ym, e)
		}
	}
}

// viewer optionally opens saved charts in a browser.
type viewer struct {
	show    bool
	browser string
}

func (v viewer) view(p *cpscovid.Plot, fileName string) error {
	if !v.show {
		return nil
	}

	return p.Show(v.browser, fileName)
}

func loadDB(host, user, password, dbName, dialect, table string) ([]cpscovid.Raw, error) {
	var d *extract.Dialect

	switch dialect {
	case "postgres":
		db, e := extract.OpenPG(host, user, password, dbName)
		if e != nil {
			return nil, e
		}
		if d, e = extract.NewDialect(dialect, db); e != nil {
			return nil, e
		}
	default:
		var e error
		if d, e = extract.NewDialect(dialect, extract.OpenCH(host, user, password)); e != nil {
			return nil, e
		}
	}
	defer func() {
		if e := d.Close(); e != nil {
			log.Println(e)
		}
	}()

	return d.LoadTable(table, "")
}

var palette = []string{"black", "red", "blue", "green", "purple", "orange", "brown"}

var bandPalette = []string{
	"rgba(0,0,0,0.2)", "rgba(255,0,0,0.2)", "rgba(0,0,255,0.2)",
	"rgba(0,128,0,0.2)", "rgba(128,0,128,0.2)", "rgba(255,165,0,0.2)", "rgba(165,42,42,0.2)",
}

// runCut produces the rate series, plot and model tables for one demographic
// cut of one dataset.
func runCut(out, dsName, cutName string, recs []cpscovid.Record, group cpscovid.Grouper, view viewer) error {
	base := fmt.Sprintf("%s/%s_%s", out, dsName, cutName)

	rates, e := cpscovid.MonthlyRates(recs, group)
	if e != nil {
		return e
	}
	if e := cpscovid.SaveRates(rates, base+"_rates.csv"); e != nil {
		return e
	}

	p := cpscovid.NewPlot(
		cpscovid.WithTitle(fmt.Sprintf("Employment rate by %s (%s)", cutName, dsName)),
		cpscovid.WithXlabel("month"),
		cpscovid.WithYlabel("weighted employment rate"),
		cpscovid.WithLegend(true))

	byLevel := make(map[string][]*cpscovid.Rate)
	var levels []string
	for ind := 0; ind < len(rates); ind++ {
		l := rates[ind].Level
		if _, ok := byLevel[l]; !ok {
			levels = append(levels, l)
		}
		byLevel[l] = append(byLevel[l], rates[ind])
	}
	for ind, l := range levels {
		c := ind % len(palette)
		if e := p.RateSeries(byLevel[l], l, palette[c], bandPalette[c]); e != nil {
			return e
		}
	}
	if e := p.Save(base + "_rates.html"); e != nil {
		return e
	}
	if e := view.view(p, base+"_rates.html"); e != nil {
		return e
	}

	des, e := cpscovid.NewDesign(recs, cutName, group)
	if e != nil {
		return e
	}

	lpm, e := des.LPM()
	if e != nil {
		return e
	}
	fmt.Print(lpm.Table())
	if e := lpm.Save(base + "_lpm.csv"); e != nil {
		return e
	}

	lgt, e := des.Logit()
	if e != nil {
		return e
	}
	fmt.Print(lgt.Table())
	if e := lgt.Save(base + "_logit.csv"); e != nil {
		return e
	}

	ame, e := des.MarginalEffects(lgt)
	if e != nil {
		return e
	}
	fmt.Print(ame.Table())

	return ame.Save(base + "_ame.csv")
}

// runTrend fits the time-trend variant for one dataset.
func runTrend(out, dsName string, recs []cpscovid.Record, trend map[cpscovid.YearMonth]int) error {
	base := fmt.Sprintf("%s/%s_trend", out, dsName)

	des, e := cpscovid.NewTrendDesign(recs, trend)
	if e != nil {
		return e
	}

	lpm, e := des.LPM()
	if e != nil {
		return e
	}
	fmt.Print(lpm.Table())
	if e := lpm.Save(base + "_lpm.csv"); e != nil {
		return e
	}

	lgt, e := des.Logit()
	if e != nil {
		return e
	}
	fmt.Print(lgt.Table())
	if e := lgt.Save(base + "_logit.csv"); e != nil {
		return e
	}

	// months-since bucket variant
	bdes, e := cpscovid.NewBucketDesign(recs)
	if e != nil {
		return e
	}
	blpm, e := bdes.LPM()
	if e != nil {
		return e
	}
	fmt.Print(blpm.Table())

	return blpm.Save(base + "_buckets_lpm.csv")
}

func runPie(out string, recs []cpscovid.Record, ym cpscovid.YearMonth, view viewer) error {
	shares, e := cpscovid.IndustryShares(recs, ym)
	if e != nil {
		return e
	}

	p := cpscovid.NewPlot(cpscovid.WithTitle("Weighted employment share by industry, " + ym.String()))
	if e := p.Pie(shares); e != nil {
		return e
	}

	fn := fmt.Sprintf("%s/industry_share_%s.html", out, ym)
	if e := p.Save(fn); e != nil {
		return e
	}

	return view.view(p, fn)
}

func fileSafe(nm string) string {
	return strings.ToLower(strings.ReplaceAll(nm, " ", "_"))
}

package cpscovid

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"
)

type Plot struct {
	Fig *grob.Fig
	Lay *grob.Layout
}

type Opt func(plot *Plot) *Plot

func NewPlot(opt ...Opt) *Plot {
	fig := &grob.Fig{}
	lay := &grob.Layout{}
	fig.Layout = lay
	p := &Plot{Fig: fig, Lay: lay}
	for _, o := range opt {
		o(p)
	}

	return p
}

func WithWidth(w float64) Opt {
	if w < 0.0 {
		panic(fmt.Errorf("negative width"))
	}
	return func(p *Plot) *Plot {
		p.Lay.Width = w
		return p
	}
}

func WithHeight(h float64) Opt {
	if h < 0.0 {
		panic(fmt.Errorf("negative height"))
	}
	return func(p *Plot) *Plot {
		p.Lay.Height = h
		return p
	}
}

func WithTitle(title string) Opt {
	return func(p *Plot) *Plot { p.Lay.Title = &grob.LayoutTitle{Text: title}; return p }
}

// add to below x title
func WithSubtitle(subTitle string) Opt {
	return func(p *Plot) *Plot {
		if p.Lay.Xaxis == nil {
			p.Lay.Xaxis = &grob.LayoutXaxis{}
		}
		if p.Lay.Xaxis.Title == nil {
			p.Lay.Xaxis.Title = &grob.LayoutXaxisTitle{}
			p.Lay.Xaxis.Title.Text = ""
		}

		xAxis := p.Lay.Xaxis
		var xLabel string
		if xLabel = xAxis.Title.Text.(string); xLabel != "" {
			xLabel += "<br>"
		}
		xAxis.Title.Text = xLabel + subTitle
		return p
	}
}

func WithLegend(show bool) Opt {
	return func(p *Plot) *Plot {
		if show {
			p.Lay.Showlegend = grob.True
		} else {
			p.Lay.Showlegend = grob.False
		}

		return p
	}
}

func WithXlabel(label string) Opt {
	return func(p *Plot) *Plot {
		if p.Lay.Xaxis == nil {
			p.Lay.Xaxis = &grob.LayoutXaxis{}
		}

		if p.Lay.Xaxis.Title == nil {
			p.Lay.Xaxis.Title = &grob.LayoutXaxisTitle{}
			p.Lay.Xaxis.Title.Text = ""
		}

		xAxis := p.Lay.Xaxis

		subTitle := ""
		xLabel := xAxis.Title.Text.(string)
		if ind := strings.Index(xLabel, "<br>"); ind > 0 {
			subTitle = xLabel[ind:]
		}

		xAxis.Title.Text = label + subTitle
		return p
	}
}

func WithYlabel(label string) Opt {
	return func(p *Plot) *Plot {
		if p.Lay.Yaxis == nil {
			p.Lay.Yaxis = &grob.LayoutYaxis{}
		}
		if p.Lay.Yaxis.Title == nil {
			p.Lay.Yaxis.Title = &grob.LayoutYaxisTitle{}
		}

		yAxis := p.Lay.Yaxis
		yAxis.Title.Text = label
		return p
	}
}

// RateSeries adds one demographic level's monthly employment rate as a line
// with a shaded confidence band.  rates must all carry the same Level.
func (p *Plot) RateSeries(rates []*Rate, seriesName, color, bandColor string) error {
	if len(rates) == 0 {
		return fmt.Errorf("no rates to plot for %s", seriesName)
	}

	x := make([]string, len(rates))
	y := make([]float64, len(rates))
	lo := make([]float64, len(rates))
	hi := make([]float64, len(rates))
	for ind := 0; ind < len(rates); ind++ {
		x[ind] = rates[ind].YM.String()
		y[ind] = rates[ind].Rate
		lo[ind] = rates[ind].Lower
		hi[ind] = rates[ind].Upper
	}

	up := &grob.Scatter{Name: seriesName + " upper", X: x, Y: hi,
		Mode: grob.ScatterModeLines, Line: &grob.ScatterLine{Color: bandColor}, Showlegend: grob.False}
	dn := &grob.Scatter{Name: seriesName + " lower", X: x, Y: lo,
		Mode: grob.ScatterModeLines, Line: &grob.ScatterLine{Color: bandColor},
		Fill: grob.ScatterFillTonexty, Fillcolor: bandColor, Showlegend: grob.False}
	ctr := &grob.Scatter{Name: seriesName, X: x, Y: y,
		Mode: grob.ScatterModeLines, Line: &grob.ScatterLine{Color: color}}

	p.Fig.AddTraces(up, dn, ctr)

	return nil
}

// Pie adds a pie of weighted employment shares, as produced by IndustryShares.
func (p *Plot) Pie(shares map[string]float64) error {
	if len(shares) == 0 {
		return fmt.Errorf("no shares to plot")
	}

	var labels []string
	for nm := range shares {
		labels = append(labels, nm)
	}
	sort.Strings(labels)

	values := make([]float64, len(labels))
	for ind := 0; ind < len(labels); ind++ {
		values[ind] = shares[labels[ind]]
	}

	p.Fig.AddTraces(&grob.Pie{Labels: labels, Values: values})

	return nil
}

// Save writes the figure to an HTML file.
func (p *Plot) Save(fileName string) error {
	offline.ToHtml(p.Fig, fileName)
	return nil
}

func (p *Plot) Show(browser, fileName string) error {
	const nameLength = 8

	if browser == "" {
		browser = "xdg-open"
	}

	tmpFile := false
	if fileName == "" {
		fileName = tempFile("html", nameLength)

		tmpFile = true
		offline.ToHtml(p.Fig, fileName)
	}

	cmd := exec.Command(browser, fileName)
	if e := cmd.Start(); e != nil {
		return e
	}

	time.Sleep(time.Second) // need to pause while browser loads graph

	if tmpFile {
		if e := os.Remove(fileName); e != nil {
			return e
		}
	}

	return nil
}

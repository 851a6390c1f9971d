package cpscovid

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Regression models: a weighted linear probability model with
// heteroscedasticity-robust (HC1) standard errors, and a weighted logistic
// regression fit by IRLS with average marginal effects.  All specified terms
// are always included; there is no selection or regularization.

// Term is one row of a coefficient table.
type Term struct {
	Name string
	Est  float64
	SE   float64
	Z    float64
	P    float64
}

// Fit is a fitted model.
type Fit struct {
	Formula string
	Terms   []Term
	N       int
}

// Design is a model matrix with outcome and analytic weight.  Column 0 is the
// intercept; the interaction columns carry the differential post-period effect
// for each non-reference demographic level.
type Design struct {
	names []string
	x     []float64 // row major, n x p
	y     []float64
	w     []float64
	n, p  int

	formula string
}

// NewDesign builds the design for employed ~ post * demo: intercept, the
// post-period indicator, a dummy per non-reference level of the demographic
// (reference is the alphabetically first level), and the post interactions.
func NewDesign(recs []Record, demoName string, demo Grouper) (*Design, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("design %s: no records", demoName)
	}

	seen := make(map[string]bool)
	for ind := 0; ind < len(recs); ind++ {
		seen[demo(recs[ind])] = true
	}

	var levels []string
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Strings(levels)

	if len(levels) < 2 {
		return nil, fmt.Errorf("design %s: single observed level %q after filtering", demoName, levels[0])
	}

	nPre, nPost := 0, 0
	for ind := 0; ind < len(recs); ind++ {
		if recs[ind].YM.Post() {
			nPost++
		} else {
			nPre++
		}
	}
	if nPre == 0 || nPost == 0 {
		return nil, fmt.Errorf("design %s: post-period indicator has a single level", demoName)
	}

	ref, dummies := levels[0], levels[1:]
	names := []string{"intercept", "post"}
	for _, l := range dummies {
		names = append(names, demoName+"="+l)
	}
	for _, l := range dummies {
		names = append(names, "post:"+demoName+"="+l)
	}

	d := &Design{
		names:   names,
		n:       len(recs),
		p:       len(names),
		formula: fmt.Sprintf("employed ~ post * %s (ref %s)", demoName, ref),
	}

	for ind := 0; ind < len(recs); ind++ {
		r := recs[ind]

		post := 0.0
		if r.YM.Post() {
			post = 1
		}

		row := make([]float64, 0, d.p)
		row = append(row, 1, post)
		lvl := demo(r)
		for _, l := range dummies {
			if lvl == l {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
		for _, l := range dummies {
			if lvl == l {
				row = append(row, post)
			} else {
				row = append(row, 0)
			}
		}

		d.x = append(d.x, row...)
		if r.Employed {
			d.y = append(d.y, 1)
		} else {
			d.y = append(d.y, 0)
		}
		d.w = append(d.w, r.Weight)
	}

	return d, nil
}

// NewTrendDesign builds the design for employed ~ post * trend, where trend is
// the chronological month index of the panel.
func NewTrendDesign(recs []Record, trend map[YearMonth]int) (*Design, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("trend design: no records")
	}

	d := &Design{
		names:   []string{"intercept", "trend", "post", "post:trend"},
		n:       len(recs),
		p:       4,
		formula: "employed ~ post * trend",
	}

	nPost := 0
	for ind := 0; ind < len(recs); ind++ {
		r := recs[ind]

		t, ok := trend[r.YM]
		if !ok {
			return nil, fmt.Errorf("trend design: month %s not in trend index", r.YM)
		}

		post := 0.0
		if r.YM.Post() {
			post = 1
			nPost++
		}

		d.x = append(d.x, 1, float64(t), post, post*float64(t))
		if r.Employed {
			d.y = append(d.y, 1)
		} else {
			d.y = append(d.y, 0)
		}
		d.w = append(d.w, r.Weight)
	}

	if nPost == 0 || nPost == d.n {
		return nil, fmt.Errorf("trend design: post-period indicator has a single level")
	}

	return d, nil
}

// NewBucketDesign builds employed ~ months-since-COVID bucket: a dummy per
// elapsed-time bucket, with the pre period as the reference.
func NewBucketDesign(recs []Record) (*Design, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("bucket design: no records")
	}

	seen := make(map[string]bool)
	for ind := 0; ind < len(recs); ind++ {
		seen[recs[ind].YM.CovidBucket()] = true
	}
	if !seen["pre"] {
		return nil, fmt.Errorf("bucket design: no pre-period records for the reference bucket")
	}
	if len(seen) < 2 {
		return nil, fmt.Errorf("bucket design: only the pre period is observed")
	}

	var dummies []string
	for b := range seen {
		if b != "pre" {
			dummies = append(dummies, b)
		}
	}
	// chronological, not lexical: "months 4-7" sorts after "months 12-15" otherwise
	sort.Slice(dummies, func(i, j int) bool { return bucketStart(dummies[i]) < bucketStart(dummies[j]) })

	d := &Design{
		names:   append([]string{"intercept"}, dummies...),
		n:       len(recs),
		p:       1 + len(dummies),
		formula: "employed ~ covid bucket (ref pre)",
	}

	for ind := 0; ind < len(recs); ind++ {
		r := recs[ind]
		b := r.YM.CovidBucket()

		d.x = append(d.x, 1)
		for _, dm := range dummies {
			if b == dm {
				d.x = append(d.x, 1)
			} else {
				d.x = append(d.x, 0)
			}
		}

		if r.Employed {
			d.y = append(d.y, 1)
		} else {
			d.y = append(d.y, 0)
		}
		d.w = append(d.w, r.Weight)
	}

	return d, nil
}

// bucketStart recovers the bucket's first elapsed month for ordering.
func bucketStart(b string) int {
	var lo int
	if _, e := fmt.Sscanf(b, "months %d", &lo); e != nil {
		return -1
	}

	return lo
}

// Names returns the design's column names.
func (d *Design) Names() []string { return d.names }

// LPM fits the weighted linear probability model with HC1 robust standard
// errors.
func (d *Design) LPM() (*Fit, error) {
	// the HC1 scaling needs residual degrees of freedom
	if d.n <= d.p {
		return nil, fmt.Errorf("%s: %d records for %d terms: no residual degrees of freedom", d.formula, d.n, d.p)
	}

	xw := mat.NewDense(d.n, d.p, nil)
	yw := mat.NewDense(d.n, 1, nil)
	for i := 0; i < d.n; i++ {
		sw := math.Sqrt(d.w[i])
		for j := 0; j < d.p; j++ {
			xw.Set(i, j, sw*d.x[i*d.p+j])
		}
		yw.Set(i, 0, sw*d.y[i])
	}

	var qr mat.QR
	qr.Factorize(xw)

	var betaM mat.Dense
	if e := qr.SolveTo(&betaM, false, yw); e != nil {
		return nil, fmt.Errorf("%s: singular design (collinear terms): %v", d.formula, e)
	}

	beta := make([]float64, d.p)
	for j := 0; j < d.p; j++ {
		beta[j] = betaM.At(j, 0)
	}

	// bread: (X'WX)^-1
	var a, ainv mat.Dense
	a.Mul(xw.T(), xw)
	if e := ainv.Inverse(&a); e != nil {
		return nil, fmt.Errorf("%s: singular design (collinear terms): %v", d.formula, e)
	}

	// meat: sum w_i^2 e_i^2 x_i x_i'
	m := mat.NewDense(d.p, d.p, nil)
	for i := 0; i < d.n; i++ {
		fit := 0.0
		for j := 0; j < d.p; j++ {
			fit += d.x[i*d.p+j] * beta[j]
		}
		res := d.y[i] - fit
		c := d.w[i] * d.w[i] * res * res
		for j := 0; j < d.p; j++ {
			for k := 0; k < d.p; k++ {
				m.Set(j, k, m.At(j, k)+c*d.x[i*d.p+j]*d.x[i*d.p+k])
			}
		}
	}

	var t1, v mat.Dense
	t1.Mul(&ainv, m)
	v.Mul(&t1, &ainv)

	// HC1 small-sample scaling
	adj := float64(d.n) / float64(d.n-d.p)

	return d.fit(beta, &v, adj), nil
}

// Logit fits the weighted logistic regression by iteratively reweighted least
// squares.  Standard errors come from the inverse information matrix.
func (d *Design) Logit() (*Fit, error) {
	const (
		maxIter = 25
		tol     = 1e-8
	)

	beta := make([]float64, d.p)
	a := mat.NewDense(d.p, d.p, nil)
	b := mat.NewDense(d.p, 1, nil)

	for iter := 0; iter < maxIter; iter++ {
		a.Zero()
		b.Zero()

		for i := 0; i < d.n; i++ {
			eta := 0.0
			for j := 0; j < d.p; j++ {
				eta += d.x[i*d.p+j] * beta[j]
			}
			mu := sigmoid(eta)
			mu = math.Min(math.Max(mu, 1e-10), 1-1e-10)

			wi := d.w[i] * mu * (1 - mu)
			zi := eta + (d.y[i]-mu)/(mu*(1-mu))

			for j := 0; j < d.p; j++ {
				xij := d.x[i*d.p+j]
				b.Set(j, 0, b.At(j, 0)+wi*zi*xij)
				for k := 0; k < d.p; k++ {
					a.Set(j, k, a.At(j, k)+wi*xij*d.x[i*d.p+k])
				}
			}
		}

		var betaM mat.Dense
		if e := betaM.Solve(a, b); e != nil {
			return nil, fmt.Errorf("%s: singular information matrix (collinear terms): %v", d.formula, e)
		}

		del := 0.0
		for j := 0; j < d.p; j++ {
			del = math.Max(del, math.Abs(betaM.At(j, 0)-beta[j]))
			beta[j] = betaM.At(j, 0)
		}

		if del < tol {
			var v mat.Dense
			if e := v.Inverse(a); e != nil {
				return nil, fmt.Errorf("%s: singular information matrix: %v", d.formula, e)
			}
			return d.fit(beta, &v, 1), nil
		}
	}

	return nil, fmt.Errorf("%s: IRLS failed to converge (possible separation)", d.formula)
}

// MarginalEffects derives average marginal effects from a logistic fit.  For
// indicator regressors the effect is the average discrete change in predicted
// probability from 0 to 1; for continuous regressors it is the average of the
// density-scaled slope.  Standard errors scale the coefficient SE by the
// average logistic density (first-order approximation).
func (d *Design) MarginalEffects(logit *Fit) (*Fit, error) {
	if len(logit.Terms) != d.p {
		return nil, fmt.Errorf("marginal effects: fit has %d terms, design has %d", len(logit.Terms), d.p)
	}

	beta := make([]float64, d.p)
	for j := 0; j < d.p; j++ {
		beta[j] = logit.Terms[j].Est
	}

	var wSum float64
	for i := 0; i < d.n; i++ {
		wSum += d.w[i]
	}

	std := distuv.Normal{Mu: 0, Sigma: 1}
	out := &Fit{Formula: "AME of " + logit.Formula, N: d.n}

	for j := 1; j < d.p; j++ {
		var ame, dBar float64

		for i := 0; i < d.n; i++ {
			eta := 0.0
			for k := 0; k < d.p; k++ {
				eta += d.x[i*d.p+k] * beta[k]
			}
			mu := sigmoid(eta)
			dens := mu * (1 - mu)
			dBar += d.w[i] * dens / wSum

			if d.isIndicator(j) {
				eta0 := eta - d.x[i*d.p+j]*beta[j]
				ame += d.w[i] * (sigmoid(eta0+beta[j]) - sigmoid(eta0)) / wSum
			} else {
				ame += d.w[i] * dens * beta[j] / wSum
			}
		}

		se := dBar * logit.Terms[j].SE
		z := ame / se
		out.Terms = append(out.Terms, Term{
			Name: d.names[j],
			Est:  ame,
			SE:   se,
			Z:    z,
			P:    2 * std.CDF(-math.Abs(z)),
		})
	}

	return out, nil
}

// isIndicator reports whether column j takes only the values 0 and 1.
func (d *Design) isIndicator(j int) bool {
	for i := 0; i < d.n; i++ {
		if v := d.x[i*d.p+j]; v != 0 && v != 1 {
			return false
		}
	}

	return true
}

func (d *Design) fit(beta []float64, v *mat.Dense, adj float64) *Fit {
	std := distuv.Normal{Mu: 0, Sigma: 1}
	f := &Fit{Formula: d.formula, N: d.n}

	for j := 0; j < d.p; j++ {
		se := math.Sqrt(adj * v.At(j, j))
		z := beta[j] / se
		f.Terms = append(f.Terms, Term{
			Name: d.names[j],
			Est:  beta[j],
			SE:   se,
			Z:    z,
			P:    2 * std.CDF(-math.Abs(z)),
		})
	}

	return f
}

// Term returns the named term, or nil.
func (f *Fit) Term(name string) *Term {
	for ind := 0; ind < len(f.Terms); ind++ {
		if f.Terms[ind].Name == name {
			return &f.Terms[ind]
		}
	}

	return nil
}

// TotalEffect combines the post main effect with a level's interaction term to
// give that level's total post-period effect.  The reference level's total
// effect is the main effect alone.
func (f *Fit) TotalEffect(interaction string) (float64, error) {
	main := f.Term("post")
	if main == nil {
		return 0, fmt.Errorf("fit has no post main effect")
	}

	if interaction == "" {
		return main.Est, nil
	}

	t := f.Term(interaction)
	if t == nil {
		return 0, fmt.Errorf("no term %q in fit", interaction)
	}

	return main.Est + t.Est, nil
}

func sigmoid(eta float64) float64 {
	return 1 / (1 + math.Exp(-eta))
}

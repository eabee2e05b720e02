package rule

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Factor is one weighted component of a composite score.
type Factor struct {
	Name   string
	Weight float64
	Score  float64
}

// Contribution is a factor's share of a weighted sum.
type Contribution struct {
	Name   string
	Weight decimal.Decimal
	Score  decimal.Decimal
	Value  decimal.Decimal
}

// Weighted is the outcome of WeightedSum.
type Weighted struct {
	Total         decimal.Decimal
	Contributions []Contribution
}

// WeightedSum computes sum(weight * score) in decimal arithmetic so the
// composite does not depend on float summation order.
func WeightedSum(factors []Factor) Weighted {
	out := Weighted{Total: decimal.Zero, Contributions: make([]Contribution, 0, len(factors))}
	for _, f := range factors {
		w := decimal.NewFromFloat(f.Weight)
		s := decimal.NewFromFloat(f.Score)
		v := w.Mul(s)
		out.Contributions = append(out.Contributions, Contribution{Name: f.Name, Weight: w, Score: s, Value: v})
		out.Total = out.Total.Add(v)
	}
	return out
}

// Float returns the total rounded to places as a float64.
func (w Weighted) Float(places int32) float64 {
	f, _ := w.Total.Round(places).Float64()
	return f
}

// Top returns the names of the n largest positive contributions, largest
// first, ties broken by name.
func (w Weighted) Top(n int) []string {
	ranked := make([]Contribution, 0, len(w.Contributions))
	for _, c := range w.Contributions {
		if c.Value.IsPositive() {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].Value.Cmp(ranked[j].Value); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.Name
	}
	return names
}

// WeightTotal returns the sum of the factor weights.
func WeightTotal(factors []Factor) decimal.Decimal {
	total := decimal.Zero
	for _, f := range factors {
		total = total.Add(decimal.NewFromFloat(f.Weight))
	}
	return total
}

// CheckWeights rejects a weight table whose weights do not sum to 1 within tol.
func CheckWeights(table string, factors []Factor, tol float64) error {
	total := WeightTotal(factors)
	if total.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(decimal.NewFromFloat(tol)) {
		return skillerr.DataNotFound(table, nil, "weights sum to %s, want 1", total.String())
	}
	return nil
}

package rule

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Direction says which end of a ladder is more severe.
type Direction int

const (
	// Ascending ladders grow more severe as the value rises (risk scores,
	// claim counts). A tier applies from its lower bound inclusive.
	Ascending Direction = iota
	// Descending ladders grow more severe as the value falls (security
	// ratings, tenure). A tier applies only strictly above its bound.
	Descending
)

// Tier is one named bucket of a ladder.
type Tier struct {
	Name  string
	Bound float64
	Row   refdata.Row
}

// Ladder selects a tier by threshold comparison. A value exactly on a
// bound always lands in the more severe of the two adjacent tiers, and a
// value matching no tier lands in the most severe one.
type Ladder struct {
	dir   Direction
	tiers []Tier // least severe first
}

// NewLadder orders tiers by severity for dir.
func NewLadder(dir Direction, tiers []Tier) Ladder {
	ordered := append([]Tier{}, tiers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if dir == Ascending {
			return ordered[i].Bound < ordered[j].Bound
		}
		return ordered[i].Bound > ordered[j].Bound
	})
	return Ladder{dir: dir, tiers: ordered}
}

// LadderFromTable builds a ladder from the name and bound columns of t.
func LadderFromTable(t *refdata.Table, nameColumn, boundColumn string, dir Direction) (Ladder, error) {
	return LadderFromRows(t.Name(), t.Rows(), nameColumn, boundColumn, dir)
}

// LadderFromRows builds a ladder from a subset of a table's rows.
func LadderFromRows(table string, rows []refdata.Row, nameColumn, boundColumn string, dir Direction) (Ladder, error) {
	if len(rows) == 0 {
		return Ladder{}, skillerr.DataNotFound(table, nil, "no tiers defined")
	}
	tiers := make([]Tier, 0, len(rows))
	for _, r := range rows {
		tiers = append(tiers, Tier{Name: r.String(nameColumn), Bound: r.Float(boundColumn), Row: r})
	}
	return NewLadder(dir, tiers), nil
}

// Select returns the tier for v.
func (l Ladder) Select(v float64) Tier {
	if len(l.tiers) == 0 {
		return Tier{}
	}
	if math.IsNaN(v) {
		return l.MostSevere()
	}

	if l.dir == Ascending {
		for i := len(l.tiers) - 1; i >= 0; i-- {
			if v >= l.tiers[i].Bound {
				return l.tiers[i]
			}
		}
		return l.MostSevere()
	}

	for _, t := range l.tiers {
		if v > t.Bound {
			return t
		}
	}
	return l.MostSevere()
}

// MostSevere returns the last tier of the ladder.
func (l Ladder) MostSevere() Tier {
	if len(l.tiers) == 0 {
		return Tier{}
	}
	return l.tiers[len(l.tiers)-1]
}

// Tiers returns the tiers, least severe first.
func (l Ladder) Tiers() []Tier { return append([]Tier{}, l.tiers...) }

// Rank returns the severity position of a tier name, 0 for least severe,
// or -1 when the ladder has no such tier.
func (l Ladder) Rank(name string) int {
	for i, t := range l.tiers {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round rounds v half away from zero to places decimal places, on the
// shortest decimal representation of v.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

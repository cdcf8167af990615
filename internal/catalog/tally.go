package catalog

import (
	"strconv"

	"mjset/internal/inertia"
)

// Tally accumulates the run summary while variants are expanded.
// It is reporting only; nothing in the generated data reads it.
type Tally struct {
	Counts map[string]int
	Total  int

	// Cap is the mass cap in force; Capped counts variants clamped by it.
	Cap    inertia.Cap
	Capped int

	// Biggest is the largest pre-cap mass seen, in kg, and what it belonged to.
	Biggest      float64
	BiggestLabel string

	// MassSum is the sum of post-cap masses.
	MassSum float64
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{Counts: make(map[string]int, len(Categories))}
}

// Add records one emitted variant.
func (t *Tally) Add(v Variant) {
	if t.Counts == nil {
		t.Counts = make(map[string]int, len(Categories))
	}
	t.Counts[v.Category]++
	t.Total++
	t.MassSum += v.Mass
	if v.Capped {
		t.Capped++
	}
	if v.RawMass > t.Biggest {
		t.Biggest = v.RawMass
		t.BiggestLabel = v.Name + ", density " + strconv.FormatFloat(v.Density, 'f', -1, 64)
	}
}

// Mean is the average post-cap mass in kg, 0 for an empty tally.
func (t *Tally) Mean() float64 {
	if t.Total == 0 {
		return 0
	}
	return t.MassSum / float64(t.Total)
}

// Share is a category's percentage of all variants.
func (t *Tally) Share(category string) float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Counts[category]) * 100 / float64(t.Total)
}

// CapExceeded reports whether any variant's raw mass was above the cap.
func (t *Tally) CapExceeded() bool {
	return t.Cap.Bounded() && t.Biggest > t.Cap.Max
}

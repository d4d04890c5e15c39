package mathutil

// Accum collects (value, weight) pairs and yields their weighted average.
// The zero value is an empty accumulator.
type Accum struct {
	// Sum is the running sum of value*weight
	Sum float64

	// Weight is the running sum of weights
	Weight float64
}

// Add folds a weighted sample into the accumulator.
func (a *Accum) Add(value, weight float64) {
	a.Sum += value * weight
	a.Weight += weight
}

// Valid reports whether any positive weight has been accumulated.
func (a *Accum) Valid() bool {
	return a.Weight > 0
}

// Normalized returns the weighted average, or 0 when nothing was accumulated.
func (a *Accum) Normalized() float64 {
	if !a.Valid() {
		return 0
	}
	return a.Sum / a.Weight
}

// Reset clears both totals.
func (a *Accum) Reset() {
	a.Sum = 0
	a.Weight = 0
}

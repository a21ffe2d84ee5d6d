package simulator

import "math"

// Welford is a running mean and sum of squared deviations
type Welford struct {
	N    int
	Mean float64
	M2   float64
}

// Add folds one observation
func (w *Welford) Add(x float64) {
	w.N++
	delta := x - w.Mean
	w.Mean += delta / float64(w.N)
	w.M2 += delta * (x - w.Mean)
}

// Merge folds the observations of o using the pairwise update
func (w *Welford) Merge(o Welford) {
	if o.N == 0 {
		return
	}
	if w.N == 0 {
		*w = o
		return
	}
	n := w.N + o.N
	delta := o.Mean - w.Mean
	w.Mean += delta * float64(o.N) / float64(n)
	w.M2 += o.M2 + delta*delta*float64(w.N)*float64(o.N)/float64(n)
	w.N = n
}

// Variance is the Bessel-corrected sample variance, zero for N <= 1
func (w Welford) Variance() float64 {
	if w.N <= 1 {
		return 0
	}
	return math.Max(0, w.M2/float64(w.N-1))
}

// Std is the sample standard deviation
func (w Welford) Std() float64 {
	return math.Sqrt(w.Variance())
}

package render

import "math"

// Linear maps the domain [D0, D1] onto the range [R0, R1].
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

// At maps v. A degenerate domain maps everything to the middle of the range.
func (s Linear) At(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	t := (v - s.D0) / (s.D1 - s.D0)
	return s.R0 + t*(s.R1-s.R0)
}

// Ticks returns about count round values inside the domain.
func (s Linear) Ticks(count int) []float64 {
	lo, hi := s.D0, s.D1
	if hi < lo {
		lo, hi = hi, lo
	}
	return Ticks(lo, hi, count)
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// TickStep returns a 1, 2 or 5 times power of ten step that splits [lo, hi]
// into roughly count intervals.
func TickStep(lo, hi float64, count int) float64 {
	if count < 1 {
		count = 1
	}
	step0 := (hi - lo) / float64(count)
	if step0 <= 0 || math.IsNaN(step0) || math.IsInf(step0, 0) {
		return 0
	}
	power := math.Floor(math.Log10(step0))
	errRatio := step0 / math.Pow(10, power)
	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}
	return factor * math.Pow(10, power)
}

// Ticks returns the multiples of TickStep(lo, hi, count) within [lo, hi].
func Ticks(lo, hi float64, count int) []float64 {
	if lo == hi {
		return []float64{lo}
	}
	step := TickStep(lo, hi, count)
	if step == 0 {
		return nil
	}
	start := math.Ceil(lo / step)
	stop := math.Floor(hi / step)
	out := make([]float64, 0, int(stop-start)+1)
	for i := start; i <= stop; i++ {
		out = append(out, i*step)
	}
	return out
}

// Band splits [R0, R1] into n equal bands separated by Padding (a fraction of
// the step) with the same padding outside the first and last band.
type Band struct {
	N       int
	R0, R1  float64
	Padding float64
}

func (b Band) step() float64 {
	return (b.R1 - b.R0) / math.Max(1, float64(b.N)-b.Padding+2*b.Padding)
}

// Start returns the start of band i.
func (b Band) Start(i int) float64 {
	step := b.step()
	offset := (b.R1 - b.R0 - step*(float64(b.N)-b.Padding)) / 2
	return b.R0 + offset + step*float64(i)
}

// Width returns the width of every band.
func (b Band) Width() float64 {
	return b.step() * (1 - b.Padding)
}

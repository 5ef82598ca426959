package optim

import "math"

type boundKind uint8

const (
	free boundKind = iota
	lowerOnly
	upperOnly
	twoSided
)

// transform maps an unconstrained search vector u onto the box described by
// the bounds. Each coordinate is handled independently:
//
//	lower only:  x = lo + exp(u)
//	upper only:  x = hi - exp(u)
//	two sided:   x = lo + (hi-lo) / (1 + exp(-u))
type transform struct {
	kinds  []boundKind
	bounds []Bound
}

func newTransform(bounds []Bound, dim int) transform {
	t := transform{kinds: make([]boundKind, dim), bounds: make([]Bound, dim)}
	for i := 0; i < dim; i++ {
		b := Unbounded()
		if i < len(bounds) {
			b = bounds[i]
		}
		t.bounds[i] = b
		lo, hi := !math.IsInf(b.Lo, -1), !math.IsInf(b.Hi, 1)
		switch {
		case lo && hi:
			t.kinds[i] = twoSided
		case lo:
			t.kinds[i] = lowerOnly
		case hi:
			t.kinds[i] = upperOnly
		}
	}
	return t
}

func (t transform) toBox(dst, u []float64) {
	for i, ui := range u {
		b := t.bounds[i]
		switch t.kinds[i] {
		case lowerOnly:
			dst[i] = b.Lo + math.Exp(ui)
		case upperOnly:
			dst[i] = b.Hi - math.Exp(ui)
		case twoSided:
			dst[i] = b.Lo + (b.Hi-b.Lo)*logistic(ui)
		default:
			dst[i] = ui
		}
	}
}

func (t transform) fromBox(dst, x []float64) {
	for i, xi := range x {
		b := t.bounds[i]
		switch t.kinds[i] {
		case lowerOnly:
			dst[i] = math.Log(xi - b.Lo)
		case upperOnly:
			dst[i] = math.Log(b.Hi - xi)
		case twoSided:
			dst[i] = math.Log((xi - b.Lo) / (b.Hi - xi))
		default:
			dst[i] = xi
		}
	}
}

// chain converts a gradient with respect to x into one with respect to u.
func (t transform) chain(grad, u []float64) {
	for i, ui := range u {
		b := t.bounds[i]
		switch t.kinds[i] {
		case lowerOnly:
			grad[i] *= math.Exp(ui)
		case upperOnly:
			grad[i] *= -math.Exp(ui)
		case twoSided:
			s := logistic(ui)
			grad[i] *= (b.Hi - b.Lo) * s * (1 - s)
		}
	}
}

func logistic(u float64) float64 {
	if u >= 0 {
		return 1 / (1 + math.Exp(-u))
	}
	e := math.Exp(u)
	return e / (1 + e)
}

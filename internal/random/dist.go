package random

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution describes a sampling distribution with a known mean.
type Distribution interface {
	String() string
	Mean() float64
	Fill(src rand.Source, dst []float64)
}

// NormalDist is N(Mu, Sigma²).
type NormalDist struct {
	Mu, Sigma float64
}

func (d NormalDist) String() string { return fmt.Sprintf("normal:%g,%g", d.Mu, d.Sigma) }
func (d NormalDist) Mean() float64 { return d.Mu }

func (d NormalDist) Fill(src rand.Source, dst []float64) {
	n := distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: src}
	for i := range dst {
		dst[i] = n.Rand()
	}
}

// PoissonDist is Poisson(Lambda).
type PoissonDist struct {
	Lambda float64
}

func (d PoissonDist) String() string { return fmt.Sprintf("poisson:%g", d.Lambda) }
func (d PoissonDist) Mean() float64 { return d.Lambda }

func (d PoissonDist) Fill(src rand.Source, dst []float64) {
	p := distuv.Poisson{Lambda: d.Lambda, Src: src}
	for i := range dst {
		dst[i] = p.Rand()
	}
}

// ExponentialDist is Exponential(Rate), a skewed case for coverage studies.
type ExponentialDist struct {
	Rate float64
}

func (d ExponentialDist) String() string { return fmt.Sprintf("exponential:%g", d.Rate) }
func (d ExponentialDist) Mean() float64 { return 1 / d.Rate }

func (d ExponentialDist) Fill(src rand.Source, dst []float64) {
	e := distuv.Exponential{Rate: d.Rate, Src: src}
	for i := range dst {
		dst[i] = e.Rand()
	}
}

// ParseDistribution reads "normal:mu,sigma", "poisson:lambda" or
// "exponential:rate". Missing normal parameters default to 0 and 1.
func ParseDistribution(s string) (Distribution, error) {
	name, args, _ := strings.Cut(strings.TrimSpace(s), ":")
	var vals []float64
	if strings.TrimSpace(args) != "" {
		for _, a := range strings.Split(args, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDistribution, s, err)
			}
			vals = append(vals, v)
		}
	}
	switch strings.ToLower(name) {
	case "normal", "gaussian":
		d := NormalDist{Mu: 0, Sigma: 1}
		switch len(vals) {
		case 0:
		case 2:
			d.Mu, d.Sigma = vals[0], vals[1]
		default:
			return nil, fmt.Errorf("%w: normal takes mu,sigma", ErrInvalidDistribution)
		}
		if !(d.Sigma > 0) {
			return nil, fmt.Errorf("%w: sigma must be positive", ErrInvalidDistribution)
		}
		return d, nil
	case "poisson":
		if len(vals) != 1 || !(vals[0] > 0) {
			return nil, fmt.Errorf("%w: poisson takes one positive rate", ErrInvalidDistribution)
		}
		return PoissonDist{Lambda: vals[0]}, nil
	case "exponential", "exp":
		if len(vals) != 1 || !(vals[0] > 0) {
			return nil, fmt.Errorf("%w: exponential takes one positive rate", ErrInvalidDistribution)
		}
		return ExponentialDist{Rate: vals[0]}, nil
	default:
		return nil, fmt.Errorf("%w: unknown distribution %q", ErrInvalidDistribution, name)
	}
}

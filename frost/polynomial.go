package frost

import (
	"fmt"
	"io"

	"github.com/f3rmion/frostkit/group"
)

// Polynomial is a secret polynomial over the scalar field. The constant
// term is the owner's secret contribution.
type Polynomial struct {
	g      group.Group
	coeffs []group.Scalar
}

// NewPolynomial wraps coefficients, constant term first.
func NewPolynomial(g group.Group, coeffs []group.Scalar) (*Polynomial, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("%w: polynomial has no coefficients", ErrMalformed)
	}
	return &Polynomial{g: g, coeffs: coeffs}, nil
}

// randomPolynomial draws t random coefficients.
func randomPolynomial(g group.Group, t int, r io.Reader) (*Polynomial, error) {
	coeffs := make([]group.Scalar, t)
	for i := range coeffs {
		c, err := g.RandomScalar(r)
		if err != nil {
			zeroize(g, coeffs...)
			return nil, err
		}
		coeffs[i] = c
	}
	return &Polynomial{g: g, coeffs: coeffs}, nil
}

// Degree returns the polynomial degree.
func (p *Polynomial) Degree() int { return len(p.coeffs) - 1 }

// Secret returns the constant term.
func (p *Polynomial) Secret() group.Scalar { return p.coeffs[0] }

// Eval evaluates p at x using Horner's method. Evaluating at zero would
// reveal the secret, so x = 0 is rejected.
func (p *Polynomial) Eval(x group.Scalar) (group.Scalar, error) {
	if x.IsZero() {
		return nil, fmt.Errorf("%w: evaluation at zero", ErrInvalidIdentifier)
	}
	result := p.g.NewScalar().Set(p.coeffs[len(p.coeffs)-1])
	for i := len(p.coeffs) - 2; i >= 0; i-- {
		result = p.g.NewScalar().Mul(result, x)
		result = p.g.NewScalar().Add(result, p.coeffs[i])
	}
	return result, nil
}

// Commit returns the Feldman commitment: each coefficient times G.
func (p *Polynomial) Commit() []group.Point {
	commits := make([]group.Point, len(p.coeffs))
	for i, c := range p.coeffs {
		commits[i] = p.g.NewPoint().ScalarMult(c, p.g.Generator())
	}
	return commits
}

func (p *Polynomial) zeroize() {
	zeroize(p.g, p.coeffs...)
}

// evalCommitment computes sum(commitment[k] * x^k), the public image of
// the committed polynomial at x.
func evalCommitment(g group.Group, commitment []group.Point, x group.Scalar) group.Point {
	result := g.NewPoint().Set(commitment[len(commitment)-1])
	for i := len(commitment) - 2; i >= 0; i-- {
		result = g.NewPoint().ScalarMult(x, result)
		result = g.NewPoint().Add(result, commitment[i])
	}
	return result
}

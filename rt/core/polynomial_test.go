package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegendre(t *testing.T) {
	assert.InDeltaSlice(t, []float64{1}, Legendre(0).Coeffs, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 1}, Legendre(1).Coeffs, 1e-12)
	assert.InDeltaSlice(t, []float64{-0.5, 0, 1.5}, Legendre(2).Coeffs, 1e-12)
	assert.InDeltaSlice(t, []float64{0, -1.5, 0, 2.5}, Legendre(3).Coeffs, 1e-12)

	// P_l(1) = 1 for every l
	for l := 0; l < 8; l++ {
		assert.InDelta(t, 1.0, Legendre(l).Evaluate(1), 1e-9, "l=%d", l)
	}
}

func TestLaguerre(t *testing.T) {
	assert.InDeltaSlice(t, []float64{1, -1}, Laguerre(1).Coeffs, 1e-12)
	assert.InDeltaSlice(t, []float64{1, -2, 0.5}, Laguerre(2).Coeffs, 1e-12)
	// L_n(0) = 1
	for n := 0; n < 8; n++ {
		assert.InDelta(t, 1.0, Laguerre(n).Evaluate(0), 1e-9, "n=%d", n)
	}
}

func TestPolynomialDerivative(t *testing.T) {
	p := NewPolynomial(1, 2, 3, 4) // 1 + 2x + 3x^2 + 4x^3
	assert.Equal(t, []float64{2, 6, 12}, p.Derivative().Coeffs)
	assert.Equal(t, []float64{24}, p.DerivativeN(3).Coeffs)
	assert.Equal(t, -1, p.DerivativeN(4).Degree())
	assert.Equal(t, 3, p.Degree())
	assert.InDelta(t, 1+2*2+3*4+4*8.0, p.Evaluate(2), 1e-12)
}

package core

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidQuantumNumbers = errors.New("invalid quantum numbers")

// Psi evaluates the hydrogen-like orbital psi_nlm in closed form at Cartesian coordinates
// (atomic units). The radial and angular polynomials are derived once at construction.
type Psi struct {
	N, L, M int

	radialScale float64 // rho = radialScale * r
	radialNorm  float64
	angularNorm float64
	sinPower    float64 // exponent applied to (1 - cos^2)

	legendre Polynomial // (-1)^|m| d^|m|/dx^|m| P_l
	laguerre Polynomial // (-1)^p d^p/dx^p L_{p+q}, the associated Laguerre L^p_q
}

func factorial(k int) float64 {
	return math.Gamma(float64(k) + 1)
}

// NewPsi requires n >= 1, 0 <= l < n and |m| <= l.
func NewPsi(n, l, m int) (*Psi, error) {
	if n < 1 || l < 0 || l >= n || m < -l || m > l {
		return nil, fmt.Errorf("%w: n=%d l=%d m=%d", ErrInvalidQuantumNumbers, n, l, m)
	}
	am := m
	if am < 0 {
		am = -am
	}

	p := 2*l + 1
	q := n - l - 1
	r := 2.0 / float64(n)

	radialNorm := math.Sqrt(r * r * r * factorial(q) / (2 * float64(n) * factorial(n+l)))
	angularNorm := math.Sqrt(float64(p) / (4 * math.Pi) * factorial(l-am) / factorial(l+am))

	return &Psi{
		N:           n,
		L:           l,
		M:           m,
		radialScale: r,
		radialNorm:  radialNorm,
		angularNorm: angularNorm,
		sinPower:    0.5 * float64(am),
		legendre:    Legendre(l).DerivativeN(am).Scale(math.Pow(-1, float64(am))),
		laguerre:    Laguerre(p + q).DerivativeN(p).Scale(math.Pow(-1, float64(p))),
	}, nil
}

// At returns the complex amplitude at a single point.
func (psi *Psi) At(x, y, z float64) complex128 {
	rxy2 := x*x + y*y
	r := math.Sqrt(rxy2 + z*z)
	rho := math.Abs(r) * psi.radialScale

	radial := psi.laguerre.Evaluate(rho) * psi.radialNorm *
		math.Pow(rho, float64(psi.L)) *
		math.Exp(-rho/2)

	cosTheta := 1.0
	if r > 0 {
		cosTheta = z / r
	}
	if math.Abs(cosTheta) >= 1 {
		cosTheta = math.Copysign(1, cosTheta)
	}
	angular := psi.legendre.Evaluate(cosTheta) *
		math.Pow(1-cosTheta*cosTheta, psi.sinPower) *
		psi.angularNorm

	return psi.phase(x, y, rxy2) * complex(angular*radial, 0)
}

// phase computes e^{i m phi} as ((x + iy) / |x + iy|)^m without inverse trigonometry.
func (psi *Psi) phase(x, y, rxy2 float64) complex128 {
	if psi.M == 0 || rxy2 == 0 {
		return 1
	}
	inv := 1 / math.Sqrt(rxy2)
	w := complex(x*inv, y*inv)
	n := psi.M
	if n < 0 {
		w = complex(real(w), -imag(w))
		n = -n
	}
	out := complex(1, 0)
	for i := 0; i < n; i++ {
		out *= w
	}
	return out
}

// Eval evaluates a batch of points given as three equal-length coordinate slices.
func (psi *Psi) Eval(xs, ys, zs []float64) ([]complex128, error) {
	if len(xs) != len(ys) || len(xs) != len(zs) {
		return nil, fmt.Errorf("psi eval: coordinate lengths differ (%d, %d, %d)", len(xs), len(ys), len(zs))
	}
	out := make([]complex128, len(xs))
	for i := range xs {
		out[i] = psi.At(xs[i], ys[i], zs[i])
	}
	return out, nil
}

// Density is the squared magnitude of the amplitude.
func (psi *Psi) Density(x, y, z float64) float64 {
	return SquaredMagnitude(psi.At(x, y, z))
}

func SquaredMagnitude(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

func (psi *Psi) String() string {
	return fmt.Sprintf("psi(n=%d, l=%d, m=%d)", psi.N, psi.L, psi.M)
}

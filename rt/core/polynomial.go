package core

// Polynomial is a real polynomial with coefficients in ascending order of degree:
// Coeffs[i] multiplies x^i.
type Polynomial struct {
	Coeffs []float64
}

func NewPolynomial(coeffs ...float64) Polynomial {
	c := make([]float64, len(coeffs))
	copy(c, coeffs)
	return Polynomial{Coeffs: c}.trim()
}

func (p Polynomial) trim() Polynomial {
	n := len(p.Coeffs)
	for n > 1 && p.Coeffs[n-1] == 0 {
		n--
	}
	p.Coeffs = p.Coeffs[:n]
	return p
}

// Degree returns -1 for the zero polynomial.
func (p Polynomial) Degree() int {
	if len(p.Coeffs) == 0 || (len(p.Coeffs) == 1 && p.Coeffs[0] == 0) {
		return -1
	}
	return len(p.Coeffs) - 1
}

// Evaluate uses Horner's scheme.
func (p Polynomial) Evaluate(x float64) float64 {
	var acc float64
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		acc = acc*x + p.Coeffs[i]
	}
	return acc
}

func (p Polynomial) Derivative() Polynomial {
	if len(p.Coeffs) <= 1 {
		return Polynomial{Coeffs: []float64{0}}
	}
	d := make([]float64, len(p.Coeffs)-1)
	for i := 1; i < len(p.Coeffs); i++ {
		d[i-1] = float64(i) * p.Coeffs[i]
	}
	return Polynomial{Coeffs: d}.trim()
}

// DerivativeN differentiates n times.
func (p Polynomial) DerivativeN(n int) Polynomial {
	d := p
	for i := 0; i < n; i++ {
		d = d.Derivative()
	}
	return d
}

func (p Polynomial) Scale(s float64) Polynomial {
	c := make([]float64, len(p.Coeffs))
	for i, v := range p.Coeffs {
		c[i] = v * s
	}
	return Polynomial{Coeffs: c}.trim()
}

func (p Polynomial) Add(q Polynomial) Polynomial {
	n := max(len(p.Coeffs), len(q.Coeffs))
	c := make([]float64, n)
	for i := range c {
		if i < len(p.Coeffs) {
			c[i] += p.Coeffs[i]
		}
		if i < len(q.Coeffs) {
			c[i] += q.Coeffs[i]
		}
	}
	return Polynomial{Coeffs: c}.trim()
}

func (p Polynomial) Mul(q Polynomial) Polynomial {
	if len(p.Coeffs) == 0 || len(q.Coeffs) == 0 {
		return Polynomial{Coeffs: []float64{0}}
	}
	c := make([]float64, len(p.Coeffs)+len(q.Coeffs)-1)
	for i, a := range p.Coeffs {
		for j, b := range q.Coeffs {
			c[i+j] += a * b
		}
	}
	return Polynomial{Coeffs: c}.trim()
}

// Legendre returns P_l using Bonnet's recursion.
func Legendre(l int) Polynomial {
	prev := NewPolynomial(1)
	if l == 0 {
		return prev
	}
	curr := NewPolynomial(0, 1)
	x := NewPolynomial(0, 1)
	for k := 1; k < l; k++ {
		// (k+1) P_{k+1} = (2k+1) x P_k - k P_{k-1}
		next := x.Mul(curr).Scale(float64(2*k + 1)).Add(prev.Scale(-float64(k)))
		prev, curr = curr, next.Scale(1/float64(k+1))
	}
	return curr
}

// Laguerre returns the ordinary Laguerre polynomial L_n.
func Laguerre(n int) Polynomial {
	prev := NewPolynomial(1)
	if n == 0 {
		return prev
	}
	curr := NewPolynomial(1, -1)
	for k := 1; k < n; k++ {
		// (k+1) L_{k+1} = (2k+1-x) L_k - k L_{k-1}
		next := NewPolynomial(float64(2*k+1), -1).Mul(curr).Add(prev.Scale(-float64(k)))
		prev, curr = curr, next.Scale(1/float64(k+1))
	}
	return curr
}

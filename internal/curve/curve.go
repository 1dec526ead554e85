// curve.go - Stark curve arithmetic over math/big.
//
// Implements the short-Weierstrass group law for y^2 = x^3 + A*x + B over the
// 252-bit Stark prime, with explicit branches for the identity, negation and
// doubling cases. Every point returned by this package satisfies the curve
// equation or is the infinity sentinel (0, 0).

package curve

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrInvalidPoint is returned when coordinates do not satisfy the curve equation.
	ErrInvalidPoint = errors.New("curve: point is not on the curve")
	// ErrNotInvertible is returned when a modular inverse does not exist.
	ErrNotInvertible = errors.New("curve: value is not invertible")
	// ErrNoSquareRoot is returned when a field element has no square root.
	ErrNoSquareRoot = errors.New("curve: no square root in field")
)

// Stark curve parameters. The base point G generates the full prime-order
// group; H is the Pedersen shift point, published independently of G so that
// nobody knows log_G(H).
var (
	// P is the field prime 2^251 + 17*2^192 + 1.
	P, _ = new(big.Int).SetString("3618502788666131213697322783095070105623107215331596699973092056135872020481", 10)
	// N is the group order.
	N, _ = new(big.Int).SetString("3618502788666131213697322783095070105526743751716087489154079457884512865583", 10)
	// A and B are the curve equation coefficients.
	A = big.NewInt(1)
	B, _ = new(big.Int).SetString("3141592653589793238462643383279502884197169399375105820974944592307816406665", 10)

	gX, _ = new(big.Int).SetString("874739451078007766457464989774322083649278607533249481151382481072868806602", 10)
	gY, _ = new(big.Int).SetString("152666792071518830868575557812948353041420400780739481342941381225525861407", 10)
	hX, _ = new(big.Int).SetString("2089986280348253421170679821480865132823066470938446095505822317253594081284", 10)
	hY, _ = new(big.Int).SetString("1713931329540660377023406109199410414810705867260802078187082345529207694986", 10)
)

// Point is an affine curve point. The zero value of both coordinates is the
// point at infinity.
type Point struct {
	X *big.Int
	Y *big.Int
}

// Infinity returns the point-at-infinity sentinel.
func Infinity() Point {
	return Point{X: big.NewInt(0), Y: big.NewInt(0)}
}

// Gen returns a copy of the base point G.
func Gen() Point {
	return Point{X: new(big.Int).Set(gX), Y: new(big.Int).Set(gY)}
}

// GenH returns a copy of the secondary generator H.
func GenH() Point {
	return Point{X: new(big.Int).Set(hX), Y: new(big.Int).Set(hY)}
}

// NewPoint builds a point from coordinates, rejecting anything off-curve.
func NewPoint(x, y *big.Int) (Point, error) {
	p := Point{X: Mod(x, P), Y: Mod(y, P)}
	if !IsOnCurve(p) {
		return Point{}, fmt.Errorf("%w: (%s, %s)", ErrInvalidPoint, x, y)
	}
	return p, nil
}

// IsInfinity reports whether p is the infinity sentinel.
func (p Point) IsInfinity() bool {
	return p.X != nil && p.Y != nil && p.X.Sign() == 0 && p.Y.Sign() == 0
}

// Equal reports coordinate equality.
func (p Point) Equal(q Point) bool {
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Clone returns an independent copy of p.
func (p Point) Clone() Point {
	return Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}

// Mod returns a mod m in [0, m), correct for negative a.
func Mod(a, m *big.Int) *big.Int {
	r := new(big.Int).Mod(a, m)
	if r.Sign() < 0 {
		r.Add(r, m)
	}
	return r
}

// ModInverse returns a^-1 mod m via the extended Euclidean algorithm.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	g := new(big.Int)
	x := new(big.Int)
	g.GCD(x, nil, Mod(a, m), m)
	if g.Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("%w: gcd(%s, m) = %s", ErrNotInvertible, a, g)
	}
	return Mod(x, m), nil
}

// ModPow returns base^exp mod m by square-and-multiply. exp must be
// non-negative; m = 1 yields 0.
func ModPow(base, exp, m *big.Int) *big.Int {
	if m.Cmp(big.NewInt(1)) == 0 {
		return big.NewInt(0)
	}
	result := big.NewInt(1)
	b := Mod(base, m)
	for i := exp.BitLen() - 1; i >= 0; i-- {
		result.Mul(result, result)
		result.Mod(result, m)
		if exp.Bit(i) == 1 {
			result.Mul(result, b)
			result.Mod(result, m)
		}
	}
	return result
}

// IsOnCurve checks y^2 = x^3 + A*x + B (mod P). Infinity counts as on-curve.
func IsOnCurve(p Point) bool {
	if p.X == nil || p.Y == nil {
		return false
	}
	if p.IsInfinity() {
		return true
	}
	if p.X.Sign() < 0 || p.X.Cmp(P) >= 0 || p.Y.Sign() < 0 || p.Y.Cmp(P) >= 0 {
		return false
	}
	left := new(big.Int).Mul(p.Y, p.Y)
	left.Mod(left, P)
	right := rhs(p.X)
	return left.Cmp(right) == 0
}

// rhs evaluates x^3 + A*x + B mod P.
func rhs(x *big.Int) *big.Int {
	r := new(big.Int).Mul(x, x)
	r.Mul(r, x)
	ax := new(big.Int).Mul(A, x)
	r.Add(r, ax)
	r.Add(r, B)
	return r.Mod(r, P)
}

// Negate returns -p.
func Negate(p Point) Point {
	if p.IsInfinity() {
		return Infinity()
	}
	return Point{X: new(big.Int).Set(p.X), Y: Mod(new(big.Int).Neg(p.Y), P)}
}

// Add computes p + q under the affine group law.
func Add(p, q Point) Point {
	if p.IsInfinity() {
		return q.Clone()
	}
	if q.IsInfinity() {
		return p.Clone()
	}
	if p.X.Cmp(q.X) == 0 {
		ySum := Mod(new(big.Int).Add(p.Y, q.Y), P)
		if ySum.Sign() == 0 {
			return Infinity()
		}
		return Double(p)
	}
	// s = (y2 - y1) / (x2 - x1)
	num := new(big.Int).Sub(q.Y, p.Y)
	den := new(big.Int).Sub(q.X, p.X)
	denInv, err := ModInverse(den, P)
	if err != nil {
		// x1 != x2 implies the denominator is invertible mod a prime.
		panic("curve: addition slope denominator not invertible")
	}
	s := Mod(new(big.Int).Mul(num, denInv), P)
	return chord(p, q, s)
}

// Double computes 2p via the tangent slope.
func Double(p Point) Point {
	if p.IsInfinity() || p.Y.Sign() == 0 {
		return Infinity()
	}
	// s = (3x^2 + A) / (2y)
	num := new(big.Int).Mul(p.X, p.X)
	num.Mul(num, big.NewInt(3))
	num.Add(num, A)
	den := new(big.Int).Lsh(p.Y, 1)
	denInv, err := ModInverse(den, P)
	if err != nil {
		panic("curve: doubling slope denominator not invertible")
	}
	s := Mod(new(big.Int).Mul(num, denInv), P)
	return chord(p, p, s)
}

// chord completes the addition law given the slope s through p and q.
func chord(p, q Point, s *big.Int) Point {
	x3 := new(big.Int).Mul(s, s)
	x3.Sub(x3, p.X)
	x3.Sub(x3, q.X)
	x3 = Mod(x3, P)
	y3 := new(big.Int).Sub(p.X, x3)
	y3.Mul(y3, s)
	y3.Sub(y3, p.Y)
	y3 = Mod(y3, P)
	return Point{X: x3, Y: y3}
}

// ScalarMult computes k*p by double-and-add. k is reduced mod the group
// order first; negative k multiplies the negated point by |k|.
func ScalarMult(k *big.Int, p Point) Point {
	if p.IsInfinity() {
		return Infinity()
	}
	scalar := new(big.Int).Set(k)
	base := p
	if scalar.Sign() < 0 {
		scalar.Neg(scalar)
		base = Negate(p)
	}
	scalar.Mod(scalar, N)
	if scalar.Sign() == 0 {
		return Infinity()
	}
	acc := Infinity()
	for i := scalar.BitLen() - 1; i >= 0; i-- {
		acc = Double(acc)
		if scalar.Bit(i) == 1 {
			acc = Add(acc, base)
		}
	}
	return acc
}

// Subtract computes p - q.
func Subtract(p, q Point) Point {
	return Add(p, Negate(q))
}

// BaseMult computes k*G.
func BaseMult(k *big.Int) Point {
	return ScalarMult(k, Gen())
}

// HMult computes k*H.
func HMult(k *big.Int) Point {
	return ScalarMult(k, GenH())
}

// Sqrt returns a square root of a mod P, or ErrNoSquareRoot if a is a
// non-residue. The other root is P minus the returned value.
func Sqrt(a *big.Int) (*big.Int, error) {
	r := new(big.Int).ModSqrt(Mod(a, P), P)
	if r == nil {
		return nil, ErrNoSquareRoot
	}
	return r, nil
}

// YFromX recovers a y coordinate for x, if x is on the curve.
func YFromX(x *big.Int) (*big.Int, error) {
	y, err := Sqrt(rhs(Mod(x, P)))
	if err != nil {
		return nil, fmt.Errorf("%w: x has no point", ErrInvalidPoint)
	}
	return y, nil
}

// RandomScalar draws a uniform non-zero scalar in [1, N) from crypto/rand.
func RandomScalar() (*big.Int, error) {
	for {
		k, err := rand.Int(rand.Reader, N)
		if err != nil {
			return nil, fmt.Errorf("curve: reading randomness: %w", err)
		}
		if k.Sign() != 0 {
			return k, nil
		}
	}
}

// RandomFelt draws a uniform field element in [0, P).
func RandomFelt() (*big.Int, error) {
	v, err := rand.Int(rand.Reader, P)
	if err != nil {
		return nil, fmt.Errorf("curve: reading randomness: %w", err)
	}
	return v, nil
}

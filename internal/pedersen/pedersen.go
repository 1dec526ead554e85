// pedersen.go - Pedersen commitments over the Stark curve.
//
// C = v*G + r*H. Hiding is unconditional; binding holds as long as nobody
// knows log_G(H), which is why H is the independently published shift point
// and never derived from G inside this codebase.

package pedersen

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/felthash"
)

// ErrInvalidCommitment is returned when a commitment point is malformed.
var ErrInvalidCommitment = errors.New("pedersen: invalid commitment")

// Commitment is a single curve point v*G + r*H.
type Commitment struct {
	Point curve.Point
}

// Commit computes v*G + r*H. Deterministic for fixed (v, r); both scalars
// are reduced mod the group order.
func Commit(v, r *big.Int) Commitment {
	vg := curve.BaseMult(v)
	rh := curve.HMult(r)
	return Commitment{Point: curve.Add(vg, rh)}
}

// VerifyOpening recomputes the commitment and compares.
func VerifyOpening(c Commitment, v, r *big.Int) bool {
	if !curve.IsOnCurve(c.Point) {
		return false
	}
	return Commit(v, r).Point.Equal(c.Point)
}

// AddCommitments satisfies C(a, r1) + C(b, r2) = C(a+b, r1+r2 mod n).
func AddCommitments(a, b Commitment) Commitment {
	return Commitment{Point: curve.Add(a.Point, b.Point)}
}

// SubtractCommitments computes a - b.
func SubtractCommitments(a, b Commitment) Commitment {
	return Commitment{Point: curve.Subtract(a.Point, b.Point)}
}

// ScalarMultCommitment computes k*C = C(k*v, k*r mod n).
func ScalarMultCommitment(k *big.Int, c Commitment) Commitment {
	return Commitment{Point: curve.ScalarMult(k, c.Point)}
}

// Equal reports point equality.
func (c Commitment) Equal(o Commitment) bool {
	return c.Point.Equal(o.Point)
}

// ToFelts renders the commitment as the fixed [x, y] hex pair.
func (c Commitment) ToFelts() []string {
	return curve.PointToFelts(c.Point)
}

// FromFelts parses the fixed [x, y] hex pair.
func FromFelts(felts []string) (Commitment, error) {
	p, err := curve.PointFromFelts(felts)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment{Point: p}, nil
}

// CommitmentToFelt collapses a commitment point into the single felt the
// chain uses as a leaf identifier: H(tag, x, y).
func CommitmentToFelt(s felthash.Scheme, c Commitment) (*big.Int, error) {
	if !curve.IsOnCurve(c.Point) {
		return nil, fmt.Errorf("%w: off-curve point", ErrInvalidCommitment)
	}
	return felthash.HashWithDomain(s, felthash.TagCommitID, c.Point.X, c.Point.Y)
}

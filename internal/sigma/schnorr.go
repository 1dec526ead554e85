// schnorr.go - Schnorr proofs of discrete-log knowledge, Fiat-Shamir style.
//
// The proof carries only the nonce commitment and the response; the verifier
// recomputes the challenge from the transcript, so a transplanted challenge
// cannot pass.

package sigma

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/felthash"
)

var (
	// ErrInvalidWitness is returned when the supplied secret does not open
	// the claimed statement.
	ErrInvalidWitness = errors.New("sigma: witness does not match statement")
	// ErrInvalidPoint is returned for malformed statement points.
	ErrInvalidPoint = errors.New("sigma: invalid point")
)

// SchnorrProof proves knowledge of x with result = x*base.
type SchnorrProof struct {
	A curve.Point // nonce commitment k*base
	S *big.Int    // response k + c*x mod n
}

// proveDlog builds a Schnorr proof for result = x*base over any base point.
func proveDlog(s felthash.Scheme, base, result curve.Point, x *big.Int) (*SchnorrProof, error) {
	if !curve.IsOnCurve(base) || base.IsInfinity() || !curve.IsOnCurve(result) {
		return nil, ErrInvalidPoint
	}
	if !curve.ScalarMult(x, base).Equal(result) {
		return nil, ErrInvalidWitness
	}
	k, err := curve.RandomScalar()
	if err != nil {
		return nil, err
	}
	a := curve.ScalarMult(k, base)
	c, err := dlogChallenge(s, base, result, a)
	if err != nil {
		return nil, err
	}
	resp := new(big.Int).Mul(c, x)
	resp.Add(resp, k)
	return &SchnorrProof{A: a, S: curve.Mod(resp, curve.N)}, nil
}

// verifyDlog checks s*base = A + c*result with the challenge recomputed.
func verifyDlog(s felthash.Scheme, base, result curve.Point, proof *SchnorrProof) bool {
	if proof == nil || proof.S == nil {
		return false
	}
	if !curve.IsOnCurve(base) || !curve.IsOnCurve(result) || !curve.IsOnCurve(proof.A) {
		return false
	}
	c, err := dlogChallenge(s, base, result, proof.A)
	if err != nil {
		return false
	}
	lhs := curve.ScalarMult(proof.S, base)
	rhs := curve.Add(proof.A, curve.ScalarMult(c, result))
	return lhs.Equal(rhs)
}

func dlogChallenge(s felthash.Scheme, base, result, nonce curve.Point) (*big.Int, error) {
	return felthash.HashToScalar(s, felthash.TagChallenge,
		base.X, base.Y, result.X, result.Y, nonce.X, nonce.Y)
}

// ProveOwnership proves knowledge of sk for pk = sk*G.
func ProveOwnership(s felthash.Scheme, sk *big.Int, pk curve.Point) (*SchnorrProof, error) {
	proof, err := proveDlog(s, curve.Gen(), pk, sk)
	if err != nil {
		return nil, fmt.Errorf("sigma: ownership proof: %w", err)
	}
	return proof, nil
}

// VerifyOwnership verifies an ownership proof against pk. Invalid proofs
// return false; they never error.
func VerifyOwnership(s felthash.Scheme, pk curve.Point, proof *SchnorrProof) bool {
	return verifyDlog(s, curve.Gen(), pk, proof)
}

// ToFelts renders the proof as the fixed [A.x, A.y, s] hex array.
func (p *SchnorrProof) ToFelts() []string {
	return []string{
		curve.FeltToHex(p.A.X),
		curve.FeltToHex(p.A.Y),
		curve.FeltToHex(p.S),
	}
}

// SchnorrFromFelts parses the fixed three-element hex array.
func SchnorrFromFelts(felts []string) (*SchnorrProof, error) {
	if len(felts) != 3 {
		return nil, fmt.Errorf("%w: want 3 felts for a schnorr proof, got %d",
			curve.ErrMalformedSerialization, len(felts))
	}
	a, err := curve.PointFromFelts(felts[0:2])
	if err != nil {
		return nil, err
	}
	sVal, err := curve.HexToFelt(felts[2])
	if err != nil {
		return nil, err
	}
	return &SchnorrProof{A: a, S: sVal}, nil
}

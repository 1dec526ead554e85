// nullifier.go - Nullifier, key-image and view-tag derivation.
//
// Nullifiers are pure deterministic functions of (secret, leafIndex); the
// on-chain verifier enforces uniqueness, this side only has to derive them
// bit-exactly. Key images and view tags use the simplified hash-then-mult
// mapping to the curve; production-grade unlinkability wants a real
// hash-to-curve such as Elligator2 here.

package felthash

import (
	"math/big"

	"shroud/internal/curve"
)

// DeriveNullifier computes H(secret, leafIndex).
func DeriveNullifier(s Scheme, secret *big.Int, leafIndex uint64) (*big.Int, error) {
	return s.Hash(secret, new(big.Int).SetUint64(leafIndex))
}

// DeriveNullifierWithDomain prefixes the standard nullifier domain tag.
func DeriveNullifierWithDomain(s Scheme, secret *big.Int, leafIndex uint64) (*big.Int, error) {
	return HashWithDomain(s, TagNullifier, secret, new(big.Int).SetUint64(leafIndex))
}

// DeriveNullifiers derives one nullifier per leaf index, in order.
func DeriveNullifiers(s Scheme, secret *big.Int, leafIndexes []uint64) ([]*big.Int, error) {
	out := make([]*big.Int, len(leafIndexes))
	for i, idx := range leafIndexes {
		n, err := DeriveNullifier(s, secret, idx)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// DeriveKeyImage computes the ring-signature style key image
// sk * Hp(pk), with Hp(pk) = H(tag, pk.x, pk.y) * G.
func DeriveKeyImage(s Scheme, sk *big.Int, pk curve.Point) (curve.Point, error) {
	if !curve.IsOnCurve(pk) || pk.IsInfinity() {
		return curve.Point{}, curve.ErrInvalidPoint
	}
	t, err := HashToScalar(s, TagKeyImage, pk.X, pk.Y)
	if err != nil {
		return curve.Point{}, err
	}
	base := curve.BaseMult(t)
	return curve.ScalarMult(sk, base), nil
}

// DeriveViewTag compresses a shared point to a single scan byte.
func DeriveViewTag(s Scheme, shared curve.Point) (byte, error) {
	h, err := HashWithDomain(s, TagViewTag, shared.X, shared.Y)
	if err != nil {
		return 0, err
	}
	b := h.Bytes()
	if len(b) == 0 {
		return 0, nil
	}
	return b[len(b)-1], nil
}

// MatchViewTag reports whether the shared point produces the expected tag.
func MatchViewTag(s Scheme, shared curve.Point, tag byte) bool {
	got, err := DeriveViewTag(s, shared)
	if err != nil {
		return false
	}
	return got == tag
}

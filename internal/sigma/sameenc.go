// sameenc.go - Same-plaintext proofs for dual-key ciphertexts.
//
// When one amount is encrypted to two public keys under shared randomness r,
// both ciphertexts carry the same c1 = r*G, and equal plaintexts force
// c2_a - c2_b = r*(pk_a - pk_b). A Chaum-Pedersen equality proof ties the
// two relations to one r, so a sender cannot show the receiver one amount
// and the auditor another.

package sigma

import (
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/elgamal"
	"shroud/internal/felthash"
)

// SameEncryptionProof shows two ciphertexts under different keys hide the
// same plaintext with the same randomness.
type SameEncryptionProof struct {
	A1 curve.Point // nonce commitment k*G
	A2 curve.Point // nonce commitment k*(pk_a - pk_b)
	S  *big.Int    // response k + c*r mod n
}

// GenerateSameEncryptionProof proves ctA and ctB encrypt the same message to
// pkA and pkB under the shared randomness r.
func GenerateSameEncryptionProof(s felthash.Scheme, r *big.Int, pkA, pkB curve.Point, ctA, ctB elgamal.Ciphertext) (*SameEncryptionProof, error) {
	if !curve.IsOnCurve(pkA) || !curve.IsOnCurve(pkB) {
		return nil, ErrInvalidPoint
	}
	if !ctA.C1.Equal(ctB.C1) || !curve.BaseMult(r).Equal(ctA.C1) {
		return nil, ErrInvalidWitness
	}
	baseDiff := curve.Subtract(pkA, pkB)
	c2Diff := curve.Subtract(ctA.C2, ctB.C2)
	if !curve.ScalarMult(r, baseDiff).Equal(c2Diff) {
		return nil, ErrInvalidWitness
	}

	k, err := curve.RandomScalar()
	if err != nil {
		return nil, err
	}
	a1 := curve.BaseMult(k)
	a2 := curve.ScalarMult(k, baseDiff)
	c, err := sameEncChallenge(s, pkA, pkB, ctA, ctB, a1, a2)
	if err != nil {
		return nil, err
	}
	resp := new(big.Int).Mul(c, r)
	resp.Add(resp, k)
	return &SameEncryptionProof{A1: a1, A2: a2, S: curve.Mod(resp, curve.N)}, nil
}

// VerifySameEncryptionProof checks both relations under one recomputed
// challenge.
func VerifySameEncryptionProof(s felthash.Scheme, proof *SameEncryptionProof, pkA, pkB curve.Point, ctA, ctB elgamal.Ciphertext) bool {
	if proof == nil || proof.S == nil {
		return false
	}
	if !curve.IsOnCurve(pkA) || !curve.IsOnCurve(pkB) ||
		!curve.IsOnCurve(proof.A1) || !curve.IsOnCurve(proof.A2) {
		return false
	}
	if !elgamal.VerifyCiphertext(ctA) || !elgamal.VerifyCiphertext(ctB) {
		return false
	}
	if !ctA.C1.Equal(ctB.C1) {
		return false
	}
	c, err := sameEncChallenge(s, pkA, pkB, ctA, ctB, proof.A1, proof.A2)
	if err != nil {
		return false
	}

	// s*G = A1 + c*c1
	lhs1 := curve.BaseMult(proof.S)
	rhs1 := curve.Add(proof.A1, curve.ScalarMult(c, ctA.C1))
	if !lhs1.Equal(rhs1) {
		return false
	}
	// s*(pk_a - pk_b) = A2 + c*(c2_a - c2_b)
	baseDiff := curve.Subtract(pkA, pkB)
	c2Diff := curve.Subtract(ctA.C2, ctB.C2)
	lhs2 := curve.ScalarMult(proof.S, baseDiff)
	rhs2 := curve.Add(proof.A2, curve.ScalarMult(c, c2Diff))
	return lhs2.Equal(rhs2)
}

func sameEncChallenge(s felthash.Scheme, pkA, pkB curve.Point, ctA, ctB elgamal.Ciphertext, a1, a2 curve.Point) (*big.Int, error) {
	return felthash.HashToScalar(s, felthash.TagChallenge,
		pkA.X, pkA.Y, pkB.X, pkB.Y,
		ctA.C1.X, ctA.C1.Y, ctA.C2.X, ctA.C2.Y,
		ctB.C2.X, ctB.C2.Y,
		a1.X, a1.Y, a2.X, a2.Y)
}

// rangeproof.go - Bit-decomposition range proofs with OR-composed branches.
//
// To show 0 <= v < 2^bits without revealing v, each bit gets a Pedersen
// commitment C_i = b_i*G + r_i*H and a two-branch OR proof that C_i opens to
// 0 or 1. The false branch is simulated (its challenge and response chosen
// freely, its nonce commitment solved for), the true branch is answered
// honestly, and the per-bit challenge split e0 + e1 = e_i hides which branch
// was real. The weighted-sum check sum(2^i * C_i) == C_v is what binds the
// bits to the committed value; without it a prover could attach bit
// commitments of an unrelated number.

package sigma

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/felthash"
	"shroud/internal/pedersen"
)

const maxRangeBits = 64

var (
	// ErrOutOfRange is returned when the value exceeds the declared bit width.
	ErrOutOfRange = errors.New("sigma: value out of declared range")
	// ErrBadBitWidth is returned for a non-positive or oversized bit width.
	ErrBadBitWidth = errors.New("sigma: invalid range bit width")
)

// BitProof is the OR proof for one bit commitment.
type BitProof struct {
	C  curve.Point // bit commitment b*G + r*H
	R0 curve.Point // branch-0 nonce commitment (C = r*H)
	R1 curve.Point // branch-1 nonce commitment (C - G = r*H)
	E0 *big.Int
	E1 *big.Int
	S0 *big.Int
	S1 *big.Int
}

// RangeProof proves a commitment opens to a value in [0, 2^bits).
type RangeProof struct {
	Bits []BitProof
}

// orBitBuilder carries the per-bit state between the commit phase and the
// challenge split. One builder per bit, discarded once the proof is emitted.
type orBitBuilder struct {
	bit      uint
	blinding *big.Int
	c        curve.Point
	r0       curve.Point
	r1       curve.Point
	kReal    *big.Int // honest nonce for the true branch
	eFake    *big.Int // pre-chosen challenge for the simulated branch
	sFake    *big.Int // pre-chosen response for the simulated branch
}

// commit runs the first move: honest nonce for the true branch, simulated
// transcript for the false one.
func (b *orBitBuilder) commit() error {
	h := curve.GenH()
	k, err := curve.RandomScalar()
	if err != nil {
		return err
	}
	eFake, err := curve.RandomScalar()
	if err != nil {
		return err
	}
	sFake, err := curve.RandomScalar()
	if err != nil {
		return err
	}
	b.kReal, b.eFake, b.sFake = k, eFake, sFake

	// Branch 0 statement: C = r*H. Branch 1 statement: C - G = r*H.
	stmt0 := b.c
	stmt1 := curve.Subtract(b.c, curve.Gen())
	if b.bit == 0 {
		b.r0 = curve.ScalarMult(k, h)
		// R1 = s1*H - e1*(C - G)
		b.r1 = curve.Subtract(curve.ScalarMult(sFake, h), curve.ScalarMult(eFake, stmt1))
	} else {
		b.r1 = curve.ScalarMult(k, h)
		// R0 = s0*H - e0*C
		b.r0 = curve.Subtract(curve.ScalarMult(sFake, h), curve.ScalarMult(eFake, stmt0))
	}
	return nil
}

// finalize splits the bit challenge between the branches and completes the
// honest response.
func (b *orBitBuilder) finalize(ei *big.Int) BitProof {
	eReal := curve.Mod(new(big.Int).Sub(ei, b.eFake), curve.N)
	sReal := new(big.Int).Mul(eReal, b.blinding)
	sReal.Add(sReal, b.kReal)
	sReal = curve.Mod(sReal, curve.N)

	p := BitProof{C: b.c, R0: b.r0, R1: b.r1}
	if b.bit == 0 {
		p.E0, p.S0 = eReal, sReal
		p.E1, p.S1 = b.eFake, b.sFake
	} else {
		p.E1, p.S1 = eReal, sReal
		p.E0, p.S0 = b.eFake, b.sFake
	}
	return p
}

// GenerateRangeProof proves that Commit(value, blinding) opens to a value in
// [0, 2^bits). Values outside the declared width are rejected here, never
// silently truncated.
func GenerateRangeProof(s felthash.Scheme, value, blinding *big.Int, bits int) (*RangeProof, error) {
	if bits <= 0 || bits > maxRangeBits {
		return nil, fmt.Errorf("%w: %d", ErrBadBitWidth, bits)
	}
	if value.Sign() < 0 || value.BitLen() > bits {
		return nil, fmt.Errorf("%w: value needs %d bits, declared %d", ErrOutOfRange, value.BitLen(), bits)
	}

	// Per-bit blindings that recombine to the overall blinding:
	// sum(2^i * r_i) = blinding mod n. Bit 0 has weight 1, so it absorbs
	// the correction term.
	blindings := make([]*big.Int, bits)
	acc := new(big.Int)
	for i := 1; i < bits; i++ {
		ri, err := curve.RandomScalar()
		if err != nil {
			return nil, err
		}
		blindings[i] = ri
		weighted := new(big.Int).Lsh(ri, uint(i))
		acc.Add(acc, weighted)
	}
	blindings[0] = curve.Mod(new(big.Int).Sub(blinding, acc), curve.N)

	builders := make([]*orBitBuilder, bits)
	for i := 0; i < bits; i++ {
		bld := &orBitBuilder{bit: value.Bit(i), blinding: blindings[i]}
		bld.c = pedersen.Commit(big.NewInt(int64(bld.bit)), blindings[i]).Point
		if err := bld.commit(); err != nil {
			return nil, err
		}
		builders[i] = bld
	}

	commitment := pedersen.Commit(value, blinding)
	agg, err := aggregateChallenge(s, commitment.Point, builders)
	if err != nil {
		return nil, err
	}

	proof := &RangeProof{Bits: make([]BitProof, bits)}
	for i, bld := range builders {
		ei, err := bitChallenge(s, agg, i)
		if err != nil {
			return nil, err
		}
		proof.Bits[i] = bld.finalize(ei)
	}
	return proof, nil
}

// VerifyRangeProof checks the proof against the value commitment. Any
// mismatch returns false; malformed inputs also return false rather than
// panicking mid-batch.
func VerifyRangeProof(s felthash.Scheme, proof *RangeProof, commitment pedersen.Commitment, bits int) bool {
	if proof == nil || len(proof.Bits) != bits || bits <= 0 || bits > maxRangeBits {
		return false
	}
	if !curve.IsOnCurve(commitment.Point) {
		return false
	}
	for i := range proof.Bits {
		bp := &proof.Bits[i]
		if bp.E0 == nil || bp.E1 == nil || bp.S0 == nil || bp.S1 == nil {
			return false
		}
		if !curve.IsOnCurve(bp.C) || !curve.IsOnCurve(bp.R0) || !curve.IsOnCurve(bp.R1) {
			return false
		}
	}

	agg, err := verifierAggregateChallenge(s, commitment.Point, proof.Bits)
	if err != nil {
		return false
	}

	h := curve.GenH()
	g := curve.Gen()
	weighted := curve.Infinity()
	for i := range proof.Bits {
		bp := &proof.Bits[i]

		ei, err := bitChallenge(s, agg, i)
		if err != nil {
			return false
		}
		split := curve.Mod(new(big.Int).Add(bp.E0, bp.E1), curve.N)
		if split.Cmp(ei) != 0 {
			return false
		}

		// s0*H = R0 + e0*C
		lhs0 := curve.ScalarMult(bp.S0, h)
		rhs0 := curve.Add(bp.R0, curve.ScalarMult(bp.E0, bp.C))
		if !lhs0.Equal(rhs0) {
			return false
		}
		// s1*H = R1 + e1*(C - G)
		lhs1 := curve.ScalarMult(bp.S1, h)
		rhs1 := curve.Add(bp.R1, curve.ScalarMult(bp.E1, curve.Subtract(bp.C, g)))
		if !lhs1.Equal(rhs1) {
			return false
		}

		weight := new(big.Int).Lsh(big.NewInt(1), uint(i))
		weighted = curve.Add(weighted, curve.ScalarMult(weight, bp.C))
	}

	// Bind the bits back to the claimed value commitment.
	return weighted.Equal(commitment.Point)
}

func aggregateChallenge(s felthash.Scheme, commitment curve.Point, builders []*orBitBuilder) (*big.Int, error) {
	transcript := make([]*big.Int, 0, 2+6*len(builders))
	transcript = append(transcript, commitment.X, commitment.Y)
	for _, b := range builders {
		transcript = append(transcript, b.c.X, b.c.Y, b.r0.X, b.r0.Y, b.r1.X, b.r1.Y)
	}
	return felthash.HashToScalar(s, felthash.TagChallenge, transcript...)
}

func verifierAggregateChallenge(s felthash.Scheme, commitment curve.Point, bits []BitProof) (*big.Int, error) {
	transcript := make([]*big.Int, 0, 2+6*len(bits))
	transcript = append(transcript, commitment.X, commitment.Y)
	for i := range bits {
		bp := &bits[i]
		transcript = append(transcript, bp.C.X, bp.C.Y, bp.R0.X, bp.R0.Y, bp.R1.X, bp.R1.Y)
	}
	return felthash.HashToScalar(s, felthash.TagChallenge, transcript...)
}

func bitChallenge(s felthash.Scheme, agg *big.Int, index int) (*big.Int, error) {
	return felthash.HashToScalar(s, felthash.TagChallenge, agg, big.NewInt(int64(index)))
}

// ToFelts renders the proof as a flat fixed-order felt array: for each bit,
// [C.x, C.y, R0.x, R0.y, R1.x, R1.y, e0, e1, s0, s1].
func (p *RangeProof) ToFelts() []string {
	out := make([]string, 0, len(p.Bits)*10)
	for i := range p.Bits {
		bp := &p.Bits[i]
		out = append(out,
			curve.FeltToHex(bp.C.X), curve.FeltToHex(bp.C.Y),
			curve.FeltToHex(bp.R0.X), curve.FeltToHex(bp.R0.Y),
			curve.FeltToHex(bp.R1.X), curve.FeltToHex(bp.R1.Y),
			curve.FeltToHex(bp.E0), curve.FeltToHex(bp.E1),
			curve.FeltToHex(bp.S0), curve.FeltToHex(bp.S1),
		)
	}
	return out
}

// RangeProofFromFelts parses the flat felt array produced by ToFelts.
func RangeProofFromFelts(felts []string) (*RangeProof, error) {
	if len(felts) == 0 || len(felts)%10 != 0 {
		return nil, fmt.Errorf("%w: range proof wants a multiple of 10 felts, got %d",
			curve.ErrMalformedSerialization, len(felts))
	}
	bits := len(felts) / 10
	proof := &RangeProof{Bits: make([]BitProof, bits)}
	for i := 0; i < bits; i++ {
		chunk := felts[i*10 : (i+1)*10]
		c, err := curve.PointFromFelts(chunk[0:2])
		if err != nil {
			return nil, err
		}
		r0, err := curve.PointFromFelts(chunk[2:4])
		if err != nil {
			return nil, err
		}
		r1, err := curve.PointFromFelts(chunk[4:6])
		if err != nil {
			return nil, err
		}
		scalars := make([]*big.Int, 4)
		for j, f := range chunk[6:10] {
			v, err := curve.HexToFelt(f)
			if err != nil {
				return nil, err
			}
			scalars[j] = v
		}
		proof.Bits[i] = BitProof{
			C: c, R0: r0, R1: r1,
			E0: scalars[0], E1: scalars[1], S0: scalars[2], S1: scalars[3],
		}
	}
	return proof, nil
}

// balance.go - Balance-preservation proofs for partial withdrawals.
//
// A withdrawal of a public amount from a committed balance publishes
// C_old, C_new and the amount. Defining D = C_old - C_new - amount*G, honest
// commitments give D = (r_old - r_new)*H, so a Schnorr proof of log_H(D)
// shows the values satisfy new = old - amount without opening either
// commitment. The range proof on C_new rules out a negative remainder
// wrapping around the group order.

package sigma

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/felthash"
	"shroud/internal/pedersen"
)

// ErrInsufficientBalance is returned when the withdrawal amount exceeds the
// committed balance.
var ErrInsufficientBalance = errors.New("sigma: withdrawal exceeds balance")

// BalanceProof shows C_new commits to the old balance minus a public amount,
// with the remainder in range.
type BalanceProof struct {
	OldCommitment pedersen.Commitment
	NewCommitment pedersen.Commitment
	Remainder     *RangeProof   // C_new opens to a value in [0, 2^bits)
	Link          *SchnorrProof // knowledge of log_H(C_old - C_new - amount*G)
}

// GenerateBalanceProof proves new = old - amount for a public amount. A fresh
// blinding is drawn for the new commitment and returned so the caller can
// build the replacement note.
func GenerateBalanceProof(s felthash.Scheme, oldValue, amount uint64, oldBlinding *big.Int, bits int) (*BalanceProof, *big.Int, error) {
	if amount > oldValue {
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrInsufficientBalance, amount, oldValue)
	}
	newValue := oldValue - amount

	newBlinding, err := curve.RandomScalar()
	if err != nil {
		return nil, nil, err
	}

	oldC := pedersen.Commit(new(big.Int).SetUint64(oldValue), oldBlinding)
	newC := pedersen.Commit(new(big.Int).SetUint64(newValue), newBlinding)

	remainder, err := GenerateRangeProof(s, new(big.Int).SetUint64(newValue), newBlinding, bits)
	if err != nil {
		return nil, nil, err
	}

	// D = C_old - C_new - amount*G = (r_old - r_new)*H.
	d := curve.Subtract(oldC.Point, newC.Point)
	d = curve.Subtract(d, curve.BaseMult(new(big.Int).SetUint64(amount)))
	delta := curve.Mod(new(big.Int).Sub(oldBlinding, newBlinding), curve.N)
	link, err := proveDlog(s, curve.GenH(), d, delta)
	if err != nil {
		return nil, nil, err
	}

	proof := &BalanceProof{
		OldCommitment: oldC,
		NewCommitment: newC,
		Remainder:     remainder,
		Link:          link,
	}
	return proof, newBlinding, nil
}

// VerifyBalanceProof checks the proof against the public withdrawal amount.
func VerifyBalanceProof(s felthash.Scheme, proof *BalanceProof, amount uint64, bits int) bool {
	if proof == nil || proof.Link == nil {
		return false
	}
	if !curve.IsOnCurve(proof.OldCommitment.Point) || !curve.IsOnCurve(proof.NewCommitment.Point) {
		return false
	}
	d := curve.Subtract(proof.OldCommitment.Point, proof.NewCommitment.Point)
	d = curve.Subtract(d, curve.BaseMult(new(big.Int).SetUint64(amount)))
	if !verifyDlog(s, curve.GenH(), d, proof.Link) {
		return false
	}
	return VerifyRangeProof(s, proof.Remainder, proof.NewCommitment, bits)
}

// note.go - Privacy notes.
//
// A note is the client-side record of one value-hiding leaf: the committed
// value, the blinding, and the nullifier secret revealed (hashed) at spend
// time. The engine creates and consumes notes; persistence and at-rest
// encryption belong to the external note store.

package pedersen

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/elgamal"
)

var (
	// ErrAmountNotRepresentable is returned when an amount cannot be split
	// into the configured denominations.
	ErrAmountNotRepresentable = errors.New("pedersen: amount not representable in denominations")
)

// Note is a value-hiding pool note. LeafIndex stays zero until the external
// store confirms on-chain inclusion; Spent flips once at withdrawal.
type Note struct {
	Value           uint64              `json:"value"`
	Blinding        *big.Int            `json:"blinding"`
	NullifierSecret *big.Int            `json:"nullifierSecret"`
	Commitment      Commitment          `json:"commitment"`
	LeafIndex       uint64              `json:"leafIndex"`
	Spent           bool                `json:"spent"`
	TokenTag        string              `json:"tokenTag"`
	EncryptedAmount *elgamal.Ciphertext `json:"encryptedAmount,omitempty"`
	Randomness      *big.Int            `json:"randomness,omitempty"`
}

// CreateNote draws a fresh blinding and nullifier secret from crypto/rand
// and commits to the value. The note starts unconfirmed (LeafIndex 0).
func CreateNote(value uint64, tokenTag string) (*Note, error) {
	blinding, err := curve.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("pedersen: drawing blinding: %w", err)
	}
	secret, err := curve.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("pedersen: drawing nullifier secret: %w", err)
	}
	return &Note{
		Value:           value,
		Blinding:        blinding,
		NullifierSecret: secret,
		Commitment:      Commit(new(big.Int).SetUint64(value), blinding),
		TokenTag:        tokenTag,
	}, nil
}

// AttachEncryptedAmount records the receiver-facing ciphertext and the
// ephemeral randomness used to build it.
func (n *Note) AttachEncryptedAmount(ct elgamal.Ciphertext, r *big.Int) {
	n.EncryptedAmount = &ct
	n.Randomness = new(big.Int).Set(r)
}

// DefaultDenominations is the fixed denomination ladder for deposits.
var DefaultDenominations = []uint64{1000000, 100000, 10000, 1000, 100, 10, 1}

// SplitDenominations decomposes amount into denomination multiples, largest
// first. The returned slice holds one entry per note to mint.
func SplitDenominations(amount uint64, denoms []uint64) ([]uint64, error) {
	if len(denoms) == 0 {
		denoms = DefaultDenominations
	}
	out := make([]uint64, 0, 8)
	rest := amount
	for _, d := range denoms {
		if d == 0 {
			return nil, fmt.Errorf("pedersen: zero denomination")
		}
		for rest >= d {
			out = append(out, d)
			rest -= d
		}
	}
	if rest != 0 {
		return nil, fmt.Errorf("%w: remainder %d", ErrAmountNotRepresentable, rest)
	}
	return out, nil
}

// CreateDenominationNotes mints one note per denomination unit of amount.
func CreateDenominationNotes(amount uint64, tokenTag string, denoms []uint64) ([]*Note, error) {
	parts, err := SplitDenominations(amount, denoms)
	if err != nil {
		return nil, err
	}
	notes := make([]*Note, len(parts))
	for i, v := range parts {
		n, err := CreateNote(v, tokenTag)
		if err != nil {
			return nil, err
		}
		notes[i] = n
	}
	return notes, nil
}

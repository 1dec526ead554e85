// serialize.go - Wire layout for ciphertexts.
//
// A ciphertext crosses the contract-call boundary as exactly four felts in
// fixed order: c1.x, c1.y, c2.x, c2.y. The ordering is part of the external
// compatibility contract and must not change.

package elgamal

import (
	"fmt"

	"shroud/internal/curve"
)

const ciphertextFelts = 4

// ToFelts renders ct as the fixed four-element hex array.
func (ct Ciphertext) ToFelts() []string {
	return []string{
		curve.FeltToHex(ct.C1.X),
		curve.FeltToHex(ct.C1.Y),
		curve.FeltToHex(ct.C2.X),
		curve.FeltToHex(ct.C2.Y),
	}
}

// FromFelts parses the fixed four-element hex array back into a ciphertext,
// rejecting wrong element counts and off-curve components.
func FromFelts(felts []string) (Ciphertext, error) {
	if len(felts) != ciphertextFelts {
		return Ciphertext{}, fmt.Errorf("%w: want %d felts for a ciphertext, got %d",
			curve.ErrMalformedSerialization, ciphertextFelts, len(felts))
	}
	c1, err := curve.PointFromFelts(felts[0:2])
	if err != nil {
		return Ciphertext{}, err
	}
	c2, err := curve.PointFromFelts(felts[2:4])
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C1: c1, C2: c2}, nil
}

// Compress renders ct as two compressed points.
func (ct Ciphertext) Compress() ([2]string, error) {
	var out [2]string
	c1, err := curve.Compress(ct.C1)
	if err != nil {
		return out, err
	}
	c2, err := curve.Compress(ct.C2)
	if err != nil {
		return out, err
	}
	out[0], out[1] = c1, c2
	return out, nil
}

// Decompress parses two compressed points into a ciphertext.
func Decompress(parts [2]string) (Ciphertext, error) {
	c1, err := curve.Decompress(parts[0])
	if err != nil {
		return Ciphertext{}, err
	}
	c2, err := curve.Decompress(parts[1])
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{C1: c1, C2: c2}, nil
}

// aehint.go - Authenticated amount hints for receivers.
//
// Baby-step giant-step decryption gets expensive as the value bound grows, so
// the sender attaches a symmetric hint alongside each ciphertext: the ElGamal
// randomness doubles as an ECDH secret (r*PK on the sender side, sk*c1 on the
// receiver side), and a MiMC-derived keystream masks the amount. The MAC is
// checked in constant time; a hint that fails it is ignored rather than
// trusted, and the receiver can always fall back to the ciphertext itself.

package aehint

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/elgamal"
	"shroud/internal/felthash"
)

var (
	// ErrInvalidPoint is returned for malformed key or ciphertext points.
	ErrInvalidPoint = errors.New("aehint: invalid point")
)

// Hint is the symmetric amount hint shipped next to a ciphertext.
type Hint struct {
	Encrypted *big.Int `json:"encrypted"`
	Nonce     *big.Int `json:"nonce"`
	Mac       *big.Int `json:"mac"`
}

// CreateHintFromRandomness builds a hint for amount using the same r that
// produced the ciphertext's c1.
func CreateHintFromRandomness(s felthash.Scheme, amount uint64, r *big.Int, receiverPK curve.Point) (*Hint, error) {
	if !curve.IsOnCurve(receiverPK) || receiverPK.IsInfinity() {
		return nil, ErrInvalidPoint
	}
	shared := curve.ScalarMult(r, receiverPK)
	nonce, err := curve.RandomFelt()
	if err != nil {
		return nil, fmt.Errorf("aehint: drawing nonce: %w", err)
	}
	return sealHint(s, amount, shared, nonce)
}

func sealHint(s felthash.Scheme, amount uint64, shared curve.Point, nonce *big.Int) (*Hint, error) {
	encKey, macKey, err := deriveKeys(s, shared, nonce)
	if err != nil {
		return nil, err
	}
	enc := new(big.Int).Xor(new(big.Int).SetUint64(amount), encKey)
	mac, err := s.Hash(macKey, enc, nonce)
	if err != nil {
		return nil, err
	}
	return &Hint{Encrypted: enc, Nonce: nonce, Mac: mac}, nil
}

// DecryptHintFromCiphertext opens the hint with the receiver's secret key and
// the ciphertext's c1. A failed MAC or an out-of-range amount returns
// (0, false); it never guesses.
func DecryptHintFromCiphertext(s felthash.Scheme, hint *Hint, sk *big.Int, c1 curve.Point) (uint64, bool) {
	if hint == nil || hint.Encrypted == nil || hint.Nonce == nil || hint.Mac == nil {
		return 0, false
	}
	if !curve.IsOnCurve(c1) {
		return 0, false
	}
	shared := curve.ScalarMult(sk, c1)
	encKey, macKey, err := deriveKeys(s, shared, hint.Nonce)
	if err != nil {
		return 0, false
	}
	mac, err := s.Hash(macKey, hint.Encrypted, hint.Nonce)
	if err != nil {
		return 0, false
	}
	if !feltEqualConstantTime(mac, hint.Mac) {
		return 0, false
	}
	amount := new(big.Int).Xor(hint.Encrypted, encKey)
	if !amount.IsUint64() {
		return 0, false
	}
	return amount.Uint64(), true
}

// HybridDecrypt tries the hint first and falls back to bounded ciphertext
// decryption when the hint is missing or fails authentication.
func HybridDecrypt(s felthash.Scheme, hint *Hint, ct elgamal.Ciphertext, sk *big.Int, maxValue uint64) (uint64, error) {
	if hint != nil {
		if v, ok := DecryptHintFromCiphertext(s, hint, sk, ct.C1); ok {
			return v, nil
		}
	}
	return elgamal.Decrypt(ct, sk, maxValue)
}

// deriveKeys stretches the ECDH point into independent encryption and MAC
// keys. The two domain tags keep the keystream and the MAC keyspace disjoint.
func deriveKeys(s felthash.Scheme, shared curve.Point, nonce *big.Int) (*big.Int, *big.Int, error) {
	ss, err := s.Hash(shared.X, shared.Y)
	if err != nil {
		return nil, nil, err
	}
	encKey, err := s.Hash(felthash.TagAEKey, ss, nonce)
	if err != nil {
		return nil, nil, err
	}
	macKey, err := s.Hash(felthash.TagAEMac, ss, nonce)
	if err != nil {
		return nil, nil, err
	}
	return encKey, macKey, nil
}

// feltEqualConstantTime compares two felts without early exit. Both sides are
// padded to the field width first so length never leaks.
func feltEqualConstantTime(a, b *big.Int) bool {
	var ab, bb [32]byte
	if a.Sign() < 0 || b.Sign() < 0 || a.BitLen() > 256 || b.BitLen() > 256 {
		return false
	}
	a.FillBytes(ab[:])
	b.FillBytes(bb[:])
	return subtle.ConstantTimeCompare(ab[:], bb[:]) == 1
}

// stealth.go - One-time destination addresses.
//
// Dual-key scheme: the receiver publishes a view key and a spend key. The
// sender derives a fresh address from an ephemeral scalar, and only the view
// key can link the on-chain ephemeral point back to the receiver. The view
// tag is a one-byte prefilter so a scanner skips the scalar multiplication
// for ~255 of 256 foreign outputs.

package stealth

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
	"shroud/internal/felthash"
)

var (
	// ErrInvalidKey is returned for off-curve or infinity public keys.
	ErrInvalidKey = errors.New("stealth: invalid public key")
)

// MetaAddress is the receiver's published key pair.
type MetaAddress struct {
	ViewPK  curve.Point `json:"viewPk"`
	SpendPK curve.Point `json:"spendPk"`
}

// Address is a sender-derived one-time destination. Ephemeral goes on chain
// next to the output; StealthPK is the destination key itself.
type Address struct {
	StealthPK curve.Point `json:"stealthPk"`
	Ephemeral curve.Point `json:"ephemeral"`
	ViewTag   byte        `json:"viewTag"`
}

// Keys holds a receiver's secret key pair.
type Keys struct {
	ViewSK  *big.Int
	SpendSK *big.Int
}

// GenerateKeys draws a fresh view and spend key pair.
func GenerateKeys() (*Keys, *MetaAddress, error) {
	viewSK, err := curve.RandomScalar()
	if err != nil {
		return nil, nil, fmt.Errorf("stealth: drawing view key: %w", err)
	}
	spendSK, err := curve.RandomScalar()
	if err != nil {
		return nil, nil, fmt.Errorf("stealth: drawing spend key: %w", err)
	}
	keys := &Keys{ViewSK: viewSK, SpendSK: spendSK}
	meta := &MetaAddress{
		ViewPK:  curve.BaseMult(viewSK),
		SpendPK: curve.BaseMult(spendSK),
	}
	return keys, meta, nil
}

// DeriveAddress builds a one-time address for the receiver's meta-address.
// Each call draws a fresh ephemeral scalar, so repeated sends to the same
// receiver are unlinkable on chain. The ephemeral scalar r and the shared
// scalar are returned alongside the address so the sender can bind further
// cryptography (amount hints, same-encryption proofs) to the announcement.
func DeriveAddress(s felthash.Scheme, meta MetaAddress) (*Address, *big.Int, *big.Int, error) {
	if err := checkKey(meta.ViewPK); err != nil {
		return nil, nil, nil, err
	}
	if err := checkKey(meta.SpendPK); err != nil {
		return nil, nil, nil, err
	}
	r, err := curve.RandomScalar()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stealth: drawing ephemeral: %w", err)
	}
	shared := curve.ScalarMult(r, meta.ViewPK)
	sc, err := sharedScalar(s, shared)
	if err != nil {
		return nil, nil, nil, err
	}
	tag, err := felthash.DeriveViewTag(s, shared)
	if err != nil {
		return nil, nil, nil, err
	}
	addr := &Address{
		StealthPK: curve.Add(meta.SpendPK, curve.BaseMult(sc)),
		Ephemeral: curve.BaseMult(r),
		ViewTag:   tag,
	}
	return addr, r, sc, nil
}

// Matches reports whether the address belongs to the holder of viewSK and
// spendPK. The view tag short-circuits most negatives before any curve work
// on the shared scalar.
func Matches(s felthash.Scheme, addr Address, viewSK *big.Int, spendPK curve.Point) (bool, error) {
	if !curve.IsOnCurve(addr.Ephemeral) || addr.Ephemeral.IsInfinity() {
		return false, ErrInvalidKey
	}
	shared := curve.ScalarMult(viewSK, addr.Ephemeral)
	if !felthash.MatchViewTag(s, shared, addr.ViewTag) {
		return false, nil
	}
	sc, err := sharedScalar(s, shared)
	if err != nil {
		return false, err
	}
	expected := curve.Add(spendPK, curve.BaseMult(sc))
	return expected.Equal(addr.StealthPK), nil
}

// RecoverKey derives the one-time secret key for an address that Matches,
// returning the public key it controls next to the secret so callers can
// check it against the announcement.
func RecoverKey(s felthash.Scheme, addr Address, keys Keys) (*big.Int, curve.Point, error) {
	if !curve.IsOnCurve(addr.Ephemeral) || addr.Ephemeral.IsInfinity() {
		return nil, curve.Point{}, ErrInvalidKey
	}
	shared := curve.ScalarMult(keys.ViewSK, addr.Ephemeral)
	sc, err := sharedScalar(s, shared)
	if err != nil {
		return nil, curve.Point{}, err
	}
	sk := curve.Mod(new(big.Int).Add(keys.SpendSK, sc), curve.N)
	return sk, curve.BaseMult(sk), nil
}

func sharedScalar(s felthash.Scheme, shared curve.Point) (*big.Int, error) {
	return felthash.HashToScalar(s, felthash.TagStealth, shared.X, shared.Y)
}

func checkKey(p curve.Point) error {
	if !curve.IsOnCurve(p) || p.IsInfinity() {
		return ErrInvalidKey
	}
	return nil
}

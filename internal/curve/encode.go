// encode.go - Wire encodings for points and field elements.
//
// Two formats cross the trust boundary: fixed-order felt hex strings (two per
// point) and the compressed form, one sign byte (02 even / 03 odd y) followed
// by the 32-byte big-endian x coordinate as 64 hex characters.

package curve

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrMalformedSerialization is returned for wrong element counts or
// undecodable hex in wire data.
var ErrMalformedSerialization = errors.New("curve: malformed serialization")

const compressedHexLen = 2 + 64

// FeltToHex renders a field element as 0x-prefixed lowercase hex.
func FeltToHex(v *big.Int) string {
	return "0x" + Mod(v, P).Text(16)
}

// HexToFelt parses a hex felt, with or without the 0x prefix.
func HexToFelt(s string) (*big.Int, error) {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if t == "" {
		return nil, fmt.Errorf("%w: empty felt", ErrMalformedSerialization)
	}
	v, ok := new(big.Int).SetString(t, 16)
	if !ok {
		return nil, fmt.Errorf("%w: bad felt %q", ErrMalformedSerialization, s)
	}
	if v.Cmp(P) >= 0 {
		return nil, fmt.Errorf("%w: felt exceeds field prime", ErrMalformedSerialization)
	}
	return v, nil
}

// PointToFelts renders p as the fixed two-element [x, y] hex array.
func PointToFelts(p Point) []string {
	return []string{FeltToHex(p.X), FeltToHex(p.Y)}
}

// PointFromFelts parses the two-element [x, y] hex array.
func PointFromFelts(felts []string) (Point, error) {
	if len(felts) != 2 {
		return Point{}, fmt.Errorf("%w: want 2 felts for a point, got %d", ErrMalformedSerialization, len(felts))
	}
	x, err := HexToFelt(felts[0])
	if err != nil {
		return Point{}, err
	}
	y, err := HexToFelt(felts[1])
	if err != nil {
		return Point{}, err
	}
	if x.Sign() == 0 && y.Sign() == 0 {
		return Infinity(), nil
	}
	return NewPoint(x, y)
}

// Compress encodes p in the 02/03-prefixed compressed hex form. The point at
// infinity has no compressed form.
func Compress(p Point) (string, error) {
	if p.IsInfinity() {
		return "", fmt.Errorf("%w: cannot compress infinity", ErrInvalidPoint)
	}
	if !IsOnCurve(p) {
		return "", ErrInvalidPoint
	}
	prefix := "02"
	if p.Y.Bit(0) == 1 {
		prefix = "03"
	}
	var buf [32]byte
	p.X.FillBytes(buf[:])
	return prefix + hex.EncodeToString(buf[:]), nil
}

// Decompress recovers a point from its compressed form, recomputing y by a
// modular square root and selecting the root matching the sign byte.
func Decompress(s string) (Point, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if len(t) != compressedHexLen {
		return Point{}, fmt.Errorf("%w: compressed point must be %d hex chars, got %d", ErrMalformedSerialization, compressedHexLen, len(t))
	}
	var wantOdd bool
	switch t[:2] {
	case "02":
		wantOdd = false
	case "03":
		wantOdd = true
	default:
		return Point{}, fmt.Errorf("%w: bad sign byte %q", ErrMalformedSerialization, t[:2])
	}
	raw, err := hex.DecodeString(t[2:])
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrMalformedSerialization, err)
	}
	x := new(big.Int).SetBytes(raw)
	if x.Cmp(P) >= 0 {
		return Point{}, fmt.Errorf("%w: x exceeds field prime", ErrMalformedSerialization)
	}
	y, err := YFromX(x)
	if err != nil {
		return Point{}, err
	}
	if (y.Bit(0) == 1) != wantOdd {
		y = Mod(new(big.Int).Neg(y), P)
	}
	return Point{X: x, Y: y}, nil
}

// elgamal.go - Additively homomorphic ElGamal over the Stark curve.
//
// Encryption puts the message on the secondary generator H, never on G:
// c1 = r*G, c2 = m*H + r*PK. Decryption strips the shared term and recovers
// m by a bounded baby-step giant-step search against H, so an amount outside
// the declared bound fails loudly instead of decrypting to garbage.

package elgamal

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/curve"
)

var (
	// ErrDiscreteLogNotFound is returned when the bounded search is exhausted.
	ErrDiscreteLogNotFound = errors.New("elgamal: discrete log not found within bound")
	// ErrInvalidPoint is returned for off-curve keys or ciphertext components.
	ErrInvalidPoint = errors.New("elgamal: invalid point")
)

// Ciphertext is the pair (c1, c2) = (r*G, m*H + r*PK).
type Ciphertext struct {
	C1 curve.Point
	C2 curve.Point
}

// KeyPair is an ElGamal decryption keypair, pk = sk*G.
type KeyPair struct {
	SK *big.Int
	PK curve.Point
}

// GenerateKeyPair draws a fresh keypair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	sk, err := curve.RandomScalar()
	if err != nil {
		return nil, err
	}
	return &KeyPair{SK: sk, PK: curve.BaseMult(sk)}, nil
}

// Encrypt encrypts m under pk. When r is nil a fresh ephemeral scalar is
// drawn; the scalar actually used is returned alongside the ciphertext so
// callers can build hints and same-encryption proofs from it.
func Encrypt(m *big.Int, pk curve.Point, r *big.Int) (Ciphertext, *big.Int, error) {
	if !curve.IsOnCurve(pk) || pk.IsInfinity() {
		return Ciphertext{}, nil, fmt.Errorf("%w: public key", ErrInvalidPoint)
	}
	if r == nil {
		fresh, err := curve.RandomScalar()
		if err != nil {
			return Ciphertext{}, nil, err
		}
		r = fresh
	}
	c1 := curve.BaseMult(r)
	mh := curve.HMult(m)
	c2 := curve.Add(mh, curve.ScalarMult(r, pk))
	return Ciphertext{C1: c1, C2: c2}, new(big.Int).Set(r), nil
}

// Decrypt recovers m from ct given sk, searching m in [0, maxValue] by
// baby-step giant-step against H. Returns ErrDiscreteLogNotFound when the
// plaintext exceeds the bound; it never guesses.
func Decrypt(ct Ciphertext, sk *big.Int, maxValue uint64) (uint64, error) {
	if !VerifyCiphertext(ct) {
		return 0, fmt.Errorf("%w: ciphertext", ErrInvalidPoint)
	}
	// m*H = c2 - sk*c1
	target := curve.Subtract(ct.C2, curve.ScalarMult(sk, ct.C1))
	return discreteLogH(target, maxValue)
}

// discreteLogH solves target = m*H for m in [0, bound].
func discreteLogH(target curve.Point, bound uint64) (uint64, error) {
	if target.IsInfinity() {
		return 0, nil
	}
	// Baby steps: j*H for j in [0, n).
	n := integerSqrtCeil(bound)
	table := make(map[string]uint64, n)
	step := curve.Infinity()
	h := curve.GenH()
	for j := uint64(0); j < n; j++ {
		table[pointKey(step)] = j
		step = curve.Add(step, h)
	}
	// Giant steps: target - i*(n*H).
	giant := curve.Negate(curve.ScalarMult(new(big.Int).SetUint64(n), h))
	gamma := target.Clone()
	for i := uint64(0); i <= bound/n; i++ {
		if j, ok := table[pointKey(gamma)]; ok {
			m := i*n + j
			if m > bound {
				break
			}
			return m, nil
		}
		gamma = curve.Add(gamma, giant)
	}
	return 0, ErrDiscreteLogNotFound
}

func pointKey(p curve.Point) string {
	if p.IsInfinity() {
		return "inf"
	}
	return p.X.Text(16) + ":" + p.Y.Text(16)
}

// integerSqrtCeil returns ceil(sqrt(bound+1)), computed on big.Int so the +1
// cannot wrap at the top of the uint64 range.
func integerSqrtCeil(bound uint64) uint64 {
	v := new(big.Int).Add(new(big.Int).SetUint64(bound), big.NewInt(1))
	r := new(big.Int).Sqrt(v)
	if new(big.Int).Mul(r, r).Cmp(v) < 0 {
		r.Add(r, big.NewInt(1))
	}
	return r.Uint64()
}

// AddCiphertexts adds component-wise: Dec(a+b) = Dec(a) + Dec(b).
func AddCiphertexts(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		C1: curve.Add(a.C1, b.C1),
		C2: curve.Add(a.C2, b.C2),
	}
}

// SubtractCiphertexts subtracts component-wise.
func SubtractCiphertexts(a, b Ciphertext) Ciphertext {
	return Ciphertext{
		C1: curve.Subtract(a.C1, b.C1),
		C2: curve.Subtract(a.C2, b.C2),
	}
}

// ScalarMultCiphertext scales component-wise: Dec(k*ct) = k * Dec(ct).
func ScalarMultCiphertext(k *big.Int, ct Ciphertext) Ciphertext {
	return Ciphertext{
		C1: curve.ScalarMult(k, ct.C1),
		C2: curve.ScalarMult(k, ct.C2),
	}
}

// Rerandomize adds a fresh encryption of zero, changing the ciphertext bytes
// without changing the plaintext.
func Rerandomize(ct Ciphertext, pk curve.Point) (Ciphertext, error) {
	zero, _, err := Encrypt(big.NewInt(0), pk, nil)
	if err != nil {
		return Ciphertext{}, err
	}
	return AddCiphertexts(ct, zero), nil
}

// VerifyCiphertext checks that both components are on the curve.
func VerifyCiphertext(ct Ciphertext) bool {
	return curve.IsOnCurve(ct.C1) && curve.IsOnCurve(ct.C2)
}

// hash.go - Domain-separated field-element hashing.
//
// The concrete hash is an injected strategy so the engine can be pointed at
// whatever ZK-friendly hash the on-chain verifier runs. Matching that choice
// is a hard external contract: a mismatched scheme desynchronizes nullifiers
// and Merkle roots with no local error. Never fall back to a weaker hash.

package felthash

import (
	"errors"
	"math/big"

	mimcNative "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"

	"shroud/internal/curve"
)

// ErrNoInputs is returned when a hash is requested over zero elements.
var ErrNoInputs = errors.New("felthash: hashing zero inputs")

// Scheme hashes field elements to a field element. Implementations must be
// deterministic and stateless across calls.
type Scheme interface {
	// Name identifies the scheme for compatibility checks at the boundary.
	Name() string
	// Hash absorbs one or more field elements and returns a canonical felt.
	Hash(inputs ...*big.Int) (*big.Int, error)
}

// mimcScheme backs Scheme with the gnark-crypto MiMC permutation. Each input
// is reduced into the field and absorbed as one fixed-width block; the digest
// is reduced back into the field.
type mimcScheme struct{}

// NewMiMC returns the MiMC-backed scheme.
func NewMiMC() Scheme {
	return mimcScheme{}
}

func (mimcScheme) Name() string { return "mimc-bw6-761" }

func (mimcScheme) Hash(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	h := mimcNative.NewMiMC()
	block := make([]byte, h.BlockSize())
	for _, in := range inputs {
		if in == nil {
			return nil, errors.New("felthash: nil input element")
		}
		curve.Mod(in, curve.P).FillBytes(block)
		if _, err := h.Write(block); err != nil {
			return nil, err
		}
	}
	return curve.Mod(new(big.Int).SetBytes(h.Sum(nil)), curve.P), nil
}

// HashWithDomain prefixes the transcript with a domain tag felt.
func HashWithDomain(s Scheme, domain *big.Int, inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	all := make([]*big.Int, 0, len(inputs)+1)
	all = append(all, domain)
	all = append(all, inputs...)
	return s.Hash(all...)
}

// HashToScalar hashes and reduces into the scalar range [0, N). Used for
// Fiat-Shamir challenges and derived secret scalars.
func HashToScalar(s Scheme, domain *big.Int, inputs ...*big.Int) (*big.Int, error) {
	f, err := HashWithDomain(s, domain, inputs...)
	if err != nil {
		return nil, err
	}
	return curve.Mod(f, curve.N), nil
}

package sigma

import (
	"errors"
	"math/big"
	"testing"

	"shroud/internal/curve"
	"shroud/internal/elgamal"
	"shroud/internal/felthash"
	"shroud/internal/pedersen"
)

func TestOwnershipProofRoundTrip(t *testing.T) {
	s := felthash.NewMiMC()
	sk := big.NewInt(987654321)
	pk := curve.BaseMult(sk)

	proof, err := ProveOwnership(s, sk, pk)
	if err != nil {
		t.Fatalf("ProveOwnership failed: %v", err)
	}
	if !VerifyOwnership(s, pk, proof) {
		t.Errorf("valid ownership proof should verify")
	}

	other := curve.BaseMult(big.NewInt(111))
	if VerifyOwnership(s, other, proof) {
		t.Errorf("proof should not verify against a different key")
	}

	tampered := &SchnorrProof{A: proof.A, S: new(big.Int).Add(proof.S, big.NewInt(1))}
	if VerifyOwnership(s, pk, tampered) {
		t.Errorf("tampered response should not verify")
	}
}

func TestOwnershipProofWrongWitness(t *testing.T) {
	s := felthash.NewMiMC()
	pk := curve.BaseMult(big.NewInt(5))
	if _, err := ProveOwnership(s, big.NewInt(6), pk); !errors.Is(err, ErrInvalidWitness) {
		t.Errorf("mismatched witness should be rejected, got %v", err)
	}
}

func TestSchnorrFelts(t *testing.T) {
	s := felthash.NewMiMC()
	sk := big.NewInt(42)
	pk := curve.BaseMult(sk)
	proof, err := ProveOwnership(s, sk, pk)
	if err != nil {
		t.Fatalf("ProveOwnership failed: %v", err)
	}

	back, err := SchnorrFromFelts(proof.ToFelts())
	if err != nil {
		t.Fatalf("SchnorrFromFelts failed: %v", err)
	}
	if !VerifyOwnership(s, pk, back) {
		t.Errorf("proof should survive felt serialization")
	}

	if _, err := SchnorrFromFelts([]string{"0x1"}); err == nil {
		t.Errorf("short felt array should be rejected")
	}
}

func TestRangeProofRoundTrip(t *testing.T) {
	s := felthash.NewMiMC()
	cases := []uint64{0, 1, 100, 255}
	for _, v := range cases {
		blinding, err := curve.RandomScalar()
		if err != nil {
			t.Fatalf("RandomScalar failed: %v", err)
		}
		value := new(big.Int).SetUint64(v)
		proof, err := GenerateRangeProof(s, value, blinding, 8)
		if err != nil {
			t.Fatalf("GenerateRangeProof(%d) failed: %v", v, err)
		}
		c := pedersen.Commit(value, blinding)
		if !VerifyRangeProof(s, proof, c, 8) {
			t.Errorf("valid range proof for %d should verify", v)
		}
	}
}

func TestRangeProofRejectsOutOfRange(t *testing.T) {
	s := felthash.NewMiMC()
	blinding := big.NewInt(77)
	if _, err := GenerateRangeProof(s, big.NewInt(256), blinding, 8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("256 needs 9 bits, want ErrOutOfRange, got %v", err)
	}
	if _, err := GenerateRangeProof(s, big.NewInt(-1), blinding, 8); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative value should be rejected, got %v", err)
	}
	if _, err := GenerateRangeProof(s, big.NewInt(1), blinding, 0); !errors.Is(err, ErrBadBitWidth) {
		t.Errorf("zero bit width should be rejected, got %v", err)
	}
}

func TestRangeProofRejectsTampering(t *testing.T) {
	s := felthash.NewMiMC()
	blinding := big.NewInt(424242)
	value := big.NewInt(170) // 10101010
	proof, err := GenerateRangeProof(s, value, blinding, 8)
	if err != nil {
		t.Fatalf("GenerateRangeProof failed: %v", err)
	}
	c := pedersen.Commit(value, blinding)

	// Wrong commitment.
	other := pedersen.Commit(big.NewInt(171), blinding)
	if VerifyRangeProof(s, proof, other, 8) {
		t.Errorf("proof should not verify against a different commitment")
	}

	// Wrong declared width.
	if VerifyRangeProof(s, proof, c, 16) {
		t.Errorf("proof should not verify under a different bit width")
	}

	// Tampered challenge split.
	proof.Bits[3].E0 = new(big.Int).Add(proof.Bits[3].E0, big.NewInt(1))
	if VerifyRangeProof(s, proof, c, 8) {
		t.Errorf("tampered challenge should not verify")
	}
}

func TestRangeProofFelts(t *testing.T) {
	s := felthash.NewMiMC()
	blinding := big.NewInt(99)
	value := big.NewInt(13)
	proof, err := GenerateRangeProof(s, value, blinding, 4)
	if err != nil {
		t.Fatalf("GenerateRangeProof failed: %v", err)
	}

	felts := proof.ToFelts()
	if len(felts) != 40 {
		t.Fatalf("want 40 felts for 4 bits, got %d", len(felts))
	}
	back, err := RangeProofFromFelts(felts)
	if err != nil {
		t.Fatalf("RangeProofFromFelts failed: %v", err)
	}
	if !VerifyRangeProof(s, back, pedersen.Commit(value, blinding), 4) {
		t.Errorf("proof should survive felt serialization")
	}

	if _, err := RangeProofFromFelts(felts[:15]); err == nil {
		t.Errorf("truncated felt array should be rejected")
	}
}

func TestBalanceProofRoundTrip(t *testing.T) {
	s := felthash.NewMiMC()
	oldBlinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}

	proof, newBlinding, err := GenerateBalanceProof(s, 1000, 300, oldBlinding, 16)
	if err != nil {
		t.Fatalf("GenerateBalanceProof failed: %v", err)
	}
	if !VerifyBalanceProof(s, proof, 300, 16) {
		t.Errorf("valid balance proof should verify")
	}
	if !pedersen.VerifyOpening(proof.NewCommitment, big.NewInt(700), newBlinding) {
		t.Errorf("new commitment should open to the remainder")
	}

	if VerifyBalanceProof(s, proof, 301, 16) {
		t.Errorf("proof should not verify for a different public amount")
	}
}

func TestBalanceProofFullWithdrawal(t *testing.T) {
	s := felthash.NewMiMC()
	oldBlinding := big.NewInt(5555)
	proof, _, err := GenerateBalanceProof(s, 250, 250, oldBlinding, 16)
	if err != nil {
		t.Fatalf("full withdrawal should be provable: %v", err)
	}
	if !VerifyBalanceProof(s, proof, 250, 16) {
		t.Errorf("zero remainder should verify")
	}
}

func TestBalanceProofInsufficient(t *testing.T) {
	s := felthash.NewMiMC()
	if _, _, err := GenerateBalanceProof(s, 100, 101, big.NewInt(1), 16); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("overdraft should be rejected, got %v", err)
	}
}

func TestSameEncryptionProof(t *testing.T) {
	s := felthash.NewMiMC()
	skA, skB := big.NewInt(31337), big.NewInt(271828)
	pkA, pkB := curve.BaseMult(skA), curve.BaseMult(skB)
	m := big.NewInt(42)

	r, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	ctA, _, err := elgamal.Encrypt(m, pkA, r)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	ctB, _, err := elgamal.Encrypt(m, pkB, r)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	proof, err := GenerateSameEncryptionProof(s, r, pkA, pkB, ctA, ctB)
	if err != nil {
		t.Fatalf("GenerateSameEncryptionProof failed: %v", err)
	}
	if !VerifySameEncryptionProof(s, proof, pkA, pkB, ctA, ctB) {
		t.Errorf("valid same-encryption proof should verify")
	}
}

func TestSameEncryptionProofDifferentMessages(t *testing.T) {
	s := felthash.NewMiMC()
	pkA, pkB := curve.BaseMult(big.NewInt(7)), curve.BaseMult(big.NewInt(8))

	r, err := curve.RandomScalar()
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	ctA, _, _ := elgamal.Encrypt(big.NewInt(1), pkA, r)
	ctB, _, _ := elgamal.Encrypt(big.NewInt(2), pkB, r)

	if _, err := GenerateSameEncryptionProof(s, r, pkA, pkB, ctA, ctB); !errors.Is(err, ErrInvalidWitness) {
		t.Errorf("mismatched plaintexts should be rejected at proving time, got %v", err)
	}

	// A forged transcript against mismatched ciphertexts must not verify.
	ctSame, _, _ := elgamal.Encrypt(big.NewInt(1), pkB, r)
	proof, err := GenerateSameEncryptionProof(s, r, pkA, pkB, ctA, ctSame)
	if err != nil {
		t.Fatalf("GenerateSameEncryptionProof failed: %v", err)
	}
	if VerifySameEncryptionProof(s, proof, pkA, pkB, ctA, ctB) {
		t.Errorf("proof for one ciphertext pair should not verify against another")
	}
}

package elgamal

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"shroud/internal/curve"
)

// Fixed keypair used across the tests: sk = 42, pk = 42*G.
func testKeyPair() *KeyPair {
	sk := big.NewInt(42)
	return &KeyPair{SK: sk, PK: curve.BaseMult(sk)}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	kp := testKeyPair()
	for _, m := range []int64{0, 1, 100} {
		ct, _, err := Encrypt(big.NewInt(m), kp.PK, nil)
		if err != nil {
			t.Fatalf("Encrypt(%d) failed: %v", m, err)
		}
		got, err := Decrypt(ct, kp.SK, 1<<20)
		if err != nil {
			t.Fatalf("Decrypt(%d) failed: %v", m, err)
		}
		if got != uint64(m) {
			t.Errorf("decrypted %d, want %d", got, m)
		}
	}
}

func TestEncryptWithFixedRandomness(t *testing.T) {
	kp := testKeyPair()

	ct, r, err := Encrypt(big.NewInt(0), kp.PK, big.NewInt(7))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if r.Cmp(big.NewInt(7)) != 0 {
		t.Errorf("Encrypt should echo the supplied randomness")
	}
	if !ct.C1.Equal(curve.BaseMult(big.NewInt(7))) {
		t.Errorf("c1 should be r*G")
	}
	if m, err := Decrypt(ct, kp.SK, 1<<20); err != nil || m != 0 {
		t.Errorf("Decrypt = (%d, %v), want (0, nil)", m, err)
	}

	ct2, _, _ := Encrypt(big.NewInt(1), kp.PK, big.NewInt(13))
	if m, err := Decrypt(ct2, kp.SK, 1<<20); err != nil || m != 1 {
		t.Errorf("Decrypt = (%d, %v), want (1, nil)", m, err)
	}
}

func TestDecryptBeyondBoundFails(t *testing.T) {
	kp := testKeyPair()
	ct, _, _ := Encrypt(big.NewInt(5000), kp.PK, nil)
	if _, err := Decrypt(ct, kp.SK, 100); !errors.Is(err, ErrDiscreteLogNotFound) {
		t.Errorf("expected ErrDiscreteLogNotFound, got %v", err)
	}
}

func TestHomomorphicAdd(t *testing.T) {
	kp := testKeyPair()
	a, _, _ := Encrypt(big.NewInt(30), kp.PK, nil)
	b, _, _ := Encrypt(big.NewInt(12), kp.PK, nil)
	sum := AddCiphertexts(a, b)
	if m, err := Decrypt(sum, kp.SK, 1<<10); err != nil || m != 42 {
		t.Errorf("Dec(Enc(30)+Enc(12)) = (%d, %v), want 42", m, err)
	}

	diff := SubtractCiphertexts(sum, b)
	if m, err := Decrypt(diff, kp.SK, 1<<10); err != nil || m != 30 {
		t.Errorf("subtraction homomorphism broken: (%d, %v)", m, err)
	}
}

func TestHomomorphicScalarMult(t *testing.T) {
	kp := testKeyPair()
	ct, _, _ := Encrypt(big.NewInt(9), kp.PK, nil)
	scaled := ScalarMultCiphertext(big.NewInt(5), ct)
	if m, err := Decrypt(scaled, kp.SK, 1<<10); err != nil || m != 45 {
		t.Errorf("Dec(5*Enc(9)) = (%d, %v), want 45", m, err)
	}
}

func TestRerandomize(t *testing.T) {
	kp := testKeyPair()
	ct, _, _ := Encrypt(big.NewInt(77), kp.PK, nil)
	rr, err := Rerandomize(ct, kp.PK)
	if err != nil {
		t.Fatalf("Rerandomize failed: %v", err)
	}
	if rr.C1.Equal(ct.C1) && rr.C2.Equal(ct.C2) {
		t.Errorf("rerandomization should change ciphertext bytes")
	}
	if m, err := Decrypt(rr, kp.SK, 1<<10); err != nil || m != 77 {
		t.Errorf("rerandomization changed the plaintext: (%d, %v)", m, err)
	}
}

func TestVerifyCiphertext(t *testing.T) {
	kp := testKeyPair()
	ct, _, _ := Encrypt(big.NewInt(3), kp.PK, nil)
	if !VerifyCiphertext(ct) {
		t.Errorf("valid ciphertext should verify")
	}
	bad := ct
	bad.C2 = curve.Point{X: big.NewInt(1), Y: big.NewInt(1)}
	if VerifyCiphertext(bad) {
		t.Errorf("off-curve component should fail verification")
	}
}

func TestEncryptRejectsBadKey(t *testing.T) {
	if _, _, err := Encrypt(big.NewInt(1), curve.Point{X: big.NewInt(1), Y: big.NewInt(1)}, nil); err == nil {
		t.Errorf("off-curve public key should be rejected")
	}
	if _, _, err := Encrypt(big.NewInt(1), curve.Infinity(), nil); err == nil {
		t.Errorf("infinity public key should be rejected")
	}
}

func TestFeltSerialization(t *testing.T) {
	kp := testKeyPair()
	ct, _, _ := Encrypt(big.NewInt(11), kp.PK, nil)

	felts := ct.ToFelts()
	if len(felts) != 4 {
		t.Fatalf("ciphertext should serialize to 4 felts, got %d", len(felts))
	}
	back, err := FromFelts(felts)
	if err != nil {
		t.Fatalf("FromFelts failed: %v", err)
	}
	if !back.C1.Equal(ct.C1) || !back.C2.Equal(ct.C2) {
		t.Errorf("felt round trip failed")
	}

	if _, err := FromFelts(felts[:3]); err == nil {
		t.Errorf("wrong felt count should be rejected")
	}
}

func TestCompressedSerialization(t *testing.T) {
	kp := testKeyPair()
	ct, _, _ := Encrypt(big.NewInt(4), kp.PK, nil)
	parts, err := ct.Compress()
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	back, err := Decompress(parts)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !back.C1.Equal(ct.C1) || !back.C2.Equal(ct.C2) {
		t.Errorf("compressed round trip failed")
	}
}

func TestIntegerSqrtCeil(t *testing.T) {
	cases := map[uint64]uint64{
		0:  1,
		3:  2,
		8:  3,
		15: 4,
		16: 5,
		24: 5,
	}
	for bound, want := range cases {
		if got := integerSqrtCeil(bound); got != want {
			t.Errorf("integerSqrtCeil(%d) = %d, want %d", bound, got, want)
		}
	}

	// bound+1 at the top of the uint64 range must not wrap; the table size
	// has to stay at sqrt(2^64), not collapse to 1.
	if got := integerSqrtCeil(math.MaxUint64); got != 1<<32 {
		t.Errorf("integerSqrtCeil(MaxUint64) = %d, want %d", got, uint64(1)<<32)
	}
}

package felthash

import (
	"math/big"
	"testing"

	"shroud/internal/curve"
)

func TestHashDeterministic(t *testing.T) {
	s := NewMiMC()
	a, err := s.Hash(big.NewInt(1), big.NewInt(2))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := s.Hash(big.NewInt(1), big.NewInt(2))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a.Cmp(b) != 0 {
		t.Errorf("hash is not deterministic")
	}
	if a.Sign() < 0 || a.Cmp(curve.P) >= 0 {
		t.Errorf("hash output not a canonical felt")
	}
}

func TestHashInputOrderMatters(t *testing.T) {
	s := NewMiMC()
	a, _ := s.Hash(big.NewInt(1), big.NewInt(2))
	b, _ := s.Hash(big.NewInt(2), big.NewInt(1))
	if a.Cmp(b) == 0 {
		t.Errorf("swapping inputs should change the digest")
	}
}

func TestHashZeroInputsErrors(t *testing.T) {
	s := NewMiMC()
	if _, err := s.Hash(); err == nil {
		t.Errorf("hashing zero inputs should error")
	}
	if _, err := HashWithDomain(s, TagNullifier); err == nil {
		t.Errorf("domain hash over zero inputs should error")
	}
}

func TestDomainSeparation(t *testing.T) {
	s := NewMiMC()
	x := big.NewInt(99)
	a, _ := HashWithDomain(s, TagNullifier, x)
	b, _ := HashWithDomain(s, TagMerkleNode, x)
	if a.Cmp(b) == 0 {
		t.Errorf("different domains should produce different digests")
	}
}

func TestDeriveNullifier(t *testing.T) {
	s := NewMiMC()
	secret := big.NewInt(123456)

	n1, err := DeriveNullifier(s, secret, 4)
	if err != nil {
		t.Fatalf("DeriveNullifier failed: %v", err)
	}
	n2, _ := DeriveNullifier(s, secret, 4)
	if n1.Cmp(n2) != 0 {
		t.Errorf("nullifier should be deterministic")
	}
	n3, _ := DeriveNullifier(s, secret, 5)
	if n1.Cmp(n3) == 0 {
		t.Errorf("changing the leaf index should change the nullifier")
	}

	tagged, _ := DeriveNullifierWithDomain(s, secret, 4)
	if tagged.Cmp(n1) == 0 {
		t.Errorf("domain-tagged nullifier should differ from the bare one")
	}
}

func TestDeriveNullifiersBatch(t *testing.T) {
	s := NewMiMC()
	secret := big.NewInt(7)
	idxs := []uint64{0, 1, 2, 9}
	batch, err := DeriveNullifiers(s, secret, idxs)
	if err != nil {
		t.Fatalf("DeriveNullifiers failed: %v", err)
	}
	if len(batch) != len(idxs) {
		t.Fatalf("batch length mismatch")
	}
	for i, idx := range idxs {
		single, _ := DeriveNullifier(s, secret, idx)
		if batch[i].Cmp(single) != 0 {
			t.Errorf("batch[%d] disagrees with single derivation", i)
		}
	}
}

func TestKeyImage(t *testing.T) {
	s := NewMiMC()
	sk := big.NewInt(42)
	pk := curve.BaseMult(sk)

	img, err := DeriveKeyImage(s, sk, pk)
	if err != nil {
		t.Fatalf("DeriveKeyImage failed: %v", err)
	}
	if !curve.IsOnCurve(img) || img.IsInfinity() {
		t.Fatalf("key image must be a proper curve point")
	}
	img2, _ := DeriveKeyImage(s, sk, pk)
	if !img.Equal(img2) {
		t.Errorf("key image should be deterministic")
	}

	other, _ := DeriveKeyImage(s, big.NewInt(43), curve.BaseMult(big.NewInt(43)))
	if img.Equal(other) {
		t.Errorf("different keys should yield different images")
	}

	if _, err := DeriveKeyImage(s, sk, curve.Infinity()); err == nil {
		t.Errorf("infinity public key should be rejected")
	}
}

func TestViewTag(t *testing.T) {
	s := NewMiMC()
	shared := curve.BaseMult(big.NewInt(1717))
	tag, err := DeriveViewTag(s, shared)
	if err != nil {
		t.Fatalf("DeriveViewTag failed: %v", err)
	}
	if !MatchViewTag(s, shared, tag) {
		t.Errorf("tag should match its own shared point")
	}
	if MatchViewTag(s, shared, tag^0xff) {
		t.Errorf("flipped tag should not match")
	}
}

package stealth

import (
	"math/big"
	"testing"

	"shroud/internal/curve"
	"shroud/internal/felthash"
)

func TestAddressRoundTrip(t *testing.T) {
	s := felthash.NewMiMC()
	keys, meta, err := GenerateKeys()
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}

	addr, r, sc, err := DeriveAddress(s, *meta)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	if !curve.BaseMult(r).Equal(addr.Ephemeral) {
		t.Errorf("returned ephemeral scalar should generate the ephemeral point")
	}
	if !curve.Add(meta.SpendPK, curve.BaseMult(sc)).Equal(addr.StealthPK) {
		t.Errorf("returned shared scalar should rebuild the stealth public key")
	}

	ok, err := Matches(s, *addr, keys.ViewSK, meta.SpendPK)
	if err != nil {
		t.Fatalf("Matches failed: %v", err)
	}
	if !ok {
		t.Fatalf("receiver should recognize their own address")
	}

	sk, pk, err := RecoverKey(s, *addr, *keys)
	if err != nil {
		t.Fatalf("RecoverKey failed: %v", err)
	}
	if !curve.BaseMult(sk).Equal(addr.StealthPK) {
		t.Errorf("recovered key should control the stealth public key")
	}
	if !pk.Equal(addr.StealthPK) {
		t.Errorf("recovered public key should match the announced one")
	}
}

func TestAddressesUnlinkable(t *testing.T) {
	s := felthash.NewMiMC()
	_, meta, err := GenerateKeys()
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}

	a, _, _, err := DeriveAddress(s, *meta)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	b, _, _, err := DeriveAddress(s, *meta)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	if a.StealthPK.Equal(b.StealthPK) {
		t.Errorf("two derivations should yield distinct destinations")
	}
	if a.Ephemeral.Equal(b.Ephemeral) {
		t.Errorf("two derivations should yield distinct ephemerals")
	}
}

func TestForeignAddressDoesNotMatch(t *testing.T) {
	s := felthash.NewMiMC()
	_, metaA, err := GenerateKeys()
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}
	keysB, metaB, err := GenerateKeys()
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}

	addr, _, _, err := DeriveAddress(s, *metaA)
	if err != nil {
		t.Fatalf("DeriveAddress failed: %v", err)
	}
	ok, err := Matches(s, *addr, keysB.ViewSK, metaB.SpendPK)
	if err != nil {
		t.Fatalf("Matches failed: %v", err)
	}
	if ok {
		t.Errorf("address for A should not match B's keys")
	}
}

func TestDeriveAddressRejectsBadKeys(t *testing.T) {
	s := felthash.NewMiMC()
	_, meta, err := GenerateKeys()
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}

	bad := *meta
	bad.ViewPK = curve.Infinity()
	if _, _, _, err := DeriveAddress(s, bad); err == nil {
		t.Errorf("infinity view key should be rejected")
	}

	bad = *meta
	bad.SpendPK = curve.Point{X: big.NewInt(1), Y: big.NewInt(2)}
	if _, _, _, err := DeriveAddress(s, bad); err == nil {
		t.Errorf("off-curve spend key should be rejected")
	}
}

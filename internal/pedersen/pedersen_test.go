package pedersen

import (
	"errors"
	"math/big"
	"testing"

	"shroud/internal/curve"
	"shroud/internal/felthash"
)

func TestCommitDeterministic(t *testing.T) {
	v, r := big.NewInt(500), big.NewInt(777)
	a := Commit(v, r)
	b := Commit(v, r)
	if !a.Equal(b) {
		t.Errorf("commitment should be deterministic for fixed (v, r)")
	}
	if !curve.IsOnCurve(a.Point) {
		t.Errorf("commitment should be a curve point")
	}
}

func TestVerifyOpening(t *testing.T) {
	v, r := big.NewInt(12), big.NewInt(34)
	c := Commit(v, r)
	if !VerifyOpening(c, v, r) {
		t.Errorf("valid opening should verify")
	}
	if VerifyOpening(c, big.NewInt(13), r) {
		t.Errorf("wrong value should not verify")
	}
	if VerifyOpening(c, v, big.NewInt(35)) {
		t.Errorf("wrong blinding should not verify")
	}
}

func TestHomomorphism(t *testing.T) {
	a, r1 := big.NewInt(10), big.NewInt(111)
	b, r2 := big.NewInt(20), big.NewInt(222)

	sum := AddCommitments(Commit(a, r1), Commit(b, r2))
	direct := Commit(
		curve.Mod(new(big.Int).Add(a, b), curve.N),
		curve.Mod(new(big.Int).Add(r1, r2), curve.N),
	)
	if !sum.Equal(direct) {
		t.Errorf("additive homomorphism broken")
	}

	diff := SubtractCommitments(sum, Commit(b, r2))
	if !diff.Equal(Commit(a, r1)) {
		t.Errorf("subtractive homomorphism broken")
	}

	k := big.NewInt(3)
	scaled := ScalarMultCommitment(k, Commit(a, r1))
	directScaled := Commit(
		curve.Mod(new(big.Int).Mul(k, a), curve.N),
		curve.Mod(new(big.Int).Mul(k, r1), curve.N),
	)
	if !scaled.Equal(directScaled) {
		t.Errorf("scalar homomorphism broken")
	}
}

func TestCommitmentToFelt(t *testing.T) {
	s := felthash.NewMiMC()
	c := Commit(big.NewInt(5), big.NewInt(6))
	id, err := CommitmentToFelt(s, c)
	if err != nil {
		t.Fatalf("CommitmentToFelt failed: %v", err)
	}
	id2, _ := CommitmentToFelt(s, c)
	if id.Cmp(id2) != 0 {
		t.Errorf("leaf id should be deterministic")
	}
	other, _ := CommitmentToFelt(s, Commit(big.NewInt(5), big.NewInt(7)))
	if id.Cmp(other) == 0 {
		t.Errorf("different commitments should map to different leaf ids")
	}
}

func TestCreateNote(t *testing.T) {
	n, err := CreateNote(250, "STRK")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if n.Value != 250 || n.TokenTag != "STRK" {
		t.Errorf("note fields mismatch")
	}
	if n.LeafIndex != 0 || n.Spent {
		t.Errorf("fresh note should be unconfirmed and unspent")
	}
	if n.Blinding.Sign() == 0 || n.NullifierSecret.Sign() == 0 {
		t.Errorf("note secrets should be non-zero")
	}
	if !VerifyOpening(n.Commitment, big.NewInt(250), n.Blinding) {
		t.Errorf("note commitment should open to its value and blinding")
	}

	m, _ := CreateNote(250, "STRK")
	if n.Commitment.Equal(m.Commitment) {
		t.Errorf("two notes for the same value should not share a commitment")
	}
}

func TestSplitDenominations(t *testing.T) {
	parts, err := SplitDenominations(1234, []uint64{1000, 100, 10, 1})
	if err != nil {
		t.Fatalf("SplitDenominations failed: %v", err)
	}
	var total uint64
	for _, p := range parts {
		total += p
	}
	if total != 1234 {
		t.Errorf("split parts sum to %d, want 1234", total)
	}
	if len(parts) != 1+2+3+4 {
		t.Errorf("greedy split produced %d parts", len(parts))
	}

	if _, err := SplitDenominations(105, []uint64{100, 10}); !errors.Is(err, ErrAmountNotRepresentable) {
		t.Errorf("unrepresentable amount should be rejected, got %v", err)
	}
}

func TestCreateDenominationNotes(t *testing.T) {
	notes, err := CreateDenominationNotes(120, "ETH", []uint64{100, 10})
	if err != nil {
		t.Fatalf("CreateDenominationNotes failed: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("want 3 notes, got %d", len(notes))
	}
	var total uint64
	for _, n := range notes {
		total += n.Value
	}
	if total != 120 {
		t.Errorf("note values sum to %d, want 120", total)
	}
}

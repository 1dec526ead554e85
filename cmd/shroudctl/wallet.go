// wallet.go - Local wallet file: keys and notes
package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"shroud/internal/curve"
	"shroud/internal/elgamal"
	"shroud/internal/pedersen"
	"shroud/internal/stealth"
)

// Wallet holds the client's long-term keys and its notes. The file is
// plaintext JSON; at-rest encryption is the operator's concern.
type Wallet struct {
	ElGamalSK *big.Int    `json:"elgamalSk"`
	ElGamalPK curve.Point `json:"elgamalPk"`

	ViewSK  *big.Int    `json:"viewSk"`
	SpendSK *big.Int    `json:"spendSk"`
	ViewPK  curve.Point `json:"viewPk"`
	SpendPK curve.Point `json:"spendPk"`

	Notes []*pedersen.Note `json:"notes"`
}

// NewWallet draws fresh ElGamal and stealth key pairs.
func NewWallet() (*Wallet, error) {
	kp, err := elgamal.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating elgamal keys: %w", err)
	}
	keys, meta, err := stealth.GenerateKeys()
	if err != nil {
		return nil, fmt.Errorf("generating stealth keys: %w", err)
	}
	return &Wallet{
		ElGamalSK: kp.SK,
		ElGamalPK: kp.PK,
		ViewSK:    keys.ViewSK,
		SpendSK:   keys.SpendSK,
		ViewPK:    meta.ViewPK,
		SpendPK:   meta.SpendPK,
		Notes:     make([]*pedersen.Note, 0),
	}, nil
}

// MetaAddress returns the published receiving keys.
func (w *Wallet) MetaAddress() stealth.MetaAddress {
	return stealth.MetaAddress{ViewPK: w.ViewPK, SpendPK: w.SpendPK}
}

// PickNote returns the smallest unspent confirmed note covering amount.
func (w *Wallet) PickNote(amount uint64) (*pedersen.Note, error) {
	var best *pedersen.Note
	for _, n := range w.Notes {
		if n.Spent || n.Value < amount {
			continue
		}
		if best == nil || n.Value < best.Value {
			best = n
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no unspent note covers %d", amount)
	}
	return best, nil
}

// Balance sums unspent note values.
func (w *Wallet) Balance() uint64 {
	var total uint64
	for _, n := range w.Notes {
		if !n.Spent {
			total += n.Value
		}
	}
	return total
}

// SaveToFile persists the wallet as JSON, overwriting any existing file.
func (w *Wallet) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}

// LoadWalletFromFile restores a wallet saved by SaveToFile.
func LoadWalletFromFile(path string) (*Wallet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var w Wallet
	if err := json.NewDecoder(f).Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding wallet file: %w", err)
	}
	return &w, nil
}

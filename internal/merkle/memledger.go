// memledger.go - In-memory commitment and nullifier ledger.
//
// The ledger records commitment leaves in insertion order and nullifiers as
// a set. It is append-only, supports double-spend detection, and persists as
// a single JSON file. It also implements StorageReader, which makes it the
// standard backing store for tests and for running against a local snapshot.

package merkle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"
)

// ErrDoubleSpend is returned when a nullifier is submitted twice.
var ErrDoubleSpend = errors.New("merkle: nullifier already recorded")

// MemoryLedger is an append-only record of commitments and spent nullifiers.
// Safe for concurrent use.
type MemoryLedger struct {
	mu          sync.RWMutex
	commitments []*big.Int
	nullifiers  map[string]bool
}

// ledgerFile is the JSON persistence shape. Felts are stored as hex strings.
type ledgerFile struct {
	Commitments []string `json:"commitments"`
	Nullifiers  []string `json:"nullifiers"`
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		commitments: make([]*big.Int, 0),
		nullifiers:  make(map[string]bool),
	}
}

// Append records a new commitment leaf and returns its index.
func (l *MemoryLedger) Append(commitment *big.Int) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commitments = append(l.commitments, new(big.Int).Set(commitment))
	return uint64(len(l.commitments) - 1)
}

// MarkNullifier records a spend. Returns ErrDoubleSpend if the nullifier is
// already present.
func (l *MemoryLedger) MarkNullifier(nf *big.Int) error {
	key := nf.Text(16)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.nullifiers[key] {
		return fmt.Errorf("%w: %s", ErrDoubleSpend, key)
	}
	l.nullifiers[key] = true
	return nil
}

// HasNullifier reports whether the nullifier has been spent.
func (l *MemoryLedger) HasNullifier(nf *big.Int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nullifiers[nf.Text(16)]
}

// LeafCount implements StorageReader.
func (l *MemoryLedger) LeafCount(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.commitments)), nil
}

// LeafAt implements StorageReader.
func (l *MemoryLedger) LeafAt(_ context.Context, index uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index >= uint64(len(l.commitments)) {
		return nil, fmt.Errorf("%w: index %d, %d leaves", ErrIndexOutOfRange, index, len(l.commitments))
	}
	return new(big.Int).Set(l.commitments[index]), nil
}

// SaveToFile persists the ledger as JSON, overwriting any existing file.
func (l *MemoryLedger) SaveToFile(path string) error {
	l.mu.RLock()
	out := ledgerFile{
		Commitments: make([]string, len(l.commitments)),
		Nullifiers:  make([]string, 0, len(l.nullifiers)),
	}
	for i, c := range l.commitments {
		out.Commitments[i] = c.Text(16)
	}
	for nf := range l.nullifiers {
		out.Nullifiers = append(out.Nullifiers, nf)
	}
	l.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// LoadLedgerFromFile restores a ledger saved by SaveToFile.
func LoadLedgerFromFile(path string) (*MemoryLedger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var in ledgerFile
	if err := json.NewDecoder(f).Decode(&in); err != nil {
		return nil, fmt.Errorf("merkle: decoding ledger file: %w", err)
	}

	l := NewMemoryLedger()
	for i, c := range in.Commitments {
		v, ok := new(big.Int).SetString(c, 16)
		if !ok {
			return nil, fmt.Errorf("merkle: ledger file commitment %d is not hex", i)
		}
		l.commitments = append(l.commitments, v)
	}
	for _, nf := range in.Nullifiers {
		l.nullifiers[nf] = true
	}
	return l, nil
}

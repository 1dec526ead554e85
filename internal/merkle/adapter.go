// adapter.go - On-chain storage adapter for the commitment tree.
//
// The contract stores leaves but not inner nodes, so the client mirrors the
// tree locally: read the leaf count, fetch every leaf, rebuild, and serve
// proofs from the mirror. Leaf reads run concurrently with a bounded worker
// count since storage backends rate-limit aggressive readers.

package merkle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultFetchWorkers = 10

// StorageReader reads commitment leaves from the backing store. Both calls
// must be safe for concurrent use.
type StorageReader interface {
	LeafCount(ctx context.Context) (uint64, error)
	LeafAt(ctx context.Context, index uint64) (*big.Int, error)
}

// Session mirrors the on-chain tree and serves membership proofs. A session
// caches one rebuilt tree at a time; Sync refreshes it, Invalidate drops it.
type Session struct {
	reader  StorageReader
	scheme  hashScheme
	workers int
	log     zerolog.Logger

	mu   sync.Mutex
	tree *Tree
}

// hashScheme is the subset of felthash.Scheme the session needs. Declared
// locally so the adapter can be exercised with a stub in tests.
type hashScheme interface {
	Name() string
	Hash(inputs ...*big.Int) (*big.Int, error)
}

// NewSession wires a session to a storage reader.
func NewSession(reader StorageReader, scheme hashScheme, log zerolog.Logger) *Session {
	return &Session{
		reader:  reader,
		scheme:  scheme,
		workers: defaultFetchWorkers,
		log:     log.With().Str("component", "merkle-session").Logger(),
	}
}

// SetFetchWorkers overrides the concurrent leaf-read limit.
func (s *Session) SetFetchWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// Sync refetches all leaves and rebuilds the mirror. The previous tree stays
// in service until the replacement is complete.
func (s *Session) Sync(ctx context.Context) error {
	count, err := s.reader.LeafCount(ctx)
	if err != nil {
		return fmt.Errorf("merkle: reading leaf count: %w", err)
	}

	leaves := make([]*big.Int, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := uint64(0); i < count; i++ {
		g.Go(func() error {
			leaf, err := s.reader.LeafAt(gctx, i)
			if err != nil {
				return fmt.Errorf("merkle: reading leaf %d: %w", i, err)
			}
			leaves[i] = leaf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tree, err := RebuildTree(s.scheme, leaves)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()
	s.log.Debug().
		Uint64("leaves", count).
		Int("depth", tree.Depth()).
		Str("root", tree.Root().Text(16)).
		Msg("tree mirror rebuilt")
	return nil
}

// Root returns the mirrored root, syncing first if no mirror exists yet.
func (s *Session) Root(ctx context.Context) (*big.Int, error) {
	tree, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Root(), nil
}

// ProofFor builds a membership proof for the given leaf value. If the leaf
// is absent the mirror is refreshed once before giving up, which covers the
// common case of a deposit confirmed since the last sync.
func (s *Session) ProofFor(ctx context.Context, leaf *big.Int) (*Proof, error) {
	tree, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	idx, ok := tree.IndexOf(leaf)
	if !ok {
		s.log.Debug().Str("leaf", leaf.Text(16)).Msg("leaf missing from mirror, resyncing")
		if err := s.Sync(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		tree = s.tree
		s.mu.Unlock()
		idx, ok = tree.IndexOf(leaf)
		if !ok {
			return nil, ErrLeafNotFound
		}
	}
	return tree.GenerateProof(idx)
}

// Invalidate drops the cached mirror; the next call resyncs.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.tree = nil
	s.mu.Unlock()
}

func (s *Session) current(ctx context.Context) (*Tree, error) {
	s.mu.Lock()
	tree := s.tree
	s.mu.Unlock()
	if tree != nil {
		return tree, nil
	}
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	tree = s.tree
	s.mu.Unlock()
	return tree, nil
}

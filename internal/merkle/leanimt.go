// leanimt.go - Lean incremental Merkle tree over felt leaves.
//
// A lean tree never pads with zero leaves: a node without a right sibling is
// carried up unchanged, so the tree has exactly as many hash invocations as
// the leaf set demands and proofs hold only the siblings that exist. The
// depth follows the leaf count (0 for empty, 1 for a single leaf, otherwise
// ceil(log2(n))), matching the on-chain contract's insertion logic.

package merkle

import (
	"errors"
	"fmt"
	"math/big"

	"shroud/internal/felthash"
)

var (
	// ErrLeafNotFound is returned when a proof is requested for an absent leaf.
	ErrLeafNotFound = errors.New("merkle: leaf not found")
	// ErrIndexOutOfRange is returned for a leaf index past the tree edge.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
)

// HashPair combines two child nodes into their parent.
func HashPair(s felthash.Scheme, left, right *big.Int) (*big.Int, error) {
	return felthash.HashWithDomain(s, felthash.TagMerkleNode, left, right)
}

// CalculateDepth returns the tree depth for n leaves.
func CalculateDepth(n uint64) int {
	if n == 0 {
		return 0
	}
	depth := 0
	for uint64(1)<<depth < n {
		depth++
	}
	if depth == 0 {
		// A single leaf still hangs one level below the root.
		depth = 1
	}
	return depth
}

// Tree is a fully materialized lean tree. Levels[0] is the leaf row; the top
// level holds the single root node.
type Tree struct {
	levels [][]*big.Int
	depth  int
}

// RebuildTree constructs the tree bottom-up from the full leaf set.
func RebuildTree(s felthash.Scheme, leaves []*big.Int) (*Tree, error) {
	depth := CalculateDepth(uint64(len(leaves)))
	levels := make([][]*big.Int, depth+1)
	levels[0] = leaves

	for lvl := 0; lvl < depth; lvl++ {
		row := levels[lvl]
		next := make([]*big.Int, (len(row)+1)/2)
		for i := 0; i < len(row); i += 2 {
			if i+1 < len(row) {
				parent, err := HashPair(s, row[i], row[i+1])
				if err != nil {
					return nil, fmt.Errorf("merkle: level %d node %d: %w", lvl, i/2, err)
				}
				next[i/2] = parent
			} else {
				// No right sibling; the node rides up as-is.
				next[i/2] = row[i]
			}
		}
		levels[lvl+1] = next
	}
	return &Tree{levels: levels, depth: depth}, nil
}

// Root returns the tree root, or zero for an empty tree.
func (t *Tree) Root() *big.Int {
	top := t.levels[t.depth]
	if len(top) == 0 {
		return new(big.Int)
	}
	return top[0]
}

// Depth returns the tree depth.
func (t *Tree) Depth() int { return t.depth }

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() uint64 { return uint64(len(t.levels[0])) }

// IndexOf returns the index of the first leaf equal to value.
func (t *Tree) IndexOf(value *big.Int) (uint64, bool) {
	for i, leaf := range t.levels[0] {
		if leaf.Cmp(value) == 0 {
			return uint64(i), true
		}
	}
	return 0, false
}

// ProofStep is one hop of a membership proof. IsLeft reports whether the
// sibling sits on the left of the running hash.
type ProofStep struct {
	Sibling *big.Int `json:"sibling"`
	IsLeft  bool     `json:"isLeft"`
}

// Proof is a lean membership proof: only levels where a sibling exists
// contribute a step.
type Proof struct {
	Leaf      *big.Int    `json:"leaf"`
	LeafIndex uint64      `json:"leafIndex"`
	Root      *big.Int    `json:"root"`
	Steps     []ProofStep `json:"steps"`
}

// GenerateProof builds the membership proof for the leaf at index.
func (t *Tree) GenerateProof(index uint64) (*Proof, error) {
	if index >= t.LeafCount() {
		return nil, fmt.Errorf("%w: index %d, %d leaves", ErrIndexOutOfRange, index, t.LeafCount())
	}
	proof := &Proof{
		Leaf:      t.levels[0][index],
		LeafIndex: index,
		Root:      t.Root(),
	}
	idx := index
	for lvl := 0; lvl < t.depth; lvl++ {
		row := t.levels[lvl]
		sib := idx ^ 1
		if sib < uint64(len(row)) {
			proof.Steps = append(proof.Steps, ProofStep{
				Sibling: row[sib],
				IsLeft:  sib < idx,
			})
		}
		idx >>= 1
	}
	return proof, nil
}

// VerifyProof folds the steps from the leaf up and compares against the root.
func VerifyProof(s felthash.Scheme, proof *Proof) bool {
	if proof == nil || proof.Leaf == nil || proof.Root == nil {
		return false
	}
	node := proof.Leaf
	for _, step := range proof.Steps {
		if step.Sibling == nil {
			return false
		}
		var (
			parent *big.Int
			err    error
		)
		if step.IsLeft {
			parent, err = HashPair(s, step.Sibling, node)
		} else {
			parent, err = HashPair(s, node, step.Sibling)
		}
		if err != nil {
			return false
		}
		node = parent
	}
	return node.Cmp(proof.Root) == 0
}

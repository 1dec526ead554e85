// domain.go - Domain separator tags.
//
// Every tag below is part of the compatibility contract with the on-chain
// verifier and must match it byte for byte. Tags are short ASCII strings
// interpreted as big-endian felts, the same convention the verifier uses for
// its shortstring constants.

package felthash

import "math/big"

const (
	tagNullifier  = "shroud/nullifier/v1"
	tagMerkleNode = "shroud/merkle-node/v1"
	tagKeyImage   = "shroud/key-image/v1"
	tagViewTag    = "shroud/view-tag/v1"
	tagAEKey      = "shroud/ae-enc/v1"
	tagAEMac      = "shroud/ae-mac/v1"
	tagStealth    = "shroud/stealth/v1"
	tagChallenge  = "shroud/fiat-shamir/v1"
	tagCommitID   = "shroud/commitment-id/v1"
)

// Tag felts, fixed at init. Short ASCII strings are always below the field
// prime, so the byte interpretation is already canonical.
var (
	TagNullifier  = tagFelt(tagNullifier)
	TagMerkleNode = tagFelt(tagMerkleNode)
	TagKeyImage   = tagFelt(tagKeyImage)
	TagViewTag    = tagFelt(tagViewTag)
	TagAEKey      = tagFelt(tagAEKey)
	TagAEMac      = tagFelt(tagAEMac)
	TagStealth    = tagFelt(tagStealth)
	TagChallenge  = tagFelt(tagChallenge)
	TagCommitID   = tagFelt(tagCommitID)
)

func tagFelt(tag string) *big.Int {
	return new(big.Int).SetBytes([]byte(tag))
}

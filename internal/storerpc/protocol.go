// protocol.go - Wire envelope for the leaf store RPC.
//
// One POST endpoint, one generic envelope. The method string selects the
// payload shape, which keeps the store surface extensible without new routes.
// Felts travel as 0x-hex strings so the JSON stays readable in fixtures and
// on the wire.

package storerpc

import "encoding/json"

// Request is the generic envelope for any call to the store.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the generic reply envelope. Error is empty on success.
type Response struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// Method names understood by the store.
const (
	MethodPing          = "ping"
	MethodLeafCount     = "leaf_count"
	MethodLeafAt        = "leaf_at"
	MethodAppendLeaf    = "append_leaf"
	MethodHasNullifier  = "has_nullifier"
	MethodMarkNullifier = "mark_nullifier"
)

// LeafAtParams selects a leaf by index.
type LeafAtParams struct {
	Index uint64 `json:"index"`
}

// LeafCountResult carries the current leaf count.
type LeafCountResult struct {
	Count uint64 `json:"count"`
}

// LeafResult carries one leaf as a 0x-hex felt.
type LeafResult struct {
	Leaf string `json:"leaf"`
}

// AppendLeafParams submits a new commitment leaf.
type AppendLeafParams struct {
	Leaf string `json:"leaf"`
}

// AppendLeafResult returns the index assigned to the new leaf.
type AppendLeafResult struct {
	Index uint64 `json:"index"`
}

// NullifierParams names a nullifier as a 0x-hex felt.
type NullifierParams struct {
	Nullifier string `json:"nullifier"`
}

// SpentResult reports whether a nullifier has been recorded.
type SpentResult struct {
	Spent bool `json:"spent"`
}

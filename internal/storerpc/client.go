// client.go - HTTP client for a remote leaf store.
//
// The client satisfies merkle.StorageReader, so a tree session can mirror a
// remote store the same way it mirrors an in-process ledger.

package storerpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"shroud/internal/curve"
)

const defaultRequestTimeout = 5 * time.Second

var (
	// ErrStoreRejected is returned when the store answers with an error
	// envelope.
	ErrStoreRejected = errors.New("storerpc: store rejected request")
	// ErrBadStatus is returned for non-OK HTTP statuses.
	ErrBadStatus = errors.New("storerpc: unexpected http status")
)

// Client talks to one remote store endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the store at baseURL (scheme and host, no
// trailing slash).
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		log:     log.With().Str("component", "store-client").Logger(),
	}
}

// call performs one round trip and decodes the result into out (which may be
// nil for calls without a result payload).
func (c *Client) call(ctx context.Context, method string, params, out interface{}) error {
	req := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("storerpc: marshaling %s params: %w", method, err)
		}
		req.Params = raw
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("storerpc: marshaling %s envelope: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("storerpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s for %s", ErrBadStatus, resp.Status, method)
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("storerpc: decoding %s response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("%w: %s: %s", ErrStoreRejected, method, envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("storerpc: decoding %s result: %w", method, err)
		}
	}
	return nil
}

// Ping checks the store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, MethodPing, nil, nil)
}

// LeafCount implements merkle.StorageReader.
func (c *Client) LeafCount(ctx context.Context) (uint64, error) {
	var res LeafCountResult
	if err := c.call(ctx, MethodLeafCount, nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

// LeafAt implements merkle.StorageReader.
func (c *Client) LeafAt(ctx context.Context, index uint64) (*big.Int, error) {
	var res LeafResult
	if err := c.call(ctx, MethodLeafAt, LeafAtParams{Index: index}, &res); err != nil {
		return nil, err
	}
	leaf, err := curve.HexToFelt(res.Leaf)
	if err != nil {
		return nil, fmt.Errorf("storerpc: leaf %d: %w", index, err)
	}
	return leaf, nil
}

// AppendLeaf submits a commitment leaf and returns its assigned index.
func (c *Client) AppendLeaf(ctx context.Context, leaf *big.Int) (uint64, error) {
	var res AppendLeafResult
	err := c.call(ctx, MethodAppendLeaf, AppendLeafParams{Leaf: curve.FeltToHex(leaf)}, &res)
	if err != nil {
		return 0, err
	}
	c.log.Debug().Uint64("index", res.Index).Msg("leaf appended")
	return res.Index, nil
}

// HasNullifier reports whether the store has recorded the nullifier.
func (c *Client) HasNullifier(ctx context.Context, nf *big.Int) (bool, error) {
	var res SpentResult
	err := c.call(ctx, MethodHasNullifier, NullifierParams{Nullifier: curve.FeltToHex(nf)}, &res)
	if err != nil {
		return false, err
	}
	return res.Spent, nil
}

// MarkNullifier records a spend. A double spend comes back as
// ErrStoreRejected.
func (c *Client) MarkNullifier(ctx context.Context, nf *big.Int) error {
	return c.call(ctx, MethodMarkNullifier, NullifierParams{Nullifier: curve.FeltToHex(nf)}, nil)
}

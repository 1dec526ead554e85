// server.go - Leaf store server fronting a ledger.
//
// Serves the RPC surface over a single POST /rpc route. Intended for local
// deployments and tests; a production pool points the client at the real
// chain gateway instead.

package storerpc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"shroud/internal/curve"
	"shroud/internal/merkle"
)

// Server exposes a MemoryLedger over the store RPC protocol.
type Server struct {
	ledger   *merkle.MemoryLedger
	throttle *PeerThrottle
	log      zerolog.Logger
}

// NewServer wraps a ledger. Pass a nil throttle to disable rate limiting.
func NewServer(ledger *merkle.MemoryLedger, throttle *PeerThrottle, log zerolog.Logger) *Server {
	return &Server{
		ledger:   ledger,
		throttle: throttle,
		log:      log.With().Str("component", "store-server").Logger(),
	}
}

// Handler returns the HTTP handler for the store.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)
	return mux
}

// ListenAndServe runs the store on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("store listening")
	return srv.ListenAndServe()
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.throttle != nil {
		peer, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			peer = r.RemoteAddr
		}
		if !s.throttle.Allow(peer) {
			s.log.Warn().Str("peer", peer).Msg("request throttled")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, Response{OK: false, Error: "invalid request body"})
		return
	}
	writeResponse(w, s.dispatch(r.Context(), req))
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodPing:
		return okResponse(nil)

	case MethodLeafCount:
		count, err := s.ledger.LeafCount(ctx)
		if err != nil {
			return errResponse(err)
		}
		return okResponse(LeafCountResult{Count: count})

	case MethodLeafAt:
		var params LeafAtParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(err)
		}
		leaf, err := s.ledger.LeafAt(ctx, params.Index)
		if err != nil {
			return errResponse(err)
		}
		return okResponse(LeafResult{Leaf: curve.FeltToHex(leaf)})

	case MethodAppendLeaf:
		var params AppendLeafParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(err)
		}
		leaf, err := curve.HexToFelt(params.Leaf)
		if err != nil {
			return errResponse(err)
		}
		idx := s.ledger.Append(leaf)
		s.log.Debug().Uint64("index", idx).Msg("leaf accepted")
		return okResponse(AppendLeafResult{Index: idx})

	case MethodHasNullifier:
		var params NullifierParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(err)
		}
		nf, err := curve.HexToFelt(params.Nullifier)
		if err != nil {
			return errResponse(err)
		}
		return okResponse(SpentResult{Spent: s.ledger.HasNullifier(nf)})

	case MethodMarkNullifier:
		var params NullifierParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(err)
		}
		nf, err := curve.HexToFelt(params.Nullifier)
		if err != nil {
			return errResponse(err)
		}
		if err := s.ledger.MarkNullifier(nf); err != nil {
			return errResponse(err)
		}
		return okResponse(nil)

	default:
		return Response{OK: false, Error: "unknown method: " + req.Method}
	}
}

func okResponse(result interface{}) Response {
	resp := Response{OK: true}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return errResponse(err)
		}
		resp.Result = raw
	}
	return resp
}

func errResponse(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

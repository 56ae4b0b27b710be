// Package rpc exposes the node's HTTP control surface: start/stop the
// miner and transaction generator, ping the network, and inspect the
// longest chain and its per-block account state.
package rpc

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/chronodrachma/chrd/pkg/config"
	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/types"
	"github.com/chronodrachma/chrd/pkg/generator"
	"github.com/chronodrachma/chrd/pkg/miner"
	"github.com/chronodrachma/chrd/pkg/p2p"
)

// Server is the HTTP control surface: a thin layer over the miner,
// generator, network, and chain collaborators that already do the real
// work. It holds no chain state of its own.
type Server struct {
	chain     *chainstore.Chain
	state     *chainstore.BlockState
	mempool   *mempool.Mempool
	miner     *miner.Miner
	generator *generator.Generator
	network   *p2p.Server

	generatorStarted bool
}

// NewServer constructs the HTTP control surface over the node's shared
// collaborators.
func NewServer(chain *chainstore.Chain, state *chainstore.BlockState, mp *mempool.Mempool, m *miner.Miner, g *generator.Generator, network *p2p.Server) *Server {
	return &Server{
		chain:     chain,
		state:     state,
		mempool:   mp,
		miner:     m,
		generator: g,
		network:   network,
	}
}

// Start blocks serving HTTP on addr. Every known route answers 200, even
// on a bad request: errors and the control routes' results come back as a
// {success, message} envelope, while the /blockchain/* routes answer a
// successful query with a plain JSON array. Only an unrecognized path
// falls through to the mux's default 404.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/miner/start", s.handleMinerStart)
	mux.HandleFunc("/tx-generator/start", s.handleGeneratorStart)
	mux.HandleFunc("/network/ping", s.handleNetworkPing)
	mux.HandleFunc("/blockchain/longest-chain", s.handleLongestChain)
	mux.HandleFunc("/blockchain/longest-chain-tx", s.handleLongestChainTx)
	mux.HandleFunc("/blockchain/state", s.handleBlockchainState)
	mux.HandleFunc("/tx/submit", s.handleTxSubmit)

	log.Printf("rpc: listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, message string) {
	writeJSON(w, response{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, response{Success: false, Message: message})
}

// POST /miner/start?lambda=<u64>
func (s *Server) handleMinerStart(w http.ResponseWriter, r *http.Request) {
	lambdaStr := r.URL.Query().Get("lambda")
	lambda, err := strconv.ParseUint(lambdaStr, 10, 64)
	if err != nil {
		writeError(w, "invalid or missing lambda parameter")
		return
	}

	s.miner.Control() <- miner.ControlMessage{Signal: miner.ControlStart, LambdaMicros: lambda}
	writeResult(w, fmt.Sprintf("miner started with lambda=%d microseconds", lambda))
}

// POST /tx-generator/start?theta=<u64>
func (s *Server) handleGeneratorStart(w http.ResponseWriter, r *http.Request) {
	thetaStr := r.URL.Query().Get("theta")
	theta, err := strconv.ParseUint(thetaStr, 10, 64)
	if err != nil {
		writeError(w, "invalid or missing theta parameter")
		return
	}

	k := config.GeneratorThetaMultiplierMin + rand.Float64()*(config.GeneratorThetaMultiplierMax-config.GeneratorThetaMultiplierMin)
	interval := time.Duration(k*float64(theta)) * time.Millisecond

	if !s.generatorStarted {
		s.generatorStarted = true
		go s.generator.Run(interval)
	} else {
		s.generator.SetInterval(interval)
	}

	writeResult(w, fmt.Sprintf("transaction generator started with interval=%s", interval))
}

// POST /network/ping
func (s *Server) handleNetworkPing(w http.ResponseWriter, r *http.Request) {
	s.network.Ping(strconv.FormatInt(time.Now().UnixNano(), 10))
	writeResult(w, "ping broadcast to all peers")
}

// GET /blockchain/longest-chain
func (s *Server) handleLongestChain(w http.ResponseWriter, r *http.Request) {
	chain, err := s.chain.LongestChain()
	if err != nil {
		writeError(w, fmt.Sprintf("failed to read longest chain: %v", err))
		return
	}

	hashes := make([]string, len(chain))
	for i, h := range chain {
		hashes[i] = h.Hex()
	}
	writeJSON(w, hashes)
}

// GET /blockchain/longest-chain-tx
func (s *Server) handleLongestChainTx(w http.ResponseWriter, r *http.Request) {
	chain, err := s.chain.LongestChain()
	if err != nil {
		writeError(w, fmt.Sprintf("failed to read longest chain: %v", err))
		return
	}

	out := make([][]string, len(chain))
	for i, hash := range chain {
		block, err := s.chain.Block(hash)
		if err != nil {
			writeError(w, fmt.Sprintf("failed to read block %s: %v", hash.Hex(), err))
			return
		}
		txHashes := make([]string, len(block.Content.Transactions))
		for j := range block.Content.Transactions {
			txHashes[j] = block.Content.Transactions[j].Hash().Hex()
		}
		out[i] = txHashes
	}
	writeJSON(w, out)
}

// GET /blockchain/state?block=<u64>
func (s *Server) handleBlockchainState(w http.ResponseWriter, r *http.Request) {
	heightStr := r.URL.Query().Get("block")
	height, err := strconv.ParseUint(heightStr, 10, 64)
	if err != nil {
		writeError(w, "invalid or missing block parameter")
		return
	}

	chain, err := s.chain.LongestChain()
	if err != nil {
		writeError(w, fmt.Sprintf("failed to read longest chain: %v", err))
		return
	}
	if height >= uint64(len(chain)) {
		writeError(w, fmt.Sprintf("no block at height %d on the longest chain", height))
		return
	}

	hash := chain[height]
	accounts, err := s.state.Get(hash)
	if err != nil {
		writeError(w, fmt.Sprintf("state not yet available for block %s: %v", hash.Hex(), err))
		return
	}

	entries := make([]string, 0, len(accounts))
	for addr, acct := range accounts {
		entries = append(entries, fmt.Sprintf("(%s, %d, %d)", addr.Hex(), acct.Nonce, acct.Balance))
	}
	writeJSON(w, entries)
}

// POST /tx/submit
// Body: a JSON-encoded types.SignedTransaction. Not named in spec.md's
// HTTP control surface, but the CLI wallet's send subcommand needs some
// way to hand a signed transaction to a node; this is that collaborator.
func (s *Server) handleTxSubmit(w http.ResponseWriter, r *http.Request) {
	var st types.SignedTransaction
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := st.Verify(); err != nil {
		writeError(w, fmt.Sprintf("rejected: %v", err))
		return
	}
	if !s.mempool.Insert(st) {
		writeError(w, "rejected: transaction already seen")
		return
	}

	hash := st.Hash()
	s.network.BroadcastNewTransactionHashes([]types.Hash{hash})
	writeResult(w, fmt.Sprintf("submitted %s", hash.Hex()))
}

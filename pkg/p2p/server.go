package p2p

import (
	"log"
	"net"
	"sync"

	"github.com/chronodrachma/chrd/pkg/core/chainstore"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// ServerConfig holds the transport-level settings that are this node's
// external collaborator: bind address and initial peer list.
type ServerConfig struct {
	ListenAddr string
	SeedNodes  []string
	Workers    int // network worker pool size; <= 0 uses DefaultWorkers
}

// DefaultWorkers is the reference worker-pool size.
const DefaultWorkers = 4

// Server manages peer connections and owns the network worker pool that
// processes everything they send.
type Server struct {
	Config ServerConfig
	pool   *Pool

	peers  map[string]*Peer
	peerMu sync.RWMutex

	listener net.Listener
	quit     chan struct{}
}

// NewServer constructs a Server. chain, state, and mp are shared with the
// miner and generator; the worker pool reads and writes them under their
// own locks.
func NewServer(config ServerConfig, chain *chainstore.Chain, state *chainstore.BlockState, mp *mempool.Mempool) *Server {
	s := &Server{
		Config: config,
		peers:  make(map[string]*Peer),
		quit:   make(chan struct{}),
	}
	s.pool = NewPool(chain, state, mp, s)
	return s
}

// Start begins listening, dials the configured seed nodes, and launches
// the network worker pool.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.Config.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = l
	log.Printf("p2p: listening on %s", s.Config.ListenAddr)

	workers := s.Config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	s.pool.Start(workers)

	for _, seed := range s.Config.SeedNodes {
		go s.Connect(seed)
	}

	go s.acceptLoop()
	return nil
}

// Stop closes the listener, every peer connection, and the worker pool.
func (s *Server) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	// Collect peers under the lock but stop them after releasing it: each
	// peer's read loop calls RemovePeer, which takes peerMu.
	s.peerMu.Lock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.peerMu.Unlock()
	for _, p := range peers {
		p.Stop()
	}
	s.pool.Close()
}

// Connect dials a peer address and registers it as outbound.
func (s *Server) Connect(addr string) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Printf("p2p: failed to connect to %s: %v", addr, err)
		return
	}
	s.addPeer(conn, true)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("p2p: accept error: %v", err)
				continue
			}
		}
		s.addPeer(conn, false)
	}
}

func (s *Server) addPeer(conn net.Conn, outbound bool) {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()

	addr := conn.RemoteAddr().String()
	if _, ok := s.peers[addr]; ok {
		conn.Close()
		return
	}

	p := NewPeer(conn, s, outbound)
	s.peers[addr] = p
	p.Start()
	log.Printf("p2p: peer connected: %s (outbound=%v)", addr, outbound)
}

// RemovePeer deregisters and stops a peer.
func (s *Server) RemovePeer(p *Peer) {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()

	addr := p.Conn.RemoteAddr().String()
	if _, ok := s.peers[addr]; !ok {
		return
	}
	delete(s.peers, addr)
	log.Printf("p2p: peer disconnected: %s", addr)
}

// Broadcast sends msg to every connected peer. Locks are released before
// any peer write: each send runs on its own goroutine.
func (s *Server) Broadcast(msg Message) {
	s.peerMu.RLock()
	peers := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.peerMu.RUnlock()

	for _, p := range peers {
		go func(p *Peer) {
			if err := p.Send(msg); err != nil {
				log.Printf("p2p: send to %s failed: %v", p.Conn.RemoteAddr(), err)
			}
		}(p)
	}
}

// BroadcastNewBlockHashes announces freshly accepted block hashes to
// every peer. Satisfies miner.Broadcaster.
func (s *Server) BroadcastNewBlockHashes(hashes []types.Hash) {
	s.Broadcast(&MsgNewBlockHashes{Hashes: hashes})
}

// BroadcastNewTransactionHashes announces newly admitted transaction
// hashes to every peer.
func (s *Server) BroadcastNewTransactionHashes(hashes []types.Hash) {
	s.Broadcast(&MsgNewTransactionHashes{Hashes: hashes})
}

// Ping sends a liveness probe to every connected peer.
func (s *Server) Ping(nonce string) {
	s.Broadcast(&MsgPing{Nonce: nonce})
}

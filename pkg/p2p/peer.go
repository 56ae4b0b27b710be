package p2p

import (
	"log"
	"net"
	"sync"
)

// Peer represents a connected remote node.
type Peer struct {
	Conn     net.Conn
	Server   *Server
	Outbound bool // true if we initiated the connection
	wg       sync.WaitGroup
	quit     chan struct{}
}

// NewPeer creates a new peer instance.
func NewPeer(conn net.Conn, server *Server, outbound bool) *Peer {
	return &Peer{
		Conn:     conn,
		Server:   server,
		Outbound: outbound,
		quit:     make(chan struct{}),
	}
}

// Start begins the peer's read loop.
func (p *Peer) Start() {
	p.wg.Add(1)
	go p.readLoop()
}

// Stop closes the peer connection.
func (p *Peer) Stop() {
	close(p.quit)
	p.Conn.Close()
	p.wg.Wait()
}

// readLoop continuously decodes messages and hands them to the server's
// worker pool; it never interprets a message itself.
func (p *Peer) readLoop() {
	defer p.wg.Done()
	defer p.Server.RemovePeer(p)

	for {
		select {
		case <-p.quit:
			return
		default:
			msg, err := DecodeMessage(p.Conn)
			if err != nil {
				log.Printf("p2p: read error from %s: %v", p.Conn.RemoteAddr(), err)
				return
			}
			p.Server.pool.Enqueue(msg, p)
		}
	}
}

// Send sends a message to the peer.
func (p *Peer) Send(msg Message) error {
	return EncodeMessage(p.Conn, msg)
}

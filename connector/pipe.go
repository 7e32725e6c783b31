package connector

import (
	"sync"

	"github.com/fleetlink/core/wire"
)

// PipeConnector is an in-memory Connector used by tests and by the
// basic end-to-end examples: two PipeConnectors built via NewPipe are
// cross-wired so that Send on one synchronously invokes the Receiver on the
// other, giving fully deterministic ordering without a real socket.
type PipeConnector struct {
	name string
	seq  SeqGen

	mu   sync.Mutex
	peer *PipeConnector
	recv Receiver

	closed bool
}

// NewPipe builds a connected pair of PipeConnectors, analogous to net.Pipe
// but framed in Envelopes instead of bytes.
func NewPipe(nameA, nameB string) (a, b *PipeConnector) {
	a = &PipeConnector{name: nameA}
	b = &PipeConnector{name: nameB}
	a.peer = b
	b.peer = a
	return a, b
}

// Send implements Connector.
func (p *PipeConnector) Send(msgType string, data []byte) (int64, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	seq := p.seq.Next()
	peer := p.peer
	p.mu.Unlock()

	env := wire.Envelope{Type: msgType, Seq: seq, Data: append([]byte(nil), data...)}

	peer.mu.Lock()
	recv := peer.recv
	peerClosed := peer.closed
	peer.mu.Unlock()

	if !peerClosed && recv != nil {
		recv(env)
	}
	return seq, nil
}

// SendResponse implements Connector, writing seq verbatim (Invariant 5).
func (p *PipeConnector) SendResponse(msgType string, seq int64, data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	peer := p.peer
	p.mu.Unlock()

	env := wire.Envelope{Type: msgType, Seq: seq, Data: append([]byte(nil), data...)}

	peer.mu.Lock()
	recv := peer.recv
	peerClosed := peer.closed
	peer.mu.Unlock()

	if !peerClosed && recv != nil {
		recv(env)
	}
	return nil
}

// SetReceiver implements Connector.
func (p *PipeConnector) SetReceiver(r Receiver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recv = r
}

// Start implements Connector. PipeConnector delivers synchronously from
// Send, so Start is a no-op that returns immediately.
func (p *PipeConnector) Start() error { return nil }

// Close implements Connector.
func (p *PipeConnector) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

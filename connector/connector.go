// Package connector provides the transport-agnostic Connector (spec §4.3):
// framed send with sequence assignment, and delivery of inbound envelopes to
// a receiver callback. The teacher's SQSClient interface (types.go) is
// generalized here from an SQS-specific polling API to an arbitrary
// full-duplex envelope stream, since the spec's transport is "a reliable,
// ordered, full-duplex message stream of discrete JSON-like structured
// values" rather than a queue.
package connector

import (
	"fmt"
	"sync/atomic"

	"github.com/fleetlink/core/wire"
)

// Receiver is invoked once per inbound envelope, in arrival order.
type Receiver func(wire.Envelope)

// Connector is the transport adapter a Link is built on. It assigns
// monotonic per-endpoint sequence numbers to outbound envelopes and
// surfaces inbound envelopes through a registered Receiver. A Connector
// guarantees ordered delivery within one direction but makes no guarantee
// across reconnects — sequence space MAY reset, and in-flight requests at
// disconnect are discarded (spec §4.3).
type Connector interface {
	// Send assigns the next sequence number, frames {type, seq, data} and
	// transmits it, returning the assigned seq.
	Send(msgType string, data []byte) (seq int64, err error)
	// SendResponse frames {type, seq, data} using the caller-supplied seq
	// verbatim rather than drawing from the sequence generator: a response
	// is always sent with the same seq as the request it answers
	// (Invariant 5), not a freshly assigned one.
	SendResponse(msgType string, seq int64, data []byte) error
	// SetReceiver installs the callback invoked for every inbound envelope.
	// Must be called before Start.
	SetReceiver(r Receiver)
	// Start begins reading inbound envelopes; it returns once the
	// underlying transport is closed or ctx-equivalent cancellation occurs,
	// implementations choosing their own blocking/goroutine strategy.
	Start() error
	// Close tears down the underlying transport. After Close, Send must
	// return an error and no further Receiver calls will occur.
	Close() error
}

// SeqGen is a monotonically increasing sequence number generator, starting
// at 1, independent per Connector instance (i.e. per endpoint per
// direction). Safe for concurrent use.
type SeqGen struct {
	counter int64
}

// Next returns the next sequence number, starting at 1.
func (g *SeqGen) Next() int64 {
	return atomic.AddInt64(&g.counter, 1)
}

// ErrClosed is returned by Send after Close.
var ErrClosed = fmt.Errorf("connector: closed")

package connector

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fleetlink/core/wire"
)

// WSConnector is the default Connector implementation, binding an Envelope
// stream to a real full-duplex socket. Grounded on the
// mutex-guarded-write, read-loop pattern used by the pack's
// thatcooperguy-nvremote heartbeat-websocket.go for exchanging a typed
// {type, payload} envelope over *websocket.Conn.
type WSConnector struct {
	id     string
	conn   *websocket.Conn
	seq    SeqGen
	log    zerolog.Logger
	writeMu sync.Mutex
	meta    map[string]string

	recvMu sync.Mutex
	recv   Receiver

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWSConnector wraps an established *websocket.Conn. The caller is
// responsible for completing any handshake/authentication before
// construction (spec §1 Non-goals).
func NewWSConnector(conn *websocket.Conn, log zerolog.Logger) *WSConnector {
	return NewWSConnectorWithMeta(conn, log, nil)
}

// NewWSConnectorWithMeta wraps an established *websocket.Conn, attaching
// metadata the listener pulled off the upgrade request (e.g. the connecting
// instance's ID) for the accepting node's wiring code to read back via Meta.
func NewWSConnectorWithMeta(conn *websocket.Conn, log zerolog.Logger, meta map[string]string) *WSConnector {
	id := uuid.NewString()
	return &WSConnector{
		id:     id,
		conn:   conn,
		log:    log.With().Str("connector_id", id).Logger(),
		closed: make(chan struct{}),
		meta:   meta,
	}
}

// ID returns this connector's generated identity, stable for its lifetime —
// used as a member key in linkset.Registry.
func (c *WSConnector) ID() string { return c.id }

// Meta returns the metadata the listener attached at accept time (nil for
// a dialed, rather than accepted, connector).
func (c *WSConnector) Meta() map[string]string { return c.meta }

// Send implements Connector.
func (c *WSConnector) Send(msgType string, data []byte) (int64, error) {
	select {
	case <-c.closed:
		return 0, ErrClosed
	default:
	}

	seq := c.seq.Next()
	env := wire.Envelope{Type: msgType, Seq: seq, Data: data}
	raw, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("connector: marshal envelope: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return 0, fmt.Errorf("connector: write: %w", err)
	}
	return seq, nil
}

// SendResponse implements Connector, writing seq verbatim (Invariant 5).
func (c *WSConnector) SendResponse(msgType string, seq int64, data []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	env := wire.Envelope{Type: msgType, Seq: seq, Data: data}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("connector: marshal response envelope: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("connector: write response: %w", err)
	}
	return nil
}

// SetReceiver implements Connector.
func (c *WSConnector) SetReceiver(r Receiver) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()
	c.recv = r
}

// Start implements Connector: reads frames until the socket closes.
func (c *WSConnector) Start() error {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			_ = c.Close()
			return fmt.Errorf("connector: read: %w", err)
		}

		var env wire.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Warn().Err(err).Msg("dropping unparsable inbound frame")
			continue
		}

		c.recvMu.Lock()
		recv := c.recv
		c.recvMu.Unlock()
		if recv != nil {
			recv(env)
		}
	}
}

// Close implements Connector.
func (c *WSConnector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

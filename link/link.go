// Package link implements the Link (spec §4.4), the composition point
// joining a Connector to a handler table, a validator table, and a
// pending-response table for one directional (source, target) connection.
// It replaces the teacher's single, SQS-shaped Router with one Link per
// connection, generalizing Router.coreRoute's validate-resolve-dispatch
// pipeline (router.go) into the correlated request/response plus
// fire-and-forget event model the spec describes.
package link

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/permission"
	"github.com/fleetlink/core/schema"
	"github.com/fleetlink/core/wire"
)

// DefaultTimeout is the per-request default awaiter timeout (Open Question
// resolved in SPEC_FULL.md §C): 30 seconds unless the caller's context
// carries an earlier deadline.
const DefaultTimeout = 30 * time.Second

// HandlerFunc processes an inbound request and returns the response
// payload (nil means "no value", wrapped into an empty object per spec
// §4.4), or an error — a *RequestError for a user-visible refusal, anything
// else treated as Unexpected.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (json.RawMessage, error)

// EventHandlerFunc processes an inbound one-way event. Any returned error
// is logged only; events never produce a response (spec §4.7).
type EventHandlerFunc func(ctx context.Context, data json.RawMessage) error

// DownstreamLookup locates the Links reachable "downward" from this node,
// toward instances — an explicit collection owned by the node, replacing
// Design Note "Broadcast-to-instance traversal over implicit link sets".
type DownstreamLookup interface {
	// ByInstance returns the Link toward the instance (or the host owning
	// it) identified by instanceID.
	ByInstance(instanceID int64) (*Link, bool)
	// All returns every currently connected downstream Link, in a stable
	// iteration order, for broadcast fan-out.
	All() []*Link
}

// UpstreamLookup locates the single Link toward this node's upstream
// (controller).
type UpstreamLookup interface {
	Upstream() (*Link, bool)
}

type entry struct {
	name           string // bare message name, e.g. "start_instance"
	requestHandler HandlerFunc
	eventHandler   EventHandlerFunc
}

// Link is a directional endpoint between two node roles: source and
// target. It owns its Connector, handler table, validator table, and
// pending-response table exclusively — nothing is shared between Links
// other than the immutable message registry (spec §5).
type Link struct {
	Source wire.Role
	Target wire.Role
	Spec   wire.LinkSpec

	conn connector.Connector
	log  zerolog.Logger

	mu         sync.RWMutex
	validators map[string]*schema.Schema
	entries    map[string]*entry
	closed     bool

	pending *pendingTable

	// Identity is set when this Link is the controller-side target of a
	// controller-control connection: the caller identity used for
	// permission checks (Design Note: explicit CallContext replacing
	// this-rebinding).
	Identity *permission.Identity

	Downstream DownstreamLookup
	Upstream   UpstreamLookup
}

// New builds a Link over conn between source and target, deriving Spec via
// wire.NewLinkSpec. The Link installs itself as conn's Receiver.
func New(source, target wire.Role, conn connector.Connector, log zerolog.Logger) (*Link, error) {
	spec, err := wire.NewLinkSpec(source, target)
	if err != nil {
		return nil, err
	}
	l := &Link{
		Source:     source,
		Target:     target,
		Spec:       spec,
		conn:       conn,
		log:        log.With().Str("link", string(spec)).Logger(),
		validators: make(map[string]*schema.Schema),
		entries:    make(map[string]*entry),
		pending:    newPendingTable(),
	}
	conn.SetReceiver(l.dispatch)
	return l, nil
}

// SetRequestHandler registers type's handler and its inbound validator. It
// is a fatal programming error to register the same type twice (spec
// §4.4); the caller (the attach driver) surfaces that as a fatal startup
// error rather than this method panicking directly, keeping Link testable.
func (l *Link) SetRequestHandler(msgType string, name string, h HandlerFunc, validator *schema.Schema) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[msgType]; exists {
		return fmt.Errorf("link: handler already registered for %q", msgType)
	}
	l.entries[msgType] = &entry{name: name, requestHandler: h}
	l.validators[msgType] = validator
	return nil
}

// SetEventHandler registers type's event handler and its inbound validator.
func (l *Link) SetEventHandler(msgType string, name string, h EventHandlerFunc, validator *schema.Schema) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[msgType]; exists {
		return fmt.Errorf("link: handler already registered for %q", msgType)
	}
	l.entries[msgType] = &entry{name: name, eventHandler: h}
	l.validators[msgType] = validator
	return nil
}

// SetValidator registers a validator for type without a handler, used on
// the source side of a request to validate incoming responses.
func (l *Link) SetValidator(msgType string, validator *schema.Schema) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.validators[msgType]; exists {
		return fmt.Errorf("link: validator already registered for %q", msgType)
	}
	l.validators[msgType] = validator
	return nil
}

// dispatch is the Connector's Receiver: it is called once per inbound
// envelope, serially, in arrival order (spec §5).
func (l *Link) dispatch(env wire.Envelope) {
	l.mu.RLock()
	validator, hasValidator := l.validators[env.Type]
	e, hasEntry := l.entries[env.Type]
	l.mu.RUnlock()

	if !hasValidator {
		l.log.Warn().Str("type", env.Type).Msg("dropping envelope: no registered validator")
		return
	}

	fieldErrs, sysErr := validator.Validate(env.Data)
	if sysErr != nil {
		l.log.Error().Err(sysErr).Str("type", env.Type).Msg("schema validation system error")
		return
	}
	if len(fieldErrs) > 0 {
		l.log.Warn().Str("type", env.Type).Int64("seq", env.Seq).Str("errors", schema.FormatErrors(fieldErrs)).
			Msg("dropping envelope: failed schema validation")
		if hasEntry && e.requestHandler != nil {
			respType := responseTypeFor(env.Type)
			_ = l.sendErrorResponse(respType, env.Seq, "invalid request payload")
		}
		return
	}

	if l.pending.resolve(pendingKey{respType: env.Type, seq: env.Seq}, pendingResult{data: env.Data}) {
		return
	}

	if !hasEntry {
		l.log.Warn().Str("type", env.Type).Msg("dropping envelope: no handler or pending awaiter")
		return
	}

	switch {
	case e.requestHandler != nil:
		l.invokeRequest(env, e)
	case e.eventHandler != nil:
		l.invokeEvent(env, e)
	}
}

func responseTypeFor(requestType string) string {
	name := requestType
	if len(name) > len(wire.RequestSuffix) && name[len(name)-len(wire.RequestSuffix):] == wire.RequestSuffix {
		name = name[:len(name)-len(wire.RequestSuffix)]
	}
	return wire.ResponseType(name)
}

func (l *Link) invokeRequest(env wire.Envelope, e *entry) {
	respType := responseTypeFor(env.Type)

	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Str("type", env.Type).Msg("panic in request handler")
			_ = l.sendErrorResponse(respType, env.Seq, genericHandlerError)
		}
	}()

	respData, err := e.requestHandler(context.Background(), env.Data)
	if err != nil {
		var reqErr *RequestError
		if asRequestError(err, &reqErr) {
			_ = l.sendErrorResponse(respType, env.Seq, reqErr.Message)
			return
		}
		l.log.Error().Err(err).Str("type", env.Type).Msg("unexpected error in request handler")
		_ = l.sendErrorResponse(respType, env.Seq, genericHandlerError)
		return
	}
	_ = l.sendSuccessResponse(respType, env.Seq, respData)
}

func asRequestError(err error, target **RequestError) bool {
	if re, ok := err.(*RequestError); ok {
		*target = re
		return true
	}
	return false
}

func (l *Link) invokeEvent(env wire.Envelope, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Str("type", env.Type).Msg("panic in event handler")
		}
	}()
	if err := e.eventHandler(context.Background(), env.Data); err != nil {
		l.log.Error().Err(err).Str("type", env.Type).Msg("event handler error")
	}
}

func (l *Link) sendSuccessResponse(respType string, seq int64, data json.RawMessage) error {
	merged, err := mergeSeq(data, seq)
	if err != nil {
		return err
	}
	return l.conn.SendResponse(respType, seq, merged)
}

func (l *Link) sendErrorResponse(respType string, seq int64, message string) error {
	data, err := json.Marshal(wire.ResponseEnvelope{Seq: seq, Error: message})
	if err != nil {
		return err
	}
	return l.conn.SendResponse(respType, seq, data)
}

func mergeSeq(data json.RawMessage, seq int64) (json.RawMessage, error) {
	obj := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("link: handler result is not a JSON object: %w", err)
		}
	}
	obj["seq"] = seq
	return json.Marshal(obj)
}

// Call performs a correlated request/response exchange: send msgType with
// payload, then block until the matching response arrives, ctx is done, or
// DefaultTimeout elapses (whichever first). It underlies both Request.send
// and the request-forwarding primitives below; the event forwarders use Send.
func (l *Link) Call(ctx context.Context, name string, payload json.RawMessage) (json.RawMessage, error) {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return nil, &DisconnectedError{Link: string(l.Spec)}
	}

	reqType := wire.RequestType(name)
	respType := wire.ResponseType(name)

	seq, err := l.conn.Send(reqType, payload)
	if err != nil {
		return nil, fmt.Errorf("link: send %s: %w", reqType, err)
	}

	key := pendingKey{respType: respType, seq: seq}
	a := l.pending.register(key)

	timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	select {
	case res := <-a.resultC:
		if res.err != nil {
			return nil, res.err
		}
		var resp wire.ResponseEnvelope
		if err := json.Unmarshal(res.data, &resp); err == nil && resp.Error != "" {
			return nil, NewRequestError("%s", resp.Error)
		}
		return res.data, nil
	case <-timeoutCtx.Done():
		l.pending.remove(key)
		if a.resolve(stateTimedOut, pendingResult{}) {
			return nil, &TimeoutError{MessageType: reqType, Seq: seq}
		}
		// Lost the race with a concurrent resolution; read it through.
		return l.drainAfterRace(a)
	}
}

func (l *Link) drainAfterRace(a *awaiter) (json.RawMessage, error) {
	res := <-a.resultC
	if res.err != nil {
		return nil, res.err
	}
	return res.data, nil
}

// Send transmits a one-way event envelope without correlation or await.
func (l *Link) Send(name string, payload json.RawMessage) error {
	_, err := l.conn.Send(wire.EventType(name), payload)
	return err
}

// ForwardRequestToInstance locates the downstream Link owning instanceID
// and relays name/payload to it, awaiting and returning its response.
func (l *Link) ForwardRequestToInstance(ctx context.Context, name string, instanceID int64, payload json.RawMessage) (json.RawMessage, error) {
	if l.Downstream == nil {
		return nil, NewRequestError("instance %d is not reachable from this node", instanceID)
	}
	target, ok := l.Downstream.ByInstance(instanceID)
	if !ok {
		return nil, NewRequestError("instance %d is not assigned", instanceID)
	}
	return target.Call(ctx, name, payload)
}

// ForwardRequestToController relays name/payload to this node's upstream
// Link, awaiting and returning its response.
func (l *Link) ForwardRequestToController(ctx context.Context, name string, payload json.RawMessage) (json.RawMessage, error) {
	if l.Upstream == nil {
		return nil, NewRequestError("no upstream controller link available")
	}
	up, ok := l.Upstream.Upstream()
	if !ok {
		return nil, NewRequestError("upstream controller link is not connected")
	}
	return up.Call(ctx, name, payload)
}

// ForwardEventToInstance relays a one-way event to the downstream Link
// owning instanceID.
func (l *Link) ForwardEventToInstance(name string, instanceID int64, payload json.RawMessage) error {
	if l.Downstream == nil {
		return fmt.Errorf("link: instance %d is not reachable from this node", instanceID)
	}
	target, ok := l.Downstream.ByInstance(instanceID)
	if !ok {
		return fmt.Errorf("link: instance %d is not assigned", instanceID)
	}
	return target.Send(name, payload)
}

// ForwardEventToController relays a one-way event to this node's upstream
// Link.
func (l *Link) ForwardEventToController(name string, payload json.RawMessage) error {
	if l.Upstream == nil {
		return fmt.Errorf("link: no upstream controller link available")
	}
	up, ok := l.Upstream.Upstream()
	if !ok {
		return fmt.Errorf("link: upstream controller link is not connected")
	}
	return up.Send(name, payload)
}

// BroadcastEventToInstance fans name/payload out to every currently
// connected downstream Link, in iteration order, with no atomicity across
// downstreams (spec §5). It returns every individual send error, if any,
// without aborting the fan-out early.
func (l *Link) BroadcastEventToInstance(name string, payload json.RawMessage) []error {
	if l.Downstream == nil {
		return nil
	}
	var errs []error
	for _, d := range l.Downstream.All() {
		if err := d.Send(name, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Close tears down the Link: closes the Connector and fails every pending
// awaiter with a DisconnectedError, leaving the pending table empty
// (Testable property 6). Reconnection semantics are fail-only (spec
// Open Question #3, resolved in SPEC_FULL.md §C): callers must build a new
// Link for a new connection rather than reusing this one.
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.pending.failAll(&DisconnectedError{Link: string(l.Spec)})
	return l.conn.Close()
}

// PendingCount reports the number of in-flight awaiters, used by tests to
// assert the pending table drains to zero after teardown.
func (l *Link) PendingCount() int {
	return l.pending.len()
}

// Conn returns the Connector this Link was built over, for callers that
// need to read transport-specific metadata a particular Connector
// implementation exposes (e.g. connector.WSConnector.Meta for the query
// parameters an accepted websocket connection carried).
func (l *Link) Conn() connector.Connector {
	return l.conn
}

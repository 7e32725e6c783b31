package link

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/schema"
	"github.com/fleetlink/core/wire"
)

func noopSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Compile(schema.Object(map[string]any{}, nil, true))
	require.NoError(t, err)
	return s
}

func newLinkPair(t *testing.T, source, target wire.Role) (*Link, *Link) {
	t.Helper()
	a, b := connector.NewPipe(string(source), string(target))
	la, err := New(source, target, a, zerolog.Nop())
	require.NoError(t, err)
	lb, err := New(target, source, b, zerolog.Nop())
	require.NoError(t, err)
	return la, lb
}

// TestDispatch_RequestHandlerRespondsWithEchoedSeq exercises the basic
// request/response round trip end to end, including Invariant 5: both the
// outer envelope seq and the inner data.seq equal the request's seq.
func TestDispatch_RequestHandlerRespondsWithEchoedSeq(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)

	reqSchema := noopSchema(t)
	respSchema := noopSchema(t)

	require.NoError(t, server.SetRequestHandler(wire.RequestType("ping"), "ping",
		func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			return json.Marshal(map[string]any{"ok": true})
		}, reqSchema))

	require.NoError(t, client.SetValidator(wire.ResponseType("ping"), respSchema))

	resp, err := client.Call(context.Background(), "ping", json.RawMessage(`{}`))
	require.NoError(t, err)

	var parsed struct {
		Seq int64 `json:"seq"`
		OK  bool  `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(resp, &parsed))
	assert.True(t, parsed.OK)
	assert.Equal(t, int64(1), parsed.Seq)
}

// TestDispatch_ValidationFailureRespondsWithError covers the validate-first
// ordering (spec §4.4 step 1): an invalid request never reaches the
// handler, and the caller still gets a response rather than a hang.
func TestDispatch_ValidationFailureRespondsWithError(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)

	strictSchema, err := schema.Compile(schema.Object(
		map[string]any{"name": map[string]any{"type": "string"}},
		[]string{"name"},
		false,
	))
	require.NoError(t, err)
	respSchema := noopSchema(t)

	handlerCalled := false
	require.NoError(t, server.SetRequestHandler(wire.RequestType("greet"), "greet",
		func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			handlerCalled = true
			return json.Marshal(map[string]any{})
		}, strictSchema))

	require.NoError(t, client.SetValidator(wire.ResponseType("greet"), respSchema))

	_, err = client.Call(context.Background(), "greet", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.False(t, handlerCalled)
}

// TestDispatch_RequestErrorIsUserVisible asserts a *RequestError returned
// by a handler is surfaced verbatim to the caller.
func TestDispatch_RequestErrorIsUserVisible(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)

	reqSchema := noopSchema(t)
	respSchema := noopSchema(t)

	require.NoError(t, server.SetRequestHandler(wire.RequestType("delete_thing"), "delete_thing",
		func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			return nil, NewRequestError("thing not found")
		}, reqSchema))
	require.NoError(t, client.SetValidator(wire.ResponseType("delete_thing"), respSchema))

	_, err := client.Call(context.Background(), "delete_thing", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thing not found")
}

// TestDispatch_UnexpectedErrorIsGenericOnWire ensures internal handler
// errors never leak their message onto the wire.
func TestDispatch_UnexpectedErrorIsGenericOnWire(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)

	reqSchema := noopSchema(t)
	respSchema := noopSchema(t)

	require.NoError(t, server.SetRequestHandler(wire.RequestType("op"), "op",
		func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			return nil, assertErr{}
		}, reqSchema))
	require.NoError(t, client.SetValidator(wire.ResponseType("op"), respSchema))

	_, err := client.Call(context.Background(), "op", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), genericHandlerError)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom: internal db handle is nil" }

// TestCall_TimesOutWhenNoResponseArrives covers the AwaitingResponse ->
// TimedOut transition (spec §4.7) when nothing answers the request.
func TestCall_TimesOutWhenNoResponseArrives(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)
	_ = server // server never registers a handler for "slow"

	require.NoError(t, client.SetValidator(wire.ResponseType("slow"), noopSchema(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Call(ctx, "slow", json.RawMessage(`{}`))
	require.Error(t, err)
	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 0, client.PendingCount())
}

// TestClose_FailsAllPendingAwaitersExactlyOnce is Testable Property 6:
// every pending awaiter resolves exactly once, here via teardown.
func TestClose_FailsAllPendingAwaitersExactlyOnce(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)
	_ = server

	require.NoError(t, client.SetValidator(wire.ResponseType("never"), noopSchema(t)))

	var firstErr, secondErr error
	done := make(chan struct{}, 2)

	go func() {
		_, firstErr = client.Call(context.Background(), "never", json.RawMessage(`{}`))
		done <- struct{}{}
	}()
	go func() {
		_, secondErr = client.Call(context.Background(), "never", json.RawMessage(`{}`))
		done <- struct{}{}
	}()

	// Give both calls a moment to register their awaiters before closing.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, client.Close())

	<-done
	<-done

	require.Error(t, firstErr)
	require.Error(t, secondErr)
	var discErr *DisconnectedError
	assert.ErrorAs(t, firstErr, &discErr)
	assert.ErrorAs(t, secondErr, &discErr)
	assert.Equal(t, 0, client.PendingCount())
}

// TestCall_RejectsAfterClose ensures a Call issued after Close fails fast
// rather than hanging forever.
func TestCall_RejectsAfterClose(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)
	_ = server

	require.NoError(t, client.Close())

	_, err := client.Call(context.Background(), "anything", json.RawMessage(`{}`))
	require.Error(t, err)
	var discErr *DisconnectedError
	assert.ErrorAs(t, err, &discErr)
}

// fakeDownstream implements DownstreamLookup over a fixed instance->Link map
// for forwarding and broadcast tests.
type fakeDownstream struct {
	byInstance map[int64]*Link
	all        []*Link
}

func (f *fakeDownstream) ByInstance(id int64) (*Link, bool) {
	l, ok := f.byInstance[id]
	return l, ok
}

func (f *fakeDownstream) All() []*Link { return f.all }

type fakeUpstream struct {
	up *Link
	ok bool
}

func (f *fakeUpstream) Upstream() (*Link, bool) { return f.up, f.ok }

// TestForwardRequestToInstance_RelaysAndReturnsResponse covers the host
// acting as a forwarding intermediary between controller and instance.
func TestForwardRequestToInstance_RelaysAndReturnsResponse(t *testing.T) {
	hostSide, instanceSide := newLinkPair(t, wire.RoleHost, wire.RoleInstance)

	reqSchema := noopSchema(t)
	respSchema := noopSchema(t)

	require.NoError(t, instanceSide.SetRequestHandler(wire.RequestType("start_instance"), "start_instance",
		func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			return json.Marshal(map[string]any{"started": true})
		}, reqSchema))
	require.NoError(t, hostSide.SetValidator(wire.ResponseType("start_instance"), respSchema))

	hostSide.Downstream = &fakeDownstream{byInstance: map[int64]*Link{42: hostSide}}

	resp, err := hostSide.ForwardRequestToInstance(context.Background(), "start_instance", 42, json.RawMessage(`{}`))
	require.NoError(t, err)

	var parsed struct {
		Started bool `json:"started"`
	}
	require.NoError(t, json.Unmarshal(resp, &parsed))
	assert.True(t, parsed.Started)
}

// TestForwardRequestToInstance_UnknownInstance returns a RequestError
// without touching the transport.
func TestForwardRequestToInstance_UnknownInstance(t *testing.T) {
	hostSide, _ := newLinkPair(t, wire.RoleHost, wire.RoleInstance)
	hostSide.Downstream = &fakeDownstream{byInstance: map[int64]*Link{}}

	_, err := hostSide.ForwardRequestToInstance(context.Background(), "start_instance", 99, json.RawMessage(`{}`))
	require.Error(t, err)
	var reqErr *RequestError
	assert.ErrorAs(t, err, &reqErr)
}

// TestBroadcastEventToInstance_FansOutToAllDownstream covers the
// broadcast-to-instance primitive (spec §4.4).
func TestBroadcastEventToInstance_FansOutToAllDownstream(t *testing.T) {
	host1, inst1 := newLinkPair(t, wire.RoleHost, wire.RoleInstance)
	host2, inst2 := newLinkPair(t, wire.RoleHost, wire.RoleInstance)

	received := make(chan string, 2)
	eventSchema := noopSchema(t)

	for name, l := range map[string]*Link{"inst1": inst1, "inst2": inst2} {
		name := name
		require.NoError(t, l.SetEventHandler(wire.EventType("broadcast_thing"), "broadcast_thing",
			func(ctx context.Context, data json.RawMessage) error {
				received <- name
				return nil
			}, eventSchema))
	}

	broadcaster := host1
	broadcaster.Downstream = &fakeDownstream{all: []*Link{host1, host2}}

	errs := broadcaster.BroadcastEventToInstance("broadcast_thing", json.RawMessage(`{}`))
	assert.Empty(t, errs)

	got := map[string]bool{}
	got[<-received] = true
	got[<-received] = true
	assert.True(t, got["inst1"])
	assert.True(t, got["inst2"])
}

// TestForwardEventToController_UsesUpstreamLookup covers the upstream
// one-way forwarding primitive.
func TestForwardEventToController_UsesUpstreamLookup(t *testing.T) {
	hostSide, controllerSide := newLinkPair(t, wire.RoleHost, wire.RoleController)

	received := make(chan struct{}, 1)
	eventSchema := noopSchema(t)
	require.NoError(t, controllerSide.SetEventHandler(wire.EventType("host_update"), "host_update",
		func(ctx context.Context, data json.RawMessage) error {
			received <- struct{}{}
			return nil
		}, eventSchema))

	hostSide.Upstream = &fakeUpstream{up: hostSide, ok: true}

	require.NoError(t, hostSide.ForwardEventToController("host_update", json.RawMessage(`{}`)))
	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("event was not forwarded")
	}
}

// TestDispatch_DropsEnvelopeWithNoValidator covers the "no registered
// validator" drop path without panicking the dispatch loop.
func TestDispatch_DropsEnvelopeWithNoValidator(t *testing.T) {
	client, server := newLinkPair(t, wire.RoleHost, wire.RoleController)
	_ = client

	assert.NotPanics(t, func() {
		server.dispatch(wire.Envelope{Type: "unknown_request", Seq: 1, Data: json.RawMessage(`{}`)})
	})
}

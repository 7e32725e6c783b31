package dispatchloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/wire"
)

// fakeAcceptor yields connectors from a fixed slice, then blocks until ctx
// is cancelled.
type fakeAcceptor struct {
	mu    sync.Mutex
	conns []connector.Connector
}

func (f *fakeAcceptor) Accept(ctx context.Context) (connector.Connector, error) {
	f.mu.Lock()
	if len(f.conns) > 0 {
		c := f.conns[0]
		f.conns = f.conns[1:]
		f.mu.Unlock()
		return c, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLoop_RunAcceptsAndDrainsOnShutdown(t *testing.T) {
	a, _ := connector.NewPipe("host", "controller")

	acceptor := &fakeAcceptor{conns: []connector.Connector{a}}

	var attached int32
	var mu sync.Mutex

	loop := New(acceptor,
		func(conn connector.Connector) (*link.Link, error) {
			return link.New(wire.RoleHost, wire.RoleController, conn, zerolog.Nop())
		},
		func(lk *link.Link) func() {
			mu.Lock()
			attached++
			mu.Unlock()
			return nil
		},
		zerolog.Nop(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), attached)
}

func TestLoop_RetriesOnTransientAcceptError(t *testing.T) {
	original := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = original }()

	calls := 0
	var mu sync.Mutex

	acceptor := acceptorFunc(func(ctx context.Context) (connector.Connector, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 2 {
			return nil, errors.New("transient")
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})

	loop := New(acceptor,
		func(conn connector.Connector) (*link.Link, error) { return nil, nil },
		func(lk *link.Link) func() { return nil },
		zerolog.Nop(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, calls, 2)
}

type acceptorFunc func(ctx context.Context) (connector.Connector, error)

func (f acceptorFunc) Accept(ctx context.Context) (connector.Connector, error) { return f(ctx) }

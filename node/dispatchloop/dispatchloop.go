// Package dispatchloop runs a node's accept-and-attach loop: block for the
// next peer connection, build a Link over it on its own goroutine, and
// drain every in-flight Link gracefully on shutdown. It adapts the
// teacher's Consumer.Start/processMessage shape (poll, spawn a goroutine
// per unit of work, sync.WaitGroup-drain on shutdown) from an SQS queue
// poll to a Connector accept loop.
package dispatchloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/link"
)

// retryBackoff is how long Run waits before retrying Accept after a
// non-fatal accept error, mirroring the teacher's retrySleep. A var, not a
// const, so tests can shorten it.
var retryBackoff = 2 * time.Second

// Acceptor yields one ready-to-use Connector per accepted peer connection.
// It returns an error (typically ctx.Err()) once ctx is done; Run treats an
// accept error as a deliberate shutdown when it is context.Canceled or ctx
// is already done, and as a transient accept failure otherwise.
type Acceptor interface {
	Accept(ctx context.Context) (connector.Connector, error)
}

// LinkFactory builds the Link for a freshly accepted Connector — typically
// link.New bound to this node's own role and the expected peer role.
type LinkFactory func(conn connector.Connector) (*link.Link, error)

// OnLink is called once per Link, on its own goroutine, before the
// Connector is started: the node uses it to run the attach driver and
// register the Link in whatever downstream/upstream lookup it maintains.
// The returned cleanup func, if non-nil, runs after the Connector's Start
// returns (i.e. once the connection has closed), for unregistering the
// Link from the same lookup.
type OnLink func(*link.Link) (cleanup func())

// Loop owns the accept-dispatch-drain cycle for one node-level listener.
type Loop struct {
	acceptor Acceptor
	newLink  LinkFactory
	onLink   OnLink
	log      zerolog.Logger
}

// New builds a Loop. onLink must be safe to call concurrently with other
// in-flight onLink calls: each accepted connection runs on its own
// goroutine.
func New(acceptor Acceptor, newLink LinkFactory, onLink OnLink, log zerolog.Logger) *Loop {
	return &Loop{acceptor: acceptor, newLink: newLink, onLink: onLink, log: log}
}

// Run blocks, accepting connections and running each one's Link until ctx
// is cancelled, then waits for every still-active Link to finish (its
// Connector's Start to return) before returning.
func (l *Loop) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for {
		if ctx.Err() != nil {
			break
		}

		conn, err := l.acceptor.Accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			l.log.Error().Err(err).Msg("accept failed, retrying")
			time.Sleep(retryBackoff)
			continue
		}

		wg.Add(1)
		go l.runOne(conn, &wg)
	}

	l.log.Info().Msg("shutdown initiated, waiting for active links to drain")
	wg.Wait()
	l.log.Info().Msg("all links drained, dispatch loop stopped")
}

func (l *Loop) runOne(conn connector.Connector, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("panic in link goroutine")
		}
	}()

	lk, err := l.newLink(conn)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to build link for accepted connection")
		_ = conn.Close()
		return
	}

	cleanup := l.onLink(lk)

	if err := conn.Start(); err != nil {
		l.log.Warn().Err(err).Str("link", string(lk.Spec)).Msg("connection closed")
	}
	_ = lk.Close()
	if cleanup != nil {
		cleanup()
	}
}

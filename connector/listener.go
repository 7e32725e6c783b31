package connector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSListener upgrades inbound HTTP connections to websockets and hands them
// off through a channel, giving it the same Accept(ctx) shape dispatchloop.Acceptor
// expects — the listening half of WSConnector's full-duplex pair.
type WSListener struct {
	addr     string
	upgrader websocket.Upgrader
	log      zerolog.Logger

	srv    *http.Server
	accept chan acceptResult
}

type acceptResult struct {
	conn *WSConnector
	err  error
}

// NewWSListener builds a listener bound to addr. Upgrade always succeeds
// regardless of Origin (spec §1 Non-goals: no auth/handshake layer here) —
// callers that need origin checks or auth wrap Accept's result before
// handing it to a Link.
func NewWSListener(addr string, log zerolog.Logger) *WSListener {
	return &WSListener{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:    log,
		accept: make(chan acceptResult),
	}
}

// Serve starts the HTTP server in the background. It must be called before
// the first Accept call. Serve returns once ctx is cancelled or the
// listener fails to bind.
func (l *WSListener) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handleUpgrade)

	l.srv = &http.Server{Addr: l.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := l.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("connector: listen on %s: %w", l.addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.srv.Shutdown(shutdownCtx)
		return nil
	}
}

func (l *WSListener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	meta := make(map[string]string, len(r.URL.Query()))
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			meta[k] = vs[0]
		}
	}
	l.accept <- acceptResult{conn: NewWSConnectorWithMeta(conn, l.log, meta)}
}

// Accept implements dispatchloop.Acceptor.
func (l *WSListener) Accept(ctx context.Context) (Connector, error) {
	select {
	case res := <-l.accept:
		if res.err != nil {
			return nil, res.err
		}
		return res.conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

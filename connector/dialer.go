package connector

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Dial opens a single outbound websocket connection to addr and wraps it as
// a Connector. Used by the upstream-dialing nodes (instance -> host, host
// -> controller, control -> controller) where the node is the one
// initiating the physical connection rather than accepting it.
func Dial(ctx context.Context, addr string, log zerolog.Logger) (*WSConnector, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connector: dial %s: %w", addr, err)
	}
	return NewWSConnector(conn, log), nil
}

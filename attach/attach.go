// Package attach implements the Attach Driver (spec §4.7): it walks the
// message registry in a deterministic order and binds every descriptor to
// a Link, looking up the node's handler for each message name in an
// explicit HandlerTable rather than by reflective method-name convention
// (Design Note: convention-based handler lookup replaced with an explicit
// registration table — a missing handler is an absent map entry that Drive
// reports when the Link is attached, not a reflective method-name miss).
package attach

import (
	"fmt"

	"github.com/fleetlink/core/event"
	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/registry"
	"github.com/fleetlink/core/request"
	"github.com/fleetlink/core/wire"
)

// HandlerTable is the explicit, per-Link set of handlers a node supplies
// for the messages it is a target for. Entries absent from either map fall
// back to the descriptor's forwardTo convention inside request.Attach /
// event.Attach; a descriptor with neither an explicit entry nor a
// forwardTo convention fails the Drive call.
type HandlerTable struct {
	Requests map[string]link.HandlerFunc
	Events   map[string]link.EventHandlerFunc
}

// NewHandlerTable returns an empty, ready-to-populate HandlerTable.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{
		Requests: make(map[string]link.HandlerFunc),
		Events:   make(map[string]link.EventHandlerFunc),
	}
}

// Drive binds every descriptor in cat to l, in the catalog's deterministic
// insertion order, using handlers looked up from table by bare message
// name. A descriptor attach failure (most commonly: this link is a target
// with neither an explicit handler nor a forwarding convention) is
// annotated with the message name and link spec and returned immediately —
// startup fails loudly rather than silently omitting a required handler.
func Drive(l *link.Link, cat *registry.Catalog, table *HandlerTable) error {
	for _, d := range cat.All() {
		var err error
		switch d.Kind {
		case wire.KindRequest:
			err = request.Attach(l, d, table.Requests[d.Name])
		case wire.KindEvent:
			err = event.Attach(l, d, table.Events[d.Name])
		default:
			err = fmt.Errorf("attach: %s: unknown message kind", d.Name)
		}
		if err != nil {
			return fmt.Errorf("attach: link %s: handler %q: %w", l.Spec, d.Name, err)
		}
	}
	return nil
}

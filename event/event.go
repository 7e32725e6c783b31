// Package event implements the Event layer (spec §4.6): attaching a
// one-way event descriptor to a Link, including the broadcast-to-instance
// wrapping, and sending an uncorrelated event envelope.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/registry"
	"github.com/fleetlink/core/wire"
)

// broadcastCapableOnTarget is the fixed set of edges on which a target link
// re-broadcasts an inbound event to its own downstream instances before
// handling it locally (spec §4.6). Each edge is named in the event's own
// direction (sender-receiver), so it is looked up with the receiving link's
// Spec reversed.
var broadcastCapableOnTarget = map[wire.LinkSpec]struct{}{
	wire.LinkInstanceHost:      {},
	wire.LinkHostController:    {},
	wire.LinkControlController: {},
	wire.LinkControllerHost:    {},
}

func conventionForwarder(d *registry.Descriptor, l *link.Link) (link.EventHandlerFunc, error) {
	switch d.ForwardTo {
	case registry.ForwardInstance:
		return func(ctx context.Context, data json.RawMessage) error {
			var p struct {
				InstanceID int64 `json:"instance_id"`
			}
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("event: decode instance_id: %w", err)
			}
			return l.ForwardEventToInstance(d.Name, p.InstanceID, data)
		}, nil
	case registry.ForwardController:
		return func(ctx context.Context, data json.RawMessage) error {
			return l.ForwardEventToController(d.Name, data)
		}, nil
	default:
		return nil, fmt.Errorf("event: %s: no handler supplied and no forwardTo convention to fall back on (link %s)", d.Name, l.Spec)
	}
}

// withBroadcast wraps h so it first fans the raw payload out to every
// downstream instance reachable from this node, then invokes h, when d
// declares BroadcastTo == instance and l's concrete direction is one of the
// broadcast-capable target edges.
func withBroadcast(d *registry.Descriptor, l *link.Link, h link.EventHandlerFunc) link.EventHandlerFunc {
	if d.BroadcastTo != registry.BroadcastInstance {
		return h
	}
	if _, ok := broadcastCapableOnTarget[l.Spec.Reverse()]; !ok {
		return h
	}
	return func(ctx context.Context, data json.RawMessage) error {
		l.BroadcastEventToInstance(d.Name, data)
		return h(ctx, data)
	}
}

// Attach binds descriptor to l: only the target side does anything (spec
// §4.6) — a source-only link neither validates nor handles its own
// outbound events inbound.
func Attach(l *link.Link, d *registry.Descriptor, handler link.EventHandlerFunc) error {
	if d.Kind != wire.KindEvent {
		return fmt.Errorf("event: %s is not an event descriptor", d.Name)
	}
	_, isTarget := d.AcceptsOn(l.Spec)
	if !isTarget {
		return nil
	}

	h := handler
	if h == nil {
		var err error
		h, err = conventionForwarder(d, l)
		if err != nil {
			return err
		}
	}
	h = withBroadcast(d, l, h)

	if err := l.SetEventHandler(wire.EventType(d.Name), d.Name, h, d.EventSchema); err != nil {
		return fmt.Errorf("event: %s: %w", d.Name, err)
	}
	return nil
}

// Send validates data against the event schema locally, then transmits a
// single uncorrelated envelope — no await, no response.
func Send(l *link.Link, d *registry.Descriptor, data json.RawMessage) error {
	if d.Kind != wire.KindEvent {
		return fmt.Errorf("event: %s is not an event descriptor", d.Name)
	}
	fieldErrs, err := d.EventSchema.Validate(data)
	if err != nil {
		return fmt.Errorf("event: %s: schema validation system error: %w", d.Name, err)
	}
	if len(fieldErrs) > 0 {
		return fmt.Errorf("event: %s: invalid event payload", d.Name)
	}
	return l.Send(d.Name, data)
}

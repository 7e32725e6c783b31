// Package request implements the Request layer (spec §4.5): attaching a
// MessageDescriptor's request/response pair to a concrete Link, and sending
// a correlated request from the source side. It sits directly on top of
// link.Link.Call, adding the permission gate and the convention-based
// forwarder lookup that the bare Link type deliberately knows nothing
// about.
package request

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/permission"
	"github.com/fleetlink/core/registry"
	"github.com/fleetlink/core/schema"
	"github.com/fleetlink/core/wire"
)

// instanceIDPayload extracts the instance_id field every forwarded-to-
// instance request carries (Invariant 2), without requiring callers to hand
// it in separately.
type instanceIDPayload struct {
	InstanceID int64 `json:"instance_id"`
}

func instanceIDFrom(data json.RawMessage) (int64, error) {
	var p instanceIDPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("request: decode instance_id: %w", err)
	}
	return p.InstanceID, nil
}

func conventionForwarder(d *registry.Descriptor, l *link.Link) (link.HandlerFunc, error) {
	switch d.ForwardTo {
	case registry.ForwardInstance:
		return func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			instanceID, err := instanceIDFrom(data)
			if err != nil {
				return nil, err
			}
			return l.ForwardRequestToInstance(ctx, d.Name, instanceID, data)
		}, nil
	case registry.ForwardController:
		return func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			return l.ForwardRequestToController(ctx, d.Name, data)
		}, nil
	default:
		return nil, fmt.Errorf("request: %s: no handler supplied and no forwardTo convention to fall back on (link %s)", d.Name, l.Spec)
	}
}

// withPermission wraps h so it first checks l.Identity against
// d.Permission, only on the controller-control target side (spec §4.5,
// Invariant 1).
func withPermission(d *registry.Descriptor, l *link.Link, h link.HandlerFunc) link.HandlerFunc {
	if d.Permission == "" || l.Spec != wire.LinkControllerControl {
		return h
	}
	required := permission.Permission(d.Permission)
	return func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		if err := permission.Check(l.Identity, required); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return h(ctx, data)
	}
}

// Attach binds descriptor to l: if l is a source for this request, its
// response validator is registered so inbound responses are checked before
// correlating to an awaiter; if l is a target, a handler is resolved
// (explicit, else the forwarding convention) and registered, wrapped with
// the permission gate when applicable.
func Attach(l *link.Link, d *registry.Descriptor, handler link.HandlerFunc) error {
	if d.Kind != wire.KindRequest {
		return fmt.Errorf("request: %s is not a request descriptor", d.Name)
	}
	isSource, isTarget := d.AcceptsOn(l.Spec)

	if isSource {
		if err := l.SetValidator(wire.ResponseType(d.Name), d.ResponseSchema); err != nil {
			return fmt.Errorf("request: %s: %w", d.Name, err)
		}
	}

	if isTarget {
		h := handler
		if h == nil {
			var err error
			h, err = conventionForwarder(d, l)
			if err != nil {
				return err
			}
		}
		h = withPermission(d, l, h)
		if err := l.SetRequestHandler(wire.RequestType(d.Name), d.Name, h, d.RequestSchema); err != nil {
			return fmt.Errorf("request: %s: %w", d.Name, err)
		}
	}

	return nil
}

// Send validates data against the request schema locally — a failure here
// is a programming error and never reaches the wire (spec §4.4) — then
// sends via l and awaits the correlated response, returning a *RequestError
// if the peer responded with one.
func Send(ctx context.Context, l *link.Link, d *registry.Descriptor, data json.RawMessage) (json.RawMessage, error) {
	if d.Kind != wire.KindRequest {
		return nil, fmt.Errorf("request: %s is not a request descriptor", d.Name)
	}
	fieldErrs, err := d.RequestSchema.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("request: %s: schema validation system error: %w", d.Name, err)
	}
	if len(fieldErrs) > 0 {
		return nil, fmt.Errorf("request: %s: invalid request payload: %s", d.Name, schema.FormatErrors(fieldErrs))
	}
	return l.Call(ctx, d.Name, data)
}

// Package registry declares MessageDescriptor, the immutable catalog entry
// type for Requests and Events (spec §3), and the process-wide Catalog that
// holds them (spec §4.2). Descriptors are built once at process start and
// never mutated; construction itself enforces the catalog invariants so a
// broken declaration fails fast instead of surfacing as a runtime bug.
package registry

import (
	"fmt"

	"github.com/fleetlink/core/schema"
	"github.com/fleetlink/core/wire"
)

// ForwardTarget names where a Request/Event auto-forwards to when no
// explicit handler is supplied at attach time.
type ForwardTarget string

const (
	ForwardNone       ForwardTarget = ""
	ForwardInstance   ForwardTarget = "instance"
	ForwardController ForwardTarget = "controller"
)

// BroadcastTarget names the fan-out target for an Event. Only Events may
// set this, and the only legal non-empty value is "instance" (Invariant 3).
type BroadcastTarget string

const (
	BroadcastNone     BroadcastTarget = ""
	BroadcastInstance BroadcastTarget = "instance"
)

// Descriptor is an immutable catalog entry for either a Request or an Event.
// Request-only fields (Permission, ResponseSchema) are zero for Events;
// Event-only fields (BroadcastTo, EventSchema) are zero for Requests.
type Descriptor struct {
	Name  string
	Kind  wire.Kind
	Links map[wire.LinkSpec]struct{}

	// Request-only.
	Permission     string
	RequestSchema  *schema.Schema
	ResponseSchema *schema.Schema

	// Event-only.
	EventSchema *schema.Schema

	// Shared routing attribute.
	ForwardTo   ForwardTarget
	BroadcastTo BroadcastTarget
}

// PayloadSchema returns the schema that validates an outbound/inbound
// payload for this descriptor: RequestSchema for requests, EventSchema for
// events.
func (d *Descriptor) PayloadSchema() *schema.Schema {
	if d.Kind == wire.KindRequest {
		return d.RequestSchema
	}
	return d.EventSchema
}

// AcceptsOn reports whether this descriptor's declared links cover link l,
// either as its source (l may originate the message) or its target (l must
// handle it) — Invariant 4.
func (d *Descriptor) AcceptsOn(l wire.LinkSpec) (isSource, isTarget bool) {
	_, isSource = d.Links[l]
	_, isTarget = d.Links[l.Reverse()]
	return
}

func linkSet(specs []wire.LinkSpec) map[wire.LinkSpec]struct{} {
	set := make(map[wire.LinkSpec]struct{}, len(specs))
	for _, s := range specs {
		set[s] = struct{}{}
	}
	return set
}

func hasControlController(specs []wire.LinkSpec) bool {
	for _, s := range specs {
		if s == wire.LinkControlController {
			return true
		}
	}
	return false
}

// RequestSpec is the declarative input to NewRequest: everything about a
// Request message except the generated instance_id wiring, which NewRequest
// derives from ForwardTo itself (Invariant 2).
type RequestSpec struct {
	Name              string
	Links             []wire.LinkSpec
	Permission        string // empty means no permission required
	ForwardTo         ForwardTarget
	RequestProps      map[string]any
	RequestRequired   []string
	ResponseProps     map[string]any
	ResponseRequired  []string
	AdditionalPropsOK bool
}

// NewRequest builds and validates a Request Descriptor.
func NewRequest(spec RequestSpec) (*Descriptor, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("registry: request descriptor requires a name")
	}
	requiresPermission := hasControlController(spec.Links)
	if requiresPermission && spec.Permission == "" {
		return nil, fmt.Errorf("registry: %s: permission is required because control-controller is a declared link", spec.Name)
	}
	if !requiresPermission && spec.Permission != "" {
		return nil, fmt.Errorf("registry: %s: permission is forbidden unless control-controller is a declared link", spec.Name)
	}

	reqDoc := schema.Object(spec.RequestProps, spec.RequestRequired, spec.AdditionalPropsOK)
	if spec.ForwardTo == ForwardInstance {
		reqDoc = schema.WithInstanceID(reqDoc)
	}
	reqSchema, err := schema.Compile(reqDoc)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: compile request schema: %w", spec.Name, err)
	}

	respDoc := schema.ResponseUnion(spec.ResponseProps, spec.ResponseRequired)
	respSchema, err := schema.Compile(respDoc)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: compile response schema: %w", spec.Name, err)
	}

	return &Descriptor{
		Name:           spec.Name,
		Kind:           wire.KindRequest,
		Links:          linkSet(spec.Links),
		Permission:     spec.Permission,
		RequestSchema:  reqSchema,
		ResponseSchema: respSchema,
		ForwardTo:      spec.ForwardTo,
	}, nil
}

// EventSpec is the declarative input to NewEvent.
type EventSpec struct {
	Name              string
	Links             []wire.LinkSpec
	ForwardTo         ForwardTarget
	BroadcastTo       BroadcastTarget
	EventProps        map[string]any
	EventRequired     []string
	AdditionalPropsOK bool
}

// NewEvent builds and validates an Event Descriptor.
func NewEvent(spec EventSpec) (*Descriptor, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("registry: event descriptor requires a name")
	}
	if spec.BroadcastTo != BroadcastNone && spec.BroadcastTo != BroadcastInstance {
		return nil, fmt.Errorf("registry: %s: broadcastTo must be empty or %q", spec.Name, BroadcastInstance)
	}

	doc := schema.Object(spec.EventProps, spec.EventRequired, spec.AdditionalPropsOK)
	if spec.ForwardTo == ForwardInstance {
		doc = schema.WithInstanceID(doc)
	}
	evtSchema, err := schema.Compile(doc)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: compile event schema: %w", spec.Name, err)
	}

	return &Descriptor{
		Name:        spec.Name,
		Kind:        wire.KindEvent,
		Links:       linkSet(spec.Links),
		EventSchema: evtSchema,
		ForwardTo:   spec.ForwardTo,
		BroadcastTo: spec.BroadcastTo,
	}, nil
}

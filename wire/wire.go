// Package wire defines the on-wire envelope format and the closed set of
// node roles and link specs that make up the link topology (spec §3).
package wire

import (
	"encoding/json"
	"fmt"
)

// Role is one of the four node roles that participate in the link protocol.
type Role string

const (
	RoleController Role = "controller"
	RoleHost       Role = "host"
	RoleInstance   Role = "instance"
	RoleControl    Role = "control"
)

// Kind distinguishes correlated requests from one-way events.
type Kind int

const (
	KindRequest Kind = iota
	KindEvent
)

func (k Kind) String() string {
	if k == KindRequest {
		return "request"
	}
	return "event"
}

// LinkSpec names a directional edge "<source>-<target>" in the declared
// topology. The closed set is the six directional edges below.
type LinkSpec string

const (
	LinkControlController LinkSpec = "control-controller"
	LinkControllerControl LinkSpec = "controller-control"
	LinkControllerHost    LinkSpec = "controller-host"
	LinkHostController    LinkSpec = "host-controller"
	LinkHostInstance      LinkSpec = "host-instance"
	LinkInstanceHost      LinkSpec = "instance-host"
)

// AllLinkSpecs enumerates the closed topology (spec §3 LinkSpec).
var AllLinkSpecs = []LinkSpec{
	LinkControlController,
	LinkControllerControl,
	LinkControllerHost,
	LinkHostController,
	LinkHostInstance,
	LinkInstanceHost,
}

// NewLinkSpec builds and validates a "<source>-<target>" spec from its two
// roles, rejecting any pair outside the declared topology.
func NewLinkSpec(source, target Role) (LinkSpec, error) {
	spec := LinkSpec(fmt.Sprintf("%s-%s", source, target))
	for _, valid := range AllLinkSpecs {
		if valid == spec {
			return spec, nil
		}
	}
	return "", fmt.Errorf("wire: %q is not a declared link spec", spec)
}

// Roles splits a LinkSpec back into its source and target roles.
func (l LinkSpec) Roles() (source, target Role) {
	for i := 1; i < len(l); i++ {
		if l[i] == '-' {
			return Role(l[:i]), Role(l[i+1:])
		}
	}
	return "", ""
}

// Reverse returns the LinkSpec with source and target swapped, used when
// testing whether a link is the *target* side of a message declared for the
// opposite direction (Invariant 4).
func (l LinkSpec) Reverse() LinkSpec {
	src, tgt := l.Roles()
	return LinkSpec(fmt.Sprintf("%s-%s", tgt, src))
}

// Envelope is every on-wire value exchanged over a link: a typed message, an
// optional payload, and a sequence number assigned by the sender's
// Connector. Responses echo the request's seq.
type Envelope struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq,omitempty"`
	Data json.RawMessage `json:"data"`
}

// Suffix conventions for message type names (spec §3 Envelope).
const (
	RequestSuffix  = "_request"
	ResponseSuffix = "_response"
	EventSuffix    = "_event"
)

// RequestType returns "<name>_request".
func RequestType(name string) string { return name + RequestSuffix }

// ResponseType returns "<name>_response".
func ResponseType(name string) string { return name + ResponseSuffix }

// EventType returns "<name>_event".
func EventType(name string) string { return name + EventSuffix }

// ResponseEnvelope is the standard data shape for an outbound response:
// data.seq echoes the request's envelope seq (the correlation key), and
// error is set only on the failure path.
type ResponseEnvelope struct {
	Seq   int64  `json:"seq"`
	Error string `json:"error,omitempty"`
}

// Marshal encodes a payload value into an Envelope with the given type and
// seq, failing only on an encoding error (never on validation — validation
// happens one layer up, in the request/event packages).
func Marshal(msgType string, seq int64, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("wire: marshal payload for %s: %w", msgType, err)
	}
	return Envelope{Type: msgType, Seq: seq, Data: raw}, nil
}

package main

import (
	"github.com/rs/zerolog"

	"github.com/fleetlink/core/internal/linkset"
	"github.com/fleetlink/core/link"
)

// hostState holds everything the host node's handlers and wiring share:
// the registry of connected instance Links (this node's Downstream) and the
// single uplink Link toward the controller (this node's Upstream, and the
// Link every handler below actually answers requests on).
type hostState struct {
	instances *linkset.Registry
	upstream  *linkset.Upstream
	log       zerolog.Logger

	assigned map[int64]bool
}

func newHostState(log zerolog.Logger) *hostState {
	return &hostState{
		instances: linkset.NewRegistry(),
		upstream:  linkset.NewUpstream(),
		log:       log,
		assigned:  make(map[int64]bool),
	}
}

// onInstanceConnected wires a freshly accepted instance Link into this
// host's downstream registry, keyed by the instance ID the instance reports
// on connect (spec Non-goals exclude a handshake layer, so identity travels
// as a query parameter on the websocket upgrade — set by withInstanceID in
// cmd/instance/main.go, read by WSListener.handleUpgrade in
// connector/listener.go).
func (s *hostState) onInstanceConnected(key string, instanceID int64, l *link.Link) {
	l.Upstream = s.upstream
	s.instances.AddMember(key, l)
	s.instances.Assign(instanceID, l)
}

func (s *hostState) onInstanceDisconnected(key string, instanceID int64, l *link.Link) {
	s.instances.RemoveMember(key, l)
	s.instances.Unassign(instanceID)
}

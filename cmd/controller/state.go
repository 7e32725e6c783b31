package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fleetlink/core/internal/linkset"
	"github.com/fleetlink/core/link"
)

// entityStore is the generic in-memory stand-in for the controller's
// persistent store (spec §1 Non-goals: storage durability is out of
// scope) — a name-keyed table of opaque field maps, reused for every
// control-managed entity kind (hosts, instances, users, roles, mod packs,
// mods) since they all follow the same create/get/update/delete/list
// shape and only differ in which fields they carry.
type entityStore struct {
	mu      sync.Mutex
	records map[string]map[string]any
}

func newEntityStore() *entityStore {
	return &entityStore{records: make(map[string]map[string]any)}
}

func (s *entityStore) create(name string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[name]; exists {
		return fmt.Errorf("%q already exists", name)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["name"] = name
	s.records[name] = fields
	return nil
}

func (s *entityStore) get(name string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[name]
	return r, ok
}

func (s *entityStore) update(name string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[name]
	if !ok {
		return fmt.Errorf("%q not found", name)
	}
	for k, v := range patch {
		r[k] = v
	}
	return nil
}

func (s *entityStore) delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[name]; !ok {
		return fmt.Errorf("%q not found", name)
	}
	delete(s.records, name)
	return nil
}

func (s *entityStore) list() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.records))
	for n := range s.records {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]map[string]any, 0, len(names))
	for _, n := range names {
		out = append(out, s.records[n])
	}
	return out
}

// controllerState is every piece of shared state the controller's handler
// table closes over: the connected-peer registries that double as
// DownstreamLookup for instance-bound forwarding and as the fan-out target
// for control-facing push notifications, plus the entity stores backing
// the control-facing CRUD surface.
type controllerState struct {
	log zerolog.Logger

	hostLinks    *linkset.Registry // downstream for forwarding to instances (keyed by instance ID)
	controlLinks *linkset.Registry // connected admin clients, fanned out to for push events

	hosts     *entityStore
	instances *entityStore
	users     *entityStore
	roles     *entityStore
	modPacks  *entityStore
	mods      *entityStore

	mu             sync.Mutex
	instanceToHost map[int64]string

	subMu       sync.Mutex
	subscribers map[string]map[string]*link.Link // event name -> control link key -> link
}

func newControllerState(log zerolog.Logger) *controllerState {
	return &controllerState{
		log:            log,
		hostLinks:      linkset.NewRegistry(),
		controlLinks:   linkset.NewRegistry(),
		hosts:          newEntityStore(),
		instances:      newEntityStore(),
		users:          newEntityStore(),
		roles:          newEntityStore(),
		modPacks:       newEntityStore(),
		mods:           newEntityStore(),
		instanceToHost: make(map[int64]string),
		subscribers:    make(map[string]map[string]*link.Link),
	}
}

// subscribe records key/l as a subscriber of every event name in events —
// the bookkeeping a subscribe_* request handler performs on the calling
// control link.
func (s *controllerState) subscribe(key string, l *link.Link, events ...string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, e := range events {
		set, ok := s.subscribers[e]
		if !ok {
			set = make(map[string]*link.Link)
			s.subscribers[e] = set
		}
		set[key] = l
	}
}

// unsubscribeAll drops key from every event's subscriber set, called when
// the control client behind it disconnects.
func (s *controllerState) unsubscribeAll(key string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, set := range s.subscribers {
		delete(set, key)
	}
}

// recordInstances updates the instance->host routing table reported by a
// host's update_instances call, re-pointing hostLinks' per-instance
// assignment at l for every instance ID the host claims.
func (s *controllerState) recordInstances(hostKey string, l *link.Link, instanceIDs []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, owner := range s.instanceToHost {
		if owner == hostKey {
			delete(s.instanceToHost, id)
			s.hostLinks.Unassign(id)
		}
	}
	for _, id := range instanceIDs {
		s.instanceToHost[id] = hostKey
		s.hostLinks.Assign(id, l)
	}
}

// pushToSubscribers fans a one-way notification out to every control client
// that has subscribed to name, bypassing descriptor-level validation since
// the caller already built a well-formed payload for one of the fixed,
// no-required-field notification events declared in the catalog.
func (s *controllerState) pushToSubscribers(name string, payload []byte) {
	s.subMu.Lock()
	set := s.subscribers[name]
	links := make([]*link.Link, 0, len(set))
	for _, l := range set {
		links = append(links, l)
	}
	s.subMu.Unlock()

	for _, l := range links {
		if err := l.Send(name, payload); err != nil {
			s.log.Warn().Err(err).Str("event", name).Msg("failed to push to control client")
		}
	}
}

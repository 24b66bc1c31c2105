// Package topology models the tree-shaped cluster topology: racks contain
// machines, machines contain processing units (PUs). It is the "resource
// map" collaborator of spec section 6 - shared between the placement engine
// and external coordinators, mutated only under the scheduler's mutex.
package topology

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

type ResourceID string

type Kind int

const (
	Machine Kind = iota
	ProcessingUnit
	Rack
)

func (k Kind) String() string {
	switch k {
	case Machine:
		return "machine"
	case ProcessingUnit:
		return "pu"
	case Rack:
		return "rack"
	default:
		return "unknown"
	}
}

type State int

const (
	Idle State = iota
	Busy
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resource is a single node in the cluster tree: a rack, a machine, or a
// processing unit. Every PU has exactly one machine ancestor; every machine
// has exactly one rack ancestor.
type Resource struct {
	ID     ResourceID
	Kind   Kind
	State  State
	Parent ResourceID // "" for a rack (root of its subtree)

	// ScheduledTo is the task id currently bound to a busy PU, empty
	// otherwise. Only meaningful for Kind == ProcessingUnit.
	ScheduledTo string
}

func (r *Resource) String() string {
	return fmt.Sprintf("{id:%s kind:%s state:%s parent:%s scheduledTo:%s}", r.ID, r.Kind, r.State, r.Parent, r.ScheduledTo)
}

// Map owns the cluster's resources and the read-only machine->PU index built
// at topology-change time. All mutation happens through its methods; callers
// outside the scheduler only ever read through Map's accessors.
type Map struct {
	resources map[ResourceID]*Resource
	// machinePUs is rebuilt whenever a machine or PU is added/removed and is
	// read-only during a scheduling round, per spec section 5.
	machinePUs map[ResourceID][]ResourceID
}

func NewMap() *Map {
	return &Map{
		resources:  make(map[ResourceID]*Resource),
		machinePUs: make(map[ResourceID][]ResourceID),
	}
}

// AddRack registers a rack resource and returns it.
func (m *Map) AddRack(id ResourceID) *Resource {
	r := &Resource{ID: id, Kind: Rack, State: Idle}
	m.resources[id] = r
	return r
}

// AddMachine registers a machine under the given rack.
func (m *Map) AddMachine(id, rackID ResourceID) *Resource {
	r := &Resource{ID: id, Kind: Machine, State: Idle, Parent: rackID}
	m.resources[id] = r
	if _, ok := m.machinePUs[id]; !ok {
		m.machinePUs[id] = nil
	}
	return r
}

// AddPU registers a processing unit under the given machine.
func (m *Map) AddPU(id, machineID ResourceID) *Resource {
	r := &Resource{ID: id, Kind: ProcessingUnit, State: Idle, Parent: machineID}
	m.resources[id] = r
	m.machinePUs[machineID] = append(m.machinePUs[machineID], id)
	return r
}

// RemoveMachine drops a machine, all its PUs, and the machine->PU index
// entry. Resource mutations of this kind must not be interleaved with a
// scheduling round (spec section 5).
func (m *Map) RemoveMachine(id ResourceID) {
	for _, pu := range m.machinePUs[id] {
		delete(m.resources, pu)
	}
	delete(m.machinePUs, id)
	delete(m.resources, id)
}

// Get returns the resource for id, or nil if unknown.
func (m *Map) Get(id ResourceID) (*Resource, bool) {
	r, ok := m.resources[id]
	return r, ok
}

// MachineAncestor walks up from a PU to its owning machine.
func (m *Map) MachineAncestor(pu ResourceID) (ResourceID, bool) {
	r, ok := m.resources[pu]
	if !ok || r.Kind != ProcessingUnit {
		return "", false
	}
	return r.Parent, true
}

// RackAncestor walks up from a machine to its owning rack.
func (m *Map) RackAncestor(machine ResourceID) (ResourceID, bool) {
	r, ok := m.resources[machine]
	if !ok || r.Kind != Machine {
		return "", false
	}
	return r.Parent, true
}

// PUsOf returns the PU ids belonging to a machine, in insertion order.
func (m *Map) PUsOf(machine ResourceID) []ResourceID {
	return m.machinePUs[machine]
}

// All returns every resource keyed by id. Iteration order over the returned
// map is Go's randomized map order; callers that need determinism (e.g. the
// placement engine's fallback pass) must sort the keys themselves before
// scanning.
func (m *Map) All() map[ResourceID]*Resource {
	return m.resources
}

// MarkBusy transitions a PU to busy and records what task it is running.
func (m *Map) MarkBusy(pu ResourceID, taskID string) {
	if r, ok := m.resources[pu]; ok {
		r.State = Busy
		r.ScheduledTo = taskID
	}
}

// MarkIdle transitions a PU back to idle and clears its task binding.
func (m *Map) MarkIdle(pu ResourceID) {
	if r, ok := m.resources[pu]; ok {
		r.State = Idle
		r.ScheduledTo = ""
	}
}

// Dump renders every resource for debug logging, e.g. when a scheduling
// round fails to find an idle PU anywhere and the caller wants to see why.
func (m *Map) Dump() string {
	return spew.Sdump(m.resources)
}

package datalayer

import (
	"github.com/pkg/errors"

	"github.com/smkuls/firmament/internal/config"
	"github.com/smkuls/firmament/internal/topology"
)

// Policy is the "tagged variant with a uniform replica-placement capability
// set" described in spec section 9: the four DFS variants differ only in
// how they place and rebalance replicas.
type Policy interface {
	// PlaceReplicas pins replicationFactor replicas of one block. used
	// tracks machines already holding a replica of another block belonging
	// to the same task, so maxMachineSpread (when positive) can be
	// enforced across the whole task rather than per block.
	PlaceReplicas(m *Model, writerMachine topology.ResourceID, blockID BlockID, size uint64, replicationFactor, maxMachineSpread int, used map[topology.ResourceID]bool) ([]Replica, error)

	// Rebalance re-places replicas lost when a machine was removed.
	Rebalance(m *Model, affected []*Block)

	Describe() string
}

func newPolicy(t config.DFSType) (Policy, error) {
	switch t {
	case config.DFSUniform:
		return &uniformPolicy{}, nil
	case config.DFSBounded:
		return &boundedPolicy{}, nil
	case config.DFSHDFS:
		return &hdfsPolicy{}, nil
	case config.DFSSkewed:
		return &skewedPolicy{}, nil
	default:
		return nil, errors.Errorf("unknown dfs_type %q", t)
	}
}

// candidateMachines returns the machines a policy may draw from, sorted by
// id. While maxMachineSpread is not positive, or `used` holds fewer machines
// than it, every machine is a candidate; once `used` reaches the cap, only
// machines in `used` are. The cap is checked once per block, so the block
// placed while `used` is still below it can add several new machines and
// take the task's spread past maxMachineSpread.
func candidateMachines(m *Model, used map[topology.ResourceID]bool, maxMachineSpread int) []topology.ResourceID {
	all := m.Machines()
	if maxMachineSpread <= 0 || len(used) < maxMachineSpread {
		return all
	}
	// Spread cap already reached for this task: only machines already in
	// `used` are eligible, so further blocks re-use the same machine set.
	var preferred []topology.ResourceID
	for _, id := range all {
		if used[id] {
			preferred = append(preferred, id)
		}
	}
	return preferred
}

func rackOf(m *Model, machine topology.ResourceID) topology.ResourceID {
	rack, _ := m.GetRackForMachine(machine)
	return rack
}

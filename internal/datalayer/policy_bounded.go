package datalayer

import "github.com/smkuls/firmament/internal/topology"

// boundedPolicy behaves like uniformPolicy but never lets a machine hold
// more than BlocksPerMachine blocks (spec section 4.3).
type boundedPolicy struct{}

func (p *boundedPolicy) Describe() string { return "bounded" }

func (p *boundedPolicy) PlaceReplicas(m *Model, writerMachine topology.ResourceID, blockID BlockID, size uint64, replicationFactor, maxMachineSpread int, used map[topology.ResourceID]bool) ([]Replica, error) {
	candidates := candidateMachines(m, used, maxMachineSpread)
	perMachineCap := m.BlocksPerMachine()
	var eligible []topology.ResourceID
	for _, c := range candidates {
		if perMachineCap <= 0 || m.BlocksOn(c) < perMachineCap {
			eligible = append(eligible, c)
		}
	}
	return drawDistinct(m, eligible, blockID, size, replicationFactor)
}

func (p *boundedPolicy) Rebalance(m *Model, affected []*Block) {
	defaultRebalance(m, affected, p)
}

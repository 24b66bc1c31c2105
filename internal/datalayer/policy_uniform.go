package datalayer

import "github.com/smkuls/firmament/internal/topology"

// uniformPolicy places each replica on a machine drawn uniformly without
// replacement (spec section 4.3).
type uniformPolicy struct{}

func (p *uniformPolicy) Describe() string { return "uniform" }

func (p *uniformPolicy) PlaceReplicas(m *Model, writerMachine topology.ResourceID, blockID BlockID, size uint64, replicationFactor, maxMachineSpread int, used map[topology.ResourceID]bool) ([]Replica, error) {
	candidates := candidateMachines(m, used, maxMachineSpread)
	return drawDistinct(m, candidates, blockID, size, replicationFactor)
}

func (p *uniformPolicy) Rebalance(m *Model, affected []*Block) {
	defaultRebalance(m, affected, p)
}

// drawDistinct samples n distinct machines uniformly without replacement
// from candidates and returns one replica per machine.
func drawDistinct(m *Model, candidates []topology.ResourceID, blockID BlockID, size uint64, n int) ([]Replica, error) {
	pool := append([]topology.ResourceID{}, candidates...)
	var out []Replica
	for len(out) < n && len(pool) > 0 {
		i := m.Rng().Intn(len(pool))
		machine := pool[i]
		pool = append(pool[:i], pool[i+1:]...)
		out = append(out, Replica{BlockID: blockID, Machine: machine, Rack: rackOf(m, machine), SizeBytes: size})
	}
	return out, nil
}

// defaultRebalance re-places the lost replicas of each affected block using
// the given policy, topping each block back up to the configured
// replication factor while avoiding machines that already hold a replica of
// that block.
func defaultRebalance(m *Model, affected []*Block, p Policy) {
	for _, b := range affected {
		need := m.ReplicationFactor() - len(b.Replicas)
		if need <= 0 {
			continue
		}
		existing := map[topology.ResourceID]bool{}
		for _, r := range b.Replicas {
			existing[r.Machine] = true
		}
		candidates := candidateMachines(m, existing, 0)
		var pool []topology.ResourceID
		for _, c := range candidates {
			if !existing[c] {
				pool = append(pool, c)
			}
		}
		size := uint64(0)
		if len(b.Replicas) > 0 {
			size = b.Replicas[0].SizeBytes
		}
		added, _ := drawDistinct(m, pool, b.ID, size, need)
		b.Replicas = append(b.Replicas, added...)
		for _, r := range added {
			m.blocksOn[r.Machine]++
		}
	}
}

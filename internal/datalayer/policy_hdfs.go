package datalayer

import "github.com/smkuls/firmament/internal/topology"

// hdfsPolicy places the first replica on the writer's machine, the second
// on a different rack, and the third within the second replica's rack; any
// additional replicas (for replication factors above 3) are drawn uniformly
// from the remaining distinct machines (spec section 4.3).
type hdfsPolicy struct{}

func (p *hdfsPolicy) Describe() string { return "hdfs" }

func (p *hdfsPolicy) PlaceReplicas(m *Model, writerMachine topology.ResourceID, blockID BlockID, size uint64, replicationFactor, maxMachineSpread int, used map[topology.ResourceID]bool) ([]Replica, error) {
	candidates := candidateMachines(m, used, maxMachineSpread)
	if len(candidates) == 0 || replicationFactor == 0 {
		return nil, nil
	}

	chosen := map[topology.ResourceID]bool{}
	var out []Replica

	place := func(machine topology.ResourceID) {
		out = append(out, Replica{BlockID: blockID, Machine: machine, Rack: rackOf(m, machine), SizeBytes: size})
		chosen[machine] = true
	}

	// First replica: writer's own machine, if it's an eligible candidate.
	if writerMachine != "" && contains(candidates, writerMachine) {
		place(writerMachine)
	} else if len(candidates) > 0 {
		place(candidates[m.Rng().Intn(len(candidates))])
	}
	if len(out) == replicationFactor {
		return out, nil
	}

	// Second replica: a different rack than the first.
	firstRack := out[0].Rack
	var otherRack []topology.ResourceID
	for _, c := range candidates {
		if !chosen[c] && rackOf(m, c) != firstRack {
			otherRack = append(otherRack, c)
		}
	}
	if len(otherRack) > 0 {
		place(otherRack[m.Rng().Intn(len(otherRack))])
	} else {
		// No other rack available; fall back to any unused candidate.
		if rest := unused(candidates, chosen); len(rest) > 0 {
			place(rest[m.Rng().Intn(len(rest))])
		}
	}
	if len(out) == replicationFactor || len(out) < 2 {
		return out, nil
	}

	// Third replica: same rack as the second, different machine.
	secondRack := out[1].Rack
	var sameRack []topology.ResourceID
	for _, c := range candidates {
		if !chosen[c] && rackOf(m, c) == secondRack {
			sameRack = append(sameRack, c)
		}
	}
	if len(sameRack) > 0 {
		place(sameRack[m.Rng().Intn(len(sameRack))])
	} else if rest := unused(candidates, chosen); len(rest) > 0 {
		place(rest[m.Rng().Intn(len(rest))])
	}

	// Remaining replicas (replication factor > 3): uniform over what's left.
	for len(out) < replicationFactor {
		rest := unused(candidates, chosen)
		if len(rest) == 0 {
			break
		}
		place(rest[m.Rng().Intn(len(rest))])
	}
	return out, nil
}

func (p *hdfsPolicy) Rebalance(m *Model, affected []*Block) {
	defaultRebalance(m, affected, p)
}

func contains(ids []topology.ResourceID, id topology.ResourceID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func unused(candidates []topology.ResourceID, chosen map[topology.ResourceID]bool) []topology.ResourceID {
	var out []topology.ResourceID
	for _, c := range candidates {
		if !chosen[c] {
			out = append(out, c)
		}
	}
	return out
}

package datalayer

import "github.com/smkuls/firmament/internal/topology"

// skewedPolicy preferentially chooses a small set of "hot" machines so
// popular blocks cluster on them, the way a workload with skewed access
// patterns would in a real cluster (spec section 4.3). Hot machines are the
// first hotFraction (by sorted id) of the candidate set; each replica pick
// draws from the hot set with probability hotBias, else uniformly from the
// rest.
type skewedPolicy struct{}

const (
	hotFraction = 0.1
	hotBias     = 0.8
)

func (p *skewedPolicy) Describe() string { return "skewed" }

func (p *skewedPolicy) PlaceReplicas(m *Model, writerMachine topology.ResourceID, blockID BlockID, size uint64, replicationFactor, maxMachineSpread int, used map[topology.ResourceID]bool) ([]Replica, error) {
	candidates := candidateMachines(m, used, maxMachineSpread)
	if len(candidates) == 0 {
		return nil, nil
	}
	numHot := int(float64(len(candidates)) * hotFraction)
	if numHot == 0 {
		numHot = 1
	}
	hot := candidates[:numHot]
	cold := candidates[numHot:]

	chosen := map[topology.ResourceID]bool{}
	var out []Replica
	for len(out) < replicationFactor {
		pool := cold
		if len(hot) > 0 && (m.Rng().Float64() < hotBias || len(cold) == 0) {
			pool = hot
		}
		var eligible []topology.ResourceID
		for _, c := range pool {
			if !chosen[c] {
				eligible = append(eligible, c)
			}
		}
		if len(eligible) == 0 {
			eligible = unused(candidates, chosen)
			if len(eligible) == 0 {
				break
			}
		}
		machine := eligible[m.Rng().Intn(len(eligible))]
		out = append(out, Replica{BlockID: blockID, Machine: machine, Rack: rackOf(m, machine), SizeBytes: size})
		chosen[machine] = true
	}
	return out, nil
}

func (p *skewedPolicy) Rebalance(m *Model, affected []*Block) {
	defaultRebalance(m, affected, p)
}

package datalayer

import (
	"testing"

	"github.com/smkuls/firmament/internal/config"
	"github.com/smkuls/firmament/internal/sched"
	"github.com/smkuls/firmament/internal/topology"
)

func TestBoundedPolicy_RespectsBlocksPerMachineCap(t *testing.T) {
	cfg := config.Default()
	cfg.DFSType = config.DFSBounded
	cfg.ReplicationFactor = 2
	cfg.BlocksPerMachine = 1
	cfg.BlockSizeBytes = 1000
	cfg.BlockCountMinBlocks = 3
	cfg.BlockCountPMin = 0.99 // force the point mass so Inverse always returns MinBlocks
	topo := topology.NewMap()
	m, err := New(cfg, topo, nil, 10, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, h := range []string{"a", "b", "c"} {
		m.AddMachine(h, topology.ResourceID(h))
	}

	task := &sched.Task{ID: "t1", AvgRuntimeUs: 1}
	if _, err := m.AddFilesForTask(task, 0); err != nil {
		t.Fatalf("AddFilesForTask: %v", err)
	}
	for _, machine := range m.Machines() {
		if n := m.BlocksOn(machine); n > cfg.BlocksPerMachine {
			t.Errorf("machine %s holds %d blocks, exceeds cap %d", machine, n, cfg.BlocksPerMachine)
		}
	}
}

func TestHDFSPolicy_FirstReplicaLocalToWriter(t *testing.T) {
	cfg := config.Default()
	cfg.DFSType = config.DFSHDFS
	cfg.ReplicationFactor = 3
	cfg.BlockSizeBytes = 1000
	topo := topology.NewMap()
	m, err := New(cfg, topo, nil, 1, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, h := range []string{"a", "b", "c", "d"} {
		m.AddMachine(h, topology.ResourceID(h))
	}
	writer := m.Machines()[0]

	replicas, err := m.policy.PlaceReplicas(m, writer, BlockID("b0"), 1000, 3, 0, map[topology.ResourceID]bool{})
	if err != nil {
		t.Fatalf("PlaceReplicas: %v", err)
	}
	if len(replicas) == 0 || replicas[0].Machine != writer {
		t.Errorf("expected first replica on writer machine %s, got %+v", writer, replicas)
	}
	if len(replicas) >= 2 && replicas[1].Rack == replicas[0].Rack {
		t.Errorf("expected second replica in a different rack than the first: %+v", replicas)
	}
}

func TestMachineRemoval_RebalancesAffectedBlocks(t *testing.T) {
	m, _ := newTestModel(t, config.DFSUniform, 6)
	task := &sched.Task{ID: "t1", AvgRuntimeUs: 5000000}
	m.AddFilesForTask(task, 0)
	path := task.Dependencies[0].Path

	before := m.GetFileLocations(path)
	victim := before[0].Machine
	m.RemoveMachine(string(victim))

	after := m.GetFileLocations(path)
	byBlock := map[BlockID]int{}
	for _, l := range after {
		if l.Machine == victim {
			t.Errorf("replica still references removed machine %s", victim)
		}
		byBlock[l.BlockID]++
	}
	for block, count := range byBlock {
		if count != m.ReplicationFactor() {
			t.Errorf("block %s has %d replicas after rebalance, want %d", block, count, m.ReplicationFactor())
		}
	}
}

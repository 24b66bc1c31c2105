// Package datalayer simulates a replicated distributed file system: it
// assigns replicated blocks to machines according to a configurable
// placement policy and answers locality queries (spec section 4.3).
package datalayer

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/smkuls/firmament/internal/config"
	"github.com/smkuls/firmament/internal/distribution"
	"github.com/smkuls/firmament/internal/sched"
	"github.com/smkuls/firmament/internal/stats"
	"github.com/smkuls/firmament/internal/topology"
)

// BlockID identifies one fixed-size chunk of a file.
type BlockID string

// Replica is one placement of a block on a specific machine (spec section 3).
type Replica struct {
	BlockID   BlockID
	Machine   topology.ResourceID
	Rack      topology.ResourceID
	SizeBytes uint64
}

// Block is a fixed-size chunk of a file plus its replica set. Invariant: the
// number of distinct machines holding a replica equals the configured
// replication factor.
type Block struct {
	ID       BlockID
	Replicas []Replica
}

// File is a named object composed of an ordered list of fixed-size blocks
// plus a possible tail block.
type File struct {
	Path   string
	Blocks []*Block
	Size   uint64
}

// DataLocation is the query-result projection of a replica returned by
// locality lookups.
type DataLocation struct {
	BlockID   BlockID
	Machine   topology.ResourceID
	Rack      topology.ResourceID
	SizeBytes uint64
}

// Model is the simulated DFS: machine->rack topology plus file->block->
// replica placement. It is logically owned by the scheduler; block-replica
// mutations happen only during AddFilesForTask/RemoveFilesForTask, which
// must not be interleaved with a scheduling round (spec section 5).
type Model struct {
	cfg    config.Config
	topo   *topology.Map
	policy Policy
	stat   stats.StatsReceiver

	blockCountDist *distribution.BlockCount
	runtimeDist    *distribution.Runtime

	files     map[string]*File      // path -> file
	taskFiles map[string][]string   // task id -> paths owned by that task
	blocksOn  map[topology.ResourceID]int // machine -> number of blocks resident, for bounded DFS

	hostToMachine map[string]topology.ResourceID
	nextRackIdx   int
	racksPerGroup int
	nextMachineOrdinal int

	rng Rand
}

// Rand is the minimal surface the model needs from an RNG. Production code
// uses math/rand's top-level functions (the pack's idiom, see
// sched/generators.go); tests can substitute a deterministic sequence.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// New builds a Model using the DFS policy named in cfg.DFSType.
// racksPerGroup controls how many consecutive AddMachine calls share a rack
// before a new rack is started; the spec's add_machine contract doesn't fix
// a rack-assignment scheme, only that one is returned consistently.
func New(cfg config.Config, topo *topology.Map, stat stats.StatsReceiver, racksPerGroup int, rng Rand) (*Model, error) {
	policy, err := newPolicy(cfg.DFSType)
	if err != nil {
		return nil, errors.Wrap(err, "building data layer model")
	}
	if racksPerGroup <= 0 {
		racksPerGroup = 1
	}
	if stat == nil {
		stat = stats.Nil()
	}
	if rng == nil {
		rng = DefaultRand()
	}
	return &Model{
		cfg:           cfg,
		topo:          topo,
		policy:        policy,
		stat:          stat.Scope("datalayer"),
		blockCountDist: distribution.NewBlockCount(cfg.BlockCountPMin, cfg.BlockCountMinBlocks, cfg.BlockCountMaxBlocks),
		runtimeDist:    distribution.NewRuntime(cfg.RuntimeFactor, cfg.RuntimePower),
		files:          make(map[string]*File),
		taskFiles:      make(map[string][]string),
		blocksOn:       make(map[topology.ResourceID]int),
		hostToMachine:  make(map[string]topology.ResourceID),
		racksPerGroup:  racksPerGroup,
		rng:            rng,
	}, nil
}

// AddMachine registers hostname under machineID, assigning it to a rack
// equivalence class, and returns that rack id.
func (m *Model) AddMachine(hostname string, machineID topology.ResourceID) topology.ResourceID {
	rackID := topology.ResourceID(fmt.Sprintf("rack-%d", m.nextMachineOrdinal/m.racksPerGroup))
	m.nextMachineOrdinal++
	if _, ok := m.topo.Get(rackID); !ok {
		m.topo.AddRack(rackID)
	}
	m.topo.AddMachine(machineID, rackID)
	m.hostToMachine[hostname] = machineID
	m.blocksOn[machineID] = 0
	log.WithFields(log.Fields{"hostname": hostname, "machine": machineID, "rack": rackID}).Info("datalayer: added machine")
	return rackID
}

// RemoveMachine drops the hostname binding, removes all replicas on that
// machine, and triggers rebalancing of affected blocks per the configured
// policy.
func (m *Model) RemoveMachine(hostname string) {
	machineID, ok := m.hostToMachine[hostname]
	if !ok {
		return
	}
	delete(m.hostToMachine, hostname)
	delete(m.blocksOn, machineID)

	var affected []*Block
	for _, f := range m.files {
		for _, b := range f.Blocks {
			kept := b.Replicas[:0]
			removed := false
			for _, r := range b.Replicas {
				if r.Machine == machineID {
					removed = true
					continue
				}
				kept = append(kept, r)
			}
			b.Replicas = kept
			if removed {
				affected = append(affected, b)
			}
		}
	}
	m.topo.RemoveMachine(machineID)
	if len(affected) > 0 {
		m.policy.Rebalance(m, affected)
		log.WithFields(log.Fields{"machine": machineID, "affectedBlocks": len(affected)}).Info("datalayer: rebalanced after machine removal")
	}
}

// GetRackForMachine returns the rack equivalence class for a machine.
func (m *Model) GetRackForMachine(machineID topology.ResourceID) (topology.ResourceID, bool) {
	return m.topo.RackAncestor(machineID)
}

// AddFilesForTask synthesizes the task's input file: for services it adds
// nothing and returns 0; otherwise it samples a block count from the
// runtime/block-count distributions, creates a File of that many
// BlockSizeBytes blocks (with a tail block), places
// numBlocks*ReplicationFactor replicas via the configured policy, appends a
// single Dependency to the task, and returns the total bytes added.
func (m *Model) AddFilesForTask(task *sched.Task, maxMachineSpread int) (uint64, error) {
	if task.IsService {
		return 0, nil
	}
	y := m.runtimeDist.ProportionShorter(task.AvgRuntimeUs)
	numBlocks := m.blockCountDist.Inverse(y)
	if numBlocks == 0 {
		return 0, nil
	}

	path := fmt.Sprintf("/task/%s/input", task.ID)
	writerMachine := m.anyMachine()

	file := &File{Path: path}
	used := map[topology.ResourceID]bool{}
	var total uint64
	for i := uint64(0); i < numBlocks; i++ {
		size := m.cfg.BlockSizeBytes
		// Tail block: the last block may be shorter; here we model the tail
		// deterministically as half the configured block size so a file's
		// total size isn't always an exact multiple of BlockSizeBytes.
		if i == numBlocks-1 {
			size = m.cfg.BlockSizeBytes / 2
		}
		blockID := BlockID(fmt.Sprintf("%s#%d", path, i))
		replicas, err := m.policy.PlaceReplicas(m, writerMachine, blockID, size, m.cfg.ReplicationFactor, maxMachineSpread, used)
		if err != nil {
			return 0, err
		}
		for _, r := range replicas {
			used[r.Machine] = true
			m.blocksOn[r.Machine]++
		}
		file.Blocks = append(file.Blocks, &Block{ID: blockID, Replicas: replicas})
		total += size
	}
	file.Size = total

	m.files[path] = file
	m.taskFiles[task.ID] = append(m.taskFiles[task.ID], path)
	task.Dependencies = append(task.Dependencies, sched.Dependency{Path: path, SizeBytes: total})

	m.stat.Counter("bytesAdded").Inc(int64(total))
	return total, nil
}

// RemoveFilesForTask deletes all blocks owned by taskID.
func (m *Model) RemoveFilesForTask(taskID string) {
	for _, path := range m.taskFiles[taskID] {
		if f, ok := m.files[path]; ok {
			for _, b := range f.Blocks {
				for _, r := range b.Replicas {
					m.blocksOn[r.Machine]--
				}
			}
		}
		delete(m.files, path)
	}
	delete(m.taskFiles, taskID)
}

// GetFileLocations returns all replicas of all blocks of the file, order
// insensitive.
func (m *Model) GetFileLocations(path string) []DataLocation {
	f, ok := m.files[path]
	if !ok {
		return nil
	}
	var out []DataLocation
	for _, b := range f.Blocks {
		for _, r := range b.Replicas {
			out = append(out, DataLocation{BlockID: r.BlockID, Machine: r.Machine, Rack: r.Rack, SizeBytes: r.SizeBytes})
		}
	}
	return out
}

// GetFileSize returns the size in bytes of a file. Per the spec's open
// question (DESIGN.md decision #2), this is intentionally a latent
// inconsistency: it returns 0 for any file, the way the original simulated
// data-layer model does. Callers must rely on the caller-supplied
// Dependency.SizeBytes, not on this accessor.
func (m *Model) GetFileSize(path string) uint64 {
	return 0
}

// GetClosestReplicas picks, for each block of the file, exactly one replica
// by the distance rule: local-machine < same-rack < remote, ties broken by
// first-seen order (spec section 4.3).
func (m *Model) GetClosestReplicas(path string, fromMachine topology.ResourceID) []DataLocation {
	f, ok := m.files[path]
	if !ok {
		return nil
	}
	fromRack, _ := m.topo.RackAncestor(fromMachine)

	var out []DataLocation
	for _, b := range f.Blocks {
		var best *Replica
		bestClass := classRemote
		for i := range b.Replicas {
			r := &b.Replicas[i]
			c := classOf(r, fromMachine, fromRack)
			if best == nil || c < bestClass {
				best = r
				bestClass = c
				if bestClass == classLocal {
					break
				}
			}
		}
		if best != nil {
			out = append(out, DataLocation{BlockID: best.BlockID, Machine: best.Machine, Rack: best.Rack, SizeBytes: best.SizeBytes})
		}
	}
	return out
}

type distanceClass int

const (
	classLocal distanceClass = iota
	classRack
	classRemote
)

func classOf(r *Replica, fromMachine, fromRack topology.ResourceID) distanceClass {
	if r.Machine == fromMachine {
		return classLocal
	}
	if fromRack != "" && r.Rack == fromRack {
		return classRack
	}
	return classRemote
}

// anyMachine returns a deterministic (sorted) first machine id, used as the
// "writer's machine" for hdfs-style first-replica placement when the caller
// doesn't otherwise designate one.
func (m *Model) anyMachine() topology.ResourceID {
	ids := make([]string, 0, len(m.hostToMachine))
	for _, id := range m.hostToMachine {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return ""
	}
	return topology.ResourceID(ids[0])
}

// Machines returns every machine id currently registered, sorted for
// deterministic iteration.
func (m *Model) Machines() []topology.ResourceID {
	ids := make([]topology.ResourceID, 0, len(m.hostToMachine))
	for _, id := range m.hostToMachine {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BlocksOn returns how many blocks currently reside on machine (used by the
// bounded DFS policy).
func (m *Model) BlocksOn(machine topology.ResourceID) int {
	return m.blocksOn[machine]
}

// Topology exposes the underlying resource map for policies that need rack
// ancestry.
func (m *Model) Topology() *topology.Map {
	return m.topo
}

// Rng exposes the model's configured random source to policies.
func (m *Model) Rng() Rand {
	return m.rng
}

// ReplicationFactor returns the configured replicas-per-block.
func (m *Model) ReplicationFactor() int {
	return m.cfg.ReplicationFactor
}

// BlocksPerMachine returns the configured cap used by the bounded policy.
func (m *Model) BlocksPerMachine() int {
	return m.cfg.BlocksPerMachine
}

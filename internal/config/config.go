// Package config holds the single immutable configuration record that every
// scheduler collaborator is constructed from. No component reads ambient or
// process-wide state at call time; everything flows through a Config value
// passed to constructors.
package config

import "fmt"

// DFSType selects which distributed-file-system placement policy the data
// layer model uses.
type DFSType string

const (
	DFSUniform DFSType = "uniform"
	DFSBounded DFSType = "bounded"
	DFSHDFS    DFSType = "hdfs"
	DFSSkewed  DFSType = "skewed"
)

// Config is the full set of tunables named in spec section 6, plus the
// interference-hook and DFS-variant parameters needed to construct them.
type Config struct {
	// Placement
	RandomlyPlaceTasks bool
	RandomPlaceAttempts int

	// DFS / data layer
	BlockSizeBytes     uint64
	BlocksPerMachine   int
	ReplicationFactor  int
	DFSType            DFSType
	MaxMachineSpread   int

	// Transfer model
	RemoteTransferUsPerMbit uint64
	RackTransferUsPerMbit   uint64

	// Block-count / runtime distributions
	BlockCountPMin     float64
	BlockCountMinBlocks uint64
	BlockCountMaxBlocks uint64
	RuntimeFactor      float64
	RuntimePower       float64

	// Simulation horizon
	RuntimeCapUs   uint64
	TraceSpeedUp   float64

	// Open-question decision #1 (DESIGN.md): PU sharing. No component reads
	// this flag: the placement engine runs one task per PU and frees the PU
	// on completion or eviction whatever its value.
	AllowPUSharing bool
}

// Default returns the configuration with the defaults enumerated in spec
// section 6.
func Default() Config {
	return Config{
		RandomlyPlaceTasks:  false,
		RandomPlaceAttempts: 2000,

		BlockSizeBytes:    536870912,
		BlocksPerMachine:  12288,
		ReplicationFactor: 4,
		DFSType:           DFSBounded,
		MaxMachineSpread:  0,

		RemoteTransferUsPerMbit: 250,
		RackTransferUsPerMbit:   100,

		BlockCountPMin:      0.50,
		BlockCountMinBlocks: 1,
		BlockCountMaxBlocks: 320,
		RuntimeFactor:       0.298,
		RuntimePower:        -0.2627,

		RuntimeCapUs: 0,
		TraceSpeedUp: 1.0,

		AllowPUSharing: false,
	}
}

// Validate returns an error describing the first invalid field found, or nil.
func (c Config) Validate() error {
	switch c.DFSType {
	case DFSUniform, DFSBounded, DFSHDFS, DFSSkewed:
	default:
		return fmt.Errorf("unknown dfs_type %q", c.DFSType)
	}
	if c.ReplicationFactor <= 0 {
		return fmt.Errorf("replication_factor must be positive, got %d", c.ReplicationFactor)
	}
	if c.BlockSizeBytes == 0 {
		return fmt.Errorf("block_size_bytes must be positive")
	}
	if c.BlockCountPMin <= 0 || c.BlockCountPMin >= 1 {
		return fmt.Errorf("block count p_min must be in (0,1), got %f", c.BlockCountPMin)
	}
	return nil
}

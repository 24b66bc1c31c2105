// Package transfer computes the estimated time to fetch a task's inputs to
// a candidate machine, accounting separately for data already local, data
// in the same rack, and data that must cross the network (spec section
// 4.4).
package transfer

//go:generate mockgen -source=transfer.go -package=transfer -destination=mock_datalayer.go

import (
	"fmt"

	"github.com/smkuls/firmament/internal/config"
	"github.com/smkuls/firmament/internal/datalayer"
	"github.com/smkuls/firmament/internal/sched"
	"github.com/smkuls/firmament/internal/stats"
	"github.com/smkuls/firmament/internal/topology"
)

const bytesPerMbit = 125000 // 1 Mbit = 125,000 bytes

// DataLayer is the subset of datalayer.Model the transfer model needs,
// narrowed to ease testing against a fake.
type DataLayer interface {
	GetClosestReplicas(path string, fromMachine topology.ResourceID) []datalayer.DataLocation
	GetRackForMachine(machine topology.ResourceID) (topology.ResourceID, bool)
}

// InvariantError reports a data-layer inconsistency detected while
// estimating transfer time. Per spec section 7 this is fatal: it indicates
// a bug or corrupt input, not a condition callers should retry past.
type InvariantError struct {
	TaskID string
	Path   string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("transfer: invariant violation for task %s, dependency %s: %s", e.TaskID, e.Path, e.Detail)
}

// Model computes EstimatedTransferUs of a task for a candidate machine.
type Model struct {
	remoteUsPerMbit uint64
	rackUsPerMbit   uint64
	dataLayer       DataLayer
	stat            stats.StatsReceiver
}

// New builds a transfer Model from cfg's remote/rack transfer costs.
func New(cfg config.Config, dataLayer DataLayer, stat stats.StatsReceiver) *Model {
	if stat == nil {
		stat = stats.Nil()
	}
	return &Model{
		remoteUsPerMbit: cfg.RemoteTransferUsPerMbit,
		rackUsPerMbit:   cfg.RackTransferUsPerMbit,
		dataLayer:       dataLayer,
		stat:            stat.Scope("transfer"),
	}
}

// EstimatedTransferUs computes the estimated data-fetch time, in
// microseconds, for task's dependencies to target machine. A task with no
// dependencies (including any service task) always has zero transfer time.
func (m *Model) EstimatedTransferUs(task *sched.Task, target topology.ResourceID) (uint64, error) {
	if len(task.Dependencies) == 0 {
		return 0, nil
	}

	targetRack, _ := m.dataLayer.GetRackForMachine(target)

	var dataOnMachine, dataOnRack, inputSize uint64
	for _, dep := range task.Dependencies {
		locs := m.dataLayer.GetClosestReplicas(dep.Path, target)

		var seenBytes uint64
		for _, loc := range locs {
			seenBytes += loc.SizeBytes
			switch {
			case loc.Machine == target:
				dataOnMachine += loc.SizeBytes
				dataOnRack += loc.SizeBytes
			case targetRack != "" && loc.Rack == targetRack:
				dataOnRack += loc.SizeBytes
			}
		}
		if seenBytes != dep.SizeBytes {
			return 0, &InvariantError{
				TaskID: task.ID,
				Path:   dep.Path,
				Detail: fmt.Sprintf("declared dependency size %d != sum of replica sizes %d", dep.SizeBytes, seenBytes),
			}
		}
		inputSize += dep.SizeBytes
	}

	if inputSize < dataOnRack || dataOnRack < dataOnMachine {
		return 0, &InvariantError{
			TaskID: task.ID,
			Detail: fmt.Sprintf("input_size=%d data_on_rack=%d data_on_machine=%d violates ordering", inputSize, dataOnRack, dataOnMachine),
		}
	}

	remoteData := inputSize - dataOnRack
	rackData := dataOnRack - dataOnMachine
	transferUs := (m.remoteUsPerMbit*remoteData + m.rackUsPerMbit*rackData) / bytesPerMbit

	m.stat.Counter("bytesLocal").Inc(int64(dataOnMachine))
	m.stat.Counter("bytesRack").Inc(int64(rackData))
	m.stat.Counter("bytesRemote").Inc(int64(remoteData))

	return transferUs, nil
}

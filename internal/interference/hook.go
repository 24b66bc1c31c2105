// Package interference implements the per-task lifecycle hook that uses the
// data-layer model to estimate transfer time on placement, migration and
// eviction, updates remaining-runtime state, and emits finish-time events
// (spec section 4.5).
package interference

//go:generate mockgen -source=hook.go -package=interference -destination=mock_hook.go

import (
	log "github.com/sirupsen/logrus"

	"github.com/smkuls/firmament/internal/sched"
	"github.com/smkuls/firmament/internal/stats"
	"github.com/smkuls/firmament/internal/topology"
)

// TransferEstimator is the subset of transfer.Model the hook depends on.
type TransferEstimator interface {
	EstimatedTransferUs(task *sched.Task, target topology.ResourceID) (uint64, error)
}

// FinishEvent is emitted on placement: the task's current estimated finish
// time. OnMigration updates the finish time without emitting an event.
type FinishEvent struct {
	TaskID       string
	CurrentEndUs uint64
}

// EvictionEvent is emitted on eviction: the finish time the task had before
// it was evicted.
type EvictionEvent struct {
	TaskID        string
	PreviousEndUs uint64
}

// LifecycleObserver is the "task lifecycle observer" capability of spec
// section 9: the interference hook is one implementation; NullObserver is
// used when transfer modelling is disabled.
type LifecycleObserver interface {
	OnPlacement(nowUs uint64, task *sched.Task, target topology.ResourceID) error
	OnCompletion(nowUs uint64, task *sched.Task, res topology.ResourceID) error
	OnEviction(nowUs uint64, task *sched.Task, res topology.ResourceID) error
	OnMigration(nowUs uint64, task *sched.Task, oldRes, newRes topology.ResourceID) error
}

// Topology is the subset of topology.Map the hook needs to resolve a PU to
// its owning machine.
type Topology interface {
	MachineAncestor(pu topology.ResourceID) (topology.ResourceID, bool)
}

// Hook maintains per-task remaining runtime and emits finish times through
// the task lifecycle.
type Hook struct {
	transfer     TransferEstimator
	topo         Topology
	runtimeCapUs uint64
	stat         stats.StatsReceiver

	remaining map[string]uint64 // task id -> remaining runtime in microseconds, seeded from the trace.

	onFinish   func(FinishEvent)
	onEviction func(EvictionEvent)
}

// New builds an interference Hook. onFinish/onEviction may be nil, in which
// case the corresponding event is dropped (a caller not interested in one
// side of the lifecycle, e.g. a test exercising only OnPlacement).
func New(transfer TransferEstimator, topo Topology, runtimeCapUs uint64, stat stats.StatsReceiver, onFinish func(FinishEvent), onEviction func(EvictionEvent)) *Hook {
	if stat == nil {
		stat = stats.Nil()
	}
	return &Hook{
		transfer:     transfer,
		topo:         topo,
		runtimeCapUs: runtimeCapUs,
		stat:         stat.Scope("interference"),
		remaining:    make(map[string]uint64),
		onFinish:     onFinish,
		onEviction:   onEviction,
	}
}

// SeedRemainingRuntime records the trace-provided remaining runtime for a
// task, to be consumed by the first OnPlacement call.
func (h *Hook) SeedRemainingRuntime(taskID string, remainingUs uint64) {
	h.remaining[taskID] = remainingUs
}

func (h *Hook) machineOf(target topology.ResourceID) topology.ResourceID {
	if machine, ok := h.topo.MachineAncestor(target); ok {
		return machine
	}
	// target was already a machine id (callers may pass either).
	return target
}

// OnPlacement implements spec section 4.5's placement event.
func (h *Hook) OnPlacement(nowUs uint64, task *sched.Task, target topology.ResourceID) error {
	task.SetStart(nowUs)
	task.TotalUnscheduledUs = nowUs - task.SubmitUs

	transferUs, err := h.transfer.EstimatedTransferUs(task, h.machineOf(target))
	if err != nil {
		return err
	}

	remaining, known := h.remaining[task.ID]
	if known {
		task.SetFinish(nowUs + transferUs + remaining)
	} else {
		log.WithFields(log.Fields{"taskID": task.ID}).Debug("interference: task not in remaining-runtime table, treating as never finishing")
		task.SetFinish(h.runtimeCapUs + 1)
	}

	if h.onFinish != nil {
		h.onFinish(FinishEvent{TaskID: task.ID, CurrentEndUs: task.FinishUs})
	}
	return nil
}

// OnCompletion implements spec section 4.5's completion event.
func (h *Hook) OnCompletion(nowUs uint64, task *sched.Task, res topology.ResourceID) error {
	task.TotalRunUs = computeTotalRunTime(nowUs, task)
	return nil
}

// computeTotalRunTime folds in time accumulated during prior placements
// plus time since the current start, clamped to never exceed now-Submit
// (the monotonicity contract named but not specified by spec section 4.5).
func computeTotalRunTime(nowUs uint64, task *sched.Task) uint64 {
	elapsedSinceStart := uint64(0)
	if task.HasStart && nowUs > task.StartUs {
		elapsedSinceStart = nowUs - task.StartUs
	}
	total := task.TotalRunUs + elapsedSinceStart
	ceiling := uint64(0)
	if nowUs > task.SubmitUs {
		ceiling = nowUs - task.SubmitUs
	}
	if total > ceiling {
		total = ceiling
	}
	return total
}

// OnEviction implements spec section 4.5's eviction event: transfer time is
// not credited as useful work, progress made during the initial fetch is
// discarded, and post-transfer useful work is preserved.
func (h *Hook) OnEviction(nowUs uint64, task *sched.Task, res topology.ResourceID) error {
	transferUs, err := h.transfer.EstimatedTransferUs(task, h.machineOf(res))
	if err != nil {
		return err
	}

	executedFor := uint64(0)
	if task.HasStart && nowUs > task.StartUs {
		ran := nowUs - task.StartUs
		if ran > transferUs {
			executedFor = ran - transferUs
		}
	}
	task.TotalRunUs = computeTotalRunTime(nowUs, task)

	if remaining, known := h.remaining[task.ID]; known {
		if executedFor >= remaining {
			h.remaining[task.ID] = 0
		} else {
			h.remaining[task.ID] = remaining - executedFor
		}
	}

	previousEnd := task.FinishUs
	task.ClearStart()
	task.SubmitUs = nowUs

	if h.onEviction != nil {
		h.onEviction(EvictionEvent{TaskID: task.ID, PreviousEndUs: previousEnd})
	}
	return nil
}

// OnMigration implements spec section 4.5's migration event: the prior
// in-flight transfer is invalidated and the task must re-fetch at the new
// location.
func (h *Hook) OnMigration(nowUs uint64, task *sched.Task, oldRes, newRes topology.ResourceID) error {
	oldTransferUs, err := h.transfer.EstimatedTransferUs(task, h.machineOf(oldRes))
	if err != nil {
		return err
	}
	newTransferUs, err := h.transfer.EstimatedTransferUs(task, h.machineOf(newRes))
	if err != nil {
		return err
	}

	executedFor := uint64(0)
	if task.HasStart && nowUs > task.StartUs {
		ran := nowUs - task.StartUs
		if ran > oldTransferUs {
			executedFor = ran - oldTransferUs
		}
	}
	task.TotalRunUs = computeTotalRunTime(nowUs, task)

	if remaining, known := h.remaining[task.ID]; known {
		if executedFor >= remaining {
			remaining = 0
		} else {
			remaining -= executedFor
		}
		h.remaining[task.ID] = remaining
		task.SetFinish(nowUs + newTransferUs + remaining)
	} else {
		task.SetFinish(h.runtimeCapUs + 1)
	}

	task.SubmitUs = nowUs
	task.SetStart(nowUs)
	return nil
}

// NullObserver discards every lifecycle event; used when transfer modelling
// is disabled (spec section 9).
type NullObserver struct{}

func (NullObserver) OnPlacement(uint64, *sched.Task, topology.ResourceID) error        { return nil }
func (NullObserver) OnCompletion(uint64, *sched.Task, topology.ResourceID) error       { return nil }
func (NullObserver) OnEviction(uint64, *sched.Task, topology.ResourceID) error         { return nil }
func (NullObserver) OnMigration(uint64, *sched.Task, topology.ResourceID, topology.ResourceID) error {
	return nil
}

var _ LifecycleObserver = (*Hook)(nil)
var _ LifecycleObserver = NullObserver{}

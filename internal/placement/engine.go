// Package placement implements the centralized, event-driven scheduling
// round: for each runnable task of each job, pick an idle processing unit
// preferring machines that already hold the task's input data (spec
// section 4.6).
package placement

//go:generate mockgen -source=engine.go -package=placement -destination=mock_datalayer.go

import (
	"errors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/smkuls/firmament/internal/config"
	"github.com/smkuls/firmament/internal/datalayer"
	"github.com/smkuls/firmament/internal/interference"
	"github.com/smkuls/firmament/internal/sched"
	"github.com/smkuls/firmament/internal/stats"
	"github.com/smkuls/firmament/internal/topology"
)

// ErrNoIdleResource names the recoverable condition of no idle PU being
// found anywhere in the cluster. ScheduleJobs does not return it: the round
// skips such a task and leaves it runnable for a later round.
var ErrNoIdleResource = errors.New("placement: no idle resource found, try again later")

// DataLayer is the subset of datalayer.Model the placement engine needs.
type DataLayer interface {
	GetFileLocations(path string) []datalayer.DataLocation
}

// Engine runs scheduling rounds over a shared topology.Map under a single
// exclusive lock (spec section 5). Go has no built-in reentrant mutex;
// rather than hand-roll one, every public entry point here (ScheduleJobs,
// NotifyCompletion, NotifyEviction, NotifyMigration) takes the lock itself and
// calls the lifecycle observer directly, so the observer is never invoked
// from a context that already holds it.
type Engine struct {
	cfg       config.Config
	topo      *topology.Map
	dataLayer DataLayer
	observer  interference.LifecycleObserver
	stat      stats.StatsReceiver
	rng       Rand

	mu sync.Mutex
}

// New builds a placement Engine.
func New(cfg config.Config, topo *topology.Map, dataLayer DataLayer, observer interference.LifecycleObserver, stat stats.StatsReceiver, rng Rand) *Engine {
	if observer == nil {
		observer = interference.NullObserver{}
	}
	if stat == nil {
		stat = stats.Nil()
	}
	if rng == nil {
		rng = DefaultRand()
	}
	return &Engine{
		cfg:       cfg,
		topo:      topo,
		dataLayer: dataLayer,
		observer:  observer,
		stat:      stat.Scope("placement"),
		rng:       rng,
	}
}

// ScheduleJobs processes jobs in submission order under the engine's
// exclusive lock, returning the number of tasks successfully placed.
func (e *Engine) ScheduleJobs(nowUs uint64, jobs []*sched.Job) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.stat.Latency("roundLatency_us").Time().Stop()

	scheduled := 0
	for _, job := range jobs {
		for _, task := range job.Runnable() {
			pu, ok := e.selectPU(task)
			if !ok {
				continue
			}
			if err := e.commit(nowUs, job, task, pu); err != nil {
				return scheduled, err
			}
			scheduled++
		}
	}
	e.stat.Counter("scheduled").Inc(int64(scheduled))
	log.WithFields(log.Fields{"scheduled": scheduled, "jobs": len(jobs)}).Info("placement: round complete")
	return scheduled, nil
}

// selectPU picks the PU a task should run on, per spec section 4.6's
// per-task algorithm, or the randomized-mode algorithm when configured.
func (e *Engine) selectPU(task *sched.Task) (topology.ResourceID, bool) {
	if e.cfg.RandomlyPlaceTasks {
		return e.selectRandomPU()
	}

	ordered := e.orderMachinesByLocality(task)
	for _, machine := range ordered {
		if pu, ok := e.firstIdlePU(machine); ok {
			return pu, true
		}
	}
	// Fallback pass: no data-bearing machine yielded an idle PU (or the
	// task has zero dependencies and never built a locality ordering).
	pu, ok := e.firstIdlePUAnywhere()
	if !ok {
		log.WithField("taskID", task.ID).Debug("placement: no idle PU anywhere, leaving task runnable")
		log.Debug(e.topo.Dump())
	}
	return pu, ok
}

// orderMachinesByLocality computes data_on_machines by walking the task's
// dependencies and consulting the data layer for replica locations, then
// returns machines sorted by descending bytes, ties broken by machine id.
func (e *Engine) orderMachinesByLocality(task *sched.Task) []topology.ResourceID {
	dataOnMachine := map[topology.ResourceID]uint64{}
	for _, dep := range task.Dependencies {
		for _, loc := range e.dataLayer.GetFileLocations(dep.Path) {
			dataOnMachine[loc.Machine] += loc.SizeBytes
		}
	}
	if len(dataOnMachine) == 0 {
		return nil
	}
	machines := make([]topology.ResourceID, 0, len(dataOnMachine))
	for m := range dataOnMachine {
		machines = append(machines, m)
	}
	sort.Slice(machines, func(i, j int) bool {
		bi, bj := dataOnMachine[machines[i]], dataOnMachine[machines[j]]
		if bi != bj {
			return bi > bj
		}
		return machines[i] < machines[j]
	})
	return machines
}

// firstIdlePU returns the first idle PU of machine, in the machine->PU
// index's insertion order, silently skipping a machine that was removed
// from the resource map (spec section 4.6 edge case).
func (e *Engine) firstIdlePU(machine topology.ResourceID) (topology.ResourceID, bool) {
	if _, ok := e.topo.Get(machine); !ok {
		return "", false
	}
	for _, pu := range e.topo.PUsOf(machine) {
		if r, ok := e.topo.Get(pu); ok && r.State == topology.Idle {
			return pu, true
		}
	}
	return "", false
}

// firstIdlePUAnywhere scans every resource, sorted by id for the same
// determinism orderMachinesByLocality and datalayer.Model.Machines()
// already give the rest of this codebase, and returns the first idle PU
// found. Go map iteration order is randomized; a trace-driven simulator
// cannot tolerate that nondeterminism in its fallback path.
func (e *Engine) firstIdlePUAnywhere() (topology.ResourceID, bool) {
	all := e.topo.All()
	ids := make([]topology.ResourceID, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if r := all[id]; r.Kind == topology.ProcessingUnit && r.State == topology.Idle {
			return id, true
		}
	}
	return "", false
}

// selectRandomPU samples resources uniformly up to RandomPlaceAttempts and
// returns the first idle one found (spec section 4.6, randomized mode).
func (e *Engine) selectRandomPU() (topology.ResourceID, bool) {
	all := e.topo.All()
	if len(all) == 0 {
		return "", false
	}
	ids := make([]topology.ResourceID, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	attempts := e.cfg.RandomPlaceAttempts
	if attempts <= 0 {
		attempts = 2000
	}
	for i := 0; i < attempts; i++ {
		id := ids[e.rng.Intn(len(ids))]
		if r := all[id]; r.Kind == topology.ProcessingUnit && r.State == topology.Idle {
			return id, true
		}
	}
	return "", false
}

// commit performs the bookkeeping of a successful placement: remove the
// task from the job's runnable set, transition the PU to busy, record the
// scheduling decision, invoke the lifecycle observer, and transition the
// job to Running.
func (e *Engine) commit(nowUs uint64, job *sched.Job, task *sched.Task, pu topology.ResourceID) error {
	e.topo.MarkBusy(pu, task.ID)
	task.ScheduledTo = pu

	if err := e.observer.OnPlacement(nowUs, task, pu); err != nil {
		e.topo.MarkIdle(pu)
		task.ScheduledTo = ""
		return err
	}

	job.MarkStarted()
	log.WithFields(log.Fields{"jobID": job.ID, "taskID": task.ID, "pu": pu}).Info("placement: scheduled task")
	return nil
}

// NotifyCompletion forwards a task-completion event to the lifecycle
// observer and frees the PU it was running on, under the engine's lock.
func (e *Engine) NotifyCompletion(nowUs uint64, task *sched.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pu := task.ScheduledTo
	if err := e.observer.OnCompletion(nowUs, task, pu); err != nil {
		return err
	}
	e.topo.MarkIdle(pu)
	task.ScheduledTo = ""
	return nil
}

// NotifyEviction forwards a task-eviction event to the lifecycle observer
// and frees the PU it was running on, under the engine's lock.
func (e *Engine) NotifyEviction(nowUs uint64, task *sched.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pu := task.ScheduledTo
	if err := e.observer.OnEviction(nowUs, task, pu); err != nil {
		return err
	}
	e.topo.MarkIdle(pu)
	task.ScheduledTo = ""
	return nil
}

// NotifyMigration forwards a task-migration event to the lifecycle
// observer, freeing the old PU and marking the new one busy.
func (e *Engine) NotifyMigration(nowUs uint64, task *sched.Task, newPU topology.ResourceID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	oldPU := task.ScheduledTo
	if err := e.observer.OnMigration(nowUs, task, oldPU, newPU); err != nil {
		return err
	}
	e.topo.MarkIdle(oldPU)
	e.topo.MarkBusy(newPU, task.ID)
	task.ScheduledTo = newPU
	return nil
}

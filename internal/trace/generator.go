// Package trace synthesizes workload: jobs and tasks with sampled average
// runtimes and input dependencies, standing in for a recorded production
// trace. Not named by the distilled spec directly, but implied by its
// block-count and runtime distributions (section 4.1, 4.2), which only make
// sense fed by a generator that needs average-runtime inputs to sample from.
package trace

import (
	"fmt"
	"math/rand"

	"github.com/nu7hatch/gouuid"

	"github.com/smkuls/firmament/internal/sched"
)

// JobSpec describes one job's worth of tasks to synthesize.
type JobSpec struct {
	NumTasks     int
	AvgRuntimeUs uint64
	IsService    bool
}

// Generator produces sched.Job values with fresh ids, deferring all
// block/replica placement to the data layer (AddFilesForTask is called by
// the caller once a Task exists, mirroring how the teacher's work generator
// reads items off a queue rather than materializing their full state
// itself).
type Generator struct {
	rng *rand.Rand
}

// New builds a Generator. A nil rng falls back to a private math/rand
// source with the fixed seed 1, so the generated resource requests are
// reproducible across runs.
func New(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Generator{rng: rng}
}

func newID(prefix string) string {
	id, err := uuid.NewV4()
	if err != nil {
		// gouuid only fails if crypto/rand's Reader is broken; there's no
		// sane recovery, so fall back to a counter-free but still unique
		// enough id rather than propagating an error through every
		// generator call site.
		return fmt.Sprintf("%s-fallback-%d", prefix, rand.Int63())
	}
	return fmt.Sprintf("%s-%s", prefix, id)
}

// GenJob synthesizes a Job with spec.NumTasks tasks, each carrying the given
// average runtime and a submit time of submitUs. Dependencies are left
// empty; callers that want locality-aware placement call
// datalayer.Model.AddFilesForTask for each task afterward.
func (g *Generator) GenJob(spec JobSpec, submitUs uint64) *sched.Job {
	tasks := make([]*sched.Task, 0, spec.NumTasks)
	for i := 0; i < spec.NumTasks; i++ {
		tasks = append(tasks, &sched.Task{
			ID:           newID("task"),
			IsService:    spec.IsService,
			AvgRuntimeUs: spec.AvgRuntimeUs,
			SubmitUs:     submitUs,
			Request:      g.genResourceRequest(),
		})
	}
	return sched.NewJob(newID("job"), tasks)
}

// genResourceRequest samples a plausible resource vector. Ranges are
// arbitrary but proportioned the way a single-PU task's share of a modern
// machine would be: a fraction of a core, megabytes of RAM/disk bandwidth,
// gigabytes of capacity.
func (g *Generator) genResourceRequest() sched.ResourceRequest {
	return sched.ResourceRequest{
		CPUCores:  0.25 + g.rng.Float64()*3.75,
		RAMBwBps:  uint64(50+g.rng.Intn(450)) * 1 << 20,
		RAMCapB:   uint64(256+g.rng.Intn(3840)) * 1 << 20,
		DiskBwBps: uint64(10+g.rng.Intn(190)) * 1 << 20,
		DiskCapB:  uint64(1+g.rng.Intn(63)) * 1 << 30,
		NetRxBps:  uint64(1+g.rng.Intn(99)) * 1 << 20,
		NetTxBps:  uint64(1+g.rng.Intn(99)) * 1 << 20,
	}
}

// GenTrace synthesizes a sequence of jobs submitted at evenly spaced
// intervals, the simplest workload shape a simulator driver needs to
// exercise a full scheduling run.
func (g *Generator) GenTrace(specs []JobSpec, intervalUs uint64) []*sched.Job {
	jobs := make([]*sched.Job, 0, len(specs))
	var t uint64
	for _, spec := range specs {
		jobs = append(jobs, g.GenJob(spec, t))
		t += intervalUs
	}
	return jobs
}

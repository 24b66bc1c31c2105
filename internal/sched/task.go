// Package sched defines Tasks and Jobs, generalized from scoot's
// saga/thrift-oriented job model (sched/scheduler/job_state.go) to the bare
// resource-request-plus-dependency-list shape the core scheduler needs.
package sched

import "github.com/smkuls/firmament/internal/topology"

// ResourceRequest is the vector of resources a task asks for. Units are left
// to the caller (bytes/sec for bandwidth fields, bytes for capacity fields).
type ResourceRequest struct {
	CPUCores  float64
	RAMBwBps  uint64
	RAMCapB   uint64
	DiskBwBps uint64
	DiskCapB  uint64
	NetRxBps  uint64
	NetTxBps  uint64
}

// Dependency is one input file a task reads before it can run.
type Dependency struct {
	Path      string
	SizeBytes uint64
}

// Task is a unit of work belonging to a Job.
//
// Invariants (spec section 3): once Finish is set, Start <= Finish; across
// an eviction, Submit is updated to the eviction time and Start is cleared;
// remaining runtime (tracked by the interference package, not here)
// monotonically decreases across evictions.
type Task struct {
	ID    string
	JobID string

	Request      ResourceRequest
	Dependencies []Dependency

	// IsService marks a task with no fixed finish time and no input
	// dependencies to fetch; transfer time is always zero for it
	// (spec section 4.5).
	IsService bool

	// AvgRuntimeUs is the trace-provided average duration for this task's
	// job, used to derive a sampled block count (spec sections 4.1, 4.2).
	AvgRuntimeUs uint64

	// Lifecycle timestamps, all in simulator microseconds. Start and Finish
	// are set only when HasStart/HasFinish is true (0 is a valid time).
	SubmitUs           uint64
	StartUs            uint64
	HasStart           bool
	FinishUs           uint64
	HasFinish          bool
	TotalUnscheduledUs uint64
	TotalRunUs         uint64

	ScheduledTo topology.ResourceID
}

// ClearStart un-sets Start, used on eviction per spec section 4.5.
func (t *Task) ClearStart() {
	t.StartUs = 0
	t.HasStart = false
}

// SetStart sets Start to the given simulator time.
func (t *Task) SetStart(us uint64) {
	t.StartUs = us
	t.HasStart = true
}

// SetFinish sets Finish to the given simulator time.
func (t *Task) SetFinish(us uint64) {
	t.FinishUs = us
	t.HasFinish = true
}

// JobState is the lifecycle state of a Job.
type JobState int

const (
	Pending JobState = iota
	Running
	Completed
)

func (s JobState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Job is a bag of tasks. It transitions to Running as soon as any of its
// tasks is placed, and to Completed once every task has a finish time.
type Job struct {
	ID    string
	Tasks []*Task
	State JobState
}

// NewJob constructs a Job in the Pending state.
func NewJob(id string, tasks []*Task) *Job {
	for _, t := range tasks {
		t.JobID = id
	}
	return &Job{ID: id, Tasks: tasks, State: Pending}
}

// Runnable returns the tasks that have not yet been placed (ScheduledTo
// unset and no start time recorded).
func (j *Job) Runnable() []*Task {
	var out []*Task
	for _, t := range j.Tasks {
		if t.ScheduledTo == "" && !t.HasStart {
			out = append(out, t)
		}
	}
	return out
}

// MarkStarted transitions the Job to Running; idempotent.
func (j *Job) MarkStarted() {
	if j.State == Pending {
		j.State = Running
	}
}

// RefreshCompletion transitions the Job to Completed once every task has a
// recorded finish time.
func (j *Job) RefreshCompletion() {
	for _, t := range j.Tasks {
		if !t.HasFinish {
			return
		}
	}
	j.State = Completed
}

package placement

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/luci/go-render/render"

	"github.com/smkuls/firmament/internal/config"
	"github.com/smkuls/firmament/internal/datalayer"
	"github.com/smkuls/firmament/internal/interference"
	"github.com/smkuls/firmament/internal/sched"
	"github.com/smkuls/firmament/internal/topology"
)

// newMockDataLayer builds a MockDataLayer that answers GetFileLocations from
// a fixed path->locations table, the same fixed-response shape the teacher's
// sched/scheduler tests pin via gomock against generated mocks.
func newMockDataLayer(t *testing.T, locs map[string][]datalayer.DataLocation) *MockDataLayer {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	dl := NewMockDataLayer(ctrl)
	dl.EXPECT().GetFileLocations(gomock.Any()).DoAndReturn(func(path string) []datalayer.DataLocation {
		return locs[path]
	}).AnyTimes()
	return dl
}

// recordingObserver captures every OnPlacement call it sees.
type recordingObserver struct {
	interference.NullObserver
	placed []string
}

func (r *recordingObserver) OnPlacement(nowUs uint64, task *sched.Task, target topology.ResourceID) error {
	r.placed = append(r.placed, task.ID+"@"+string(target))
	return nil
}

func newSingleRackTopo(machines ...topology.ResourceID) *topology.Map {
	topo := topology.NewMap()
	topo.AddRack("rack-0")
	for _, m := range machines {
		topo.AddMachine(m, "rack-0")
		topo.AddPU(topology.ResourceID(string(m)+"-pu0"), m)
	}
	return topo
}

// Scenario 1 (spec section 8): the task's only dependency is fully resident
// on one machine, which has an idle PU; it must be placed there.
func TestScheduleJobs_LocalHit(t *testing.T) {
	topo := newSingleRackTopo("A", "B")
	dl := newMockDataLayer(t, map[string][]datalayer.DataLocation{
		"f": {{Machine: "A", Rack: "rack-0", SizeBytes: 100}},
	})
	obs := &recordingObserver{}
	e := New(config.Default(), topo, dl, obs, nil, nil)

	task := &sched.Task{ID: "t1", Dependencies: []sched.Dependency{{Path: "f", SizeBytes: 100}}}
	job := sched.NewJob("j1", []*sched.Task{task})

	n, err := e.ScheduleJobs(0, []*sched.Job{job})
	if err != nil {
		t.Fatalf("ScheduleJobs: %v", err)
	}
	if n != 1 {
		t.Fatalf("scheduled = %d, want 1", n)
	}
	if task.ScheduledTo != "A-pu0" {
		t.Errorf("ScheduledTo = %s, want A-pu0", task.ScheduledTo)
	}
	if want := []string{"t1@A-pu0"}; len(obs.placed) != 1 || obs.placed[0] != want[0] {
		t.Errorf("Expected: %v\nGot: %v", render.Render(want), render.Render(obs.placed))
	}
	if job.State != sched.Running {
		t.Errorf("job state = %v, want Running", job.State)
	}
}

// Tie-break: two machines hold equal bytes; the lower machine id wins.
func TestScheduleJobs_TieBreakByMachineID(t *testing.T) {
	topo := newSingleRackTopo("M2", "M1")
	dl := newMockDataLayer(t, map[string][]datalayer.DataLocation{
		"f": {
			{Machine: "M2", Rack: "rack-0", SizeBytes: 50},
			{Machine: "M1", Rack: "rack-0", SizeBytes: 50},
		},
	})
	e := New(config.Default(), topo, dl, nil, nil, nil)

	task := &sched.Task{ID: "t1", Dependencies: []sched.Dependency{{Path: "f", SizeBytes: 100}}}
	job := sched.NewJob("j1", []*sched.Task{task})

	if _, err := e.ScheduleJobs(0, []*sched.Job{job}); err != nil {
		t.Fatalf("ScheduleJobs: %v", err)
	}
	if task.ScheduledTo != "M1-pu0" {
		t.Errorf("ScheduledTo = %s, want M1-pu0 (lower machine id breaks the tie)", task.ScheduledTo)
	}
}

// Fallback: the task's data-bearing machine has no idle PU, but another
// machine does; the engine must fall back rather than leave the task
// pending.
func TestScheduleJobs_FallbackWhenDataMachineBusy(t *testing.T) {
	topo := newSingleRackTopo("A", "B")
	// Occupy A's only PU so it can't be selected by locality.
	topo.MarkBusy("A-pu0", "other-task")

	dl := newMockDataLayer(t, map[string][]datalayer.DataLocation{
		"f": {{Machine: "A", Rack: "rack-0", SizeBytes: 100}},
	})
	obs := &recordingObserver{}
	e := New(config.Default(), topo, dl, obs, nil, nil)

	task := &sched.Task{ID: "t1", Dependencies: []sched.Dependency{{Path: "f", SizeBytes: 100}}}
	job := sched.NewJob("j1", []*sched.Task{task})

	n, err := e.ScheduleJobs(0, []*sched.Job{job})
	if err != nil {
		t.Fatalf("ScheduleJobs: %v", err)
	}
	if n != 1 {
		t.Fatalf("scheduled = %d, want 1 (fallback pass should have placed it)", n)
	}
	if task.ScheduledTo != "B-pu0" {
		t.Errorf("ScheduledTo = %s, want B-pu0", task.ScheduledTo)
	}
}

// Scenario 6: no idle PU anywhere in the cluster; the task stays runnable
// and no lifecycle callback fires.
func TestScheduleJobs_NoIdlePU_StaysRunnable(t *testing.T) {
	topo := newSingleRackTopo("A")
	topo.MarkBusy("A-pu0", "other-task")

	dl := newMockDataLayer(t, map[string][]datalayer.DataLocation{})
	obs := &recordingObserver{}
	e := New(config.Default(), topo, dl, obs, nil, nil)

	task := &sched.Task{ID: "t1"}
	job := sched.NewJob("j1", []*sched.Task{task})

	n, err := e.ScheduleJobs(0, []*sched.Job{job})
	if err != nil {
		t.Fatalf("ScheduleJobs: %v", err)
	}
	if n != 0 {
		t.Errorf("scheduled = %d, want 0", n)
	}
	if task.ScheduledTo != "" {
		t.Errorf("ScheduledTo = %s, want unset", task.ScheduledTo)
	}
	if len(obs.placed) != 0 {
		t.Errorf("Expected: %v\nGot: %v", render.Render([]string{}), render.Render(obs.placed))
	}
	if job.State != sched.Pending {
		t.Errorf("job state = %v, want Pending", job.State)
	}
	runnable := job.Runnable()
	if len(runnable) != 1 || runnable[0] != task {
		t.Errorf("task should still be runnable after a failed round")
	}
}

// A task with no dependencies (or whose dependencies resolve to no known
// locations) must still be placed via the fallback pass.
func TestScheduleJobs_NoDependencies_UsesFallback(t *testing.T) {
	topo := newSingleRackTopo("A")
	dl := newMockDataLayer(t, map[string][]datalayer.DataLocation{})
	e := New(config.Default(), topo, dl, nil, nil, nil)

	task := &sched.Task{ID: "svc", IsService: true}
	job := sched.NewJob("j1", []*sched.Task{task})

	n, err := e.ScheduleJobs(0, []*sched.Job{job})
	if err != nil {
		t.Fatalf("ScheduleJobs: %v", err)
	}
	if n != 1 || task.ScheduledTo != "A-pu0" {
		t.Errorf("scheduled=%d scheduledTo=%s, want 1/A-pu0", n, task.ScheduledTo)
	}
}

// Randomized mode must still only ever land on an idle PU.
func TestScheduleJobs_RandomizedMode_OnlyPicksIdlePU(t *testing.T) {
	topo := newSingleRackTopo("A", "B")
	topo.MarkBusy("A-pu0", "other-task")

	cfg := config.Default()
	cfg.RandomlyPlaceTasks = true
	cfg.RandomPlaceAttempts = 2000

	dl := newMockDataLayer(t, map[string][]datalayer.DataLocation{})
	e := New(cfg, topo, dl, nil, nil, nil)

	task := &sched.Task{ID: "t1"}
	job := sched.NewJob("j1", []*sched.Task{task})

	n, err := e.ScheduleJobs(0, []*sched.Job{job})
	if err != nil {
		t.Fatalf("ScheduleJobs: %v", err)
	}
	if n != 1 || task.ScheduledTo != "B-pu0" {
		t.Errorf("scheduled=%d scheduledTo=%s, want 1/B-pu0 (only idle PU)", n, task.ScheduledTo)
	}
}

// NotifyCompletion frees the PU the task was bound to.
func TestNotifyCompletion_FreesPU(t *testing.T) {
	topo := newSingleRackTopo("A")
	dl := newMockDataLayer(t, map[string][]datalayer.DataLocation{})
	e := New(config.Default(), topo, dl, nil, nil, nil)

	task := &sched.Task{ID: "t1"}
	job := sched.NewJob("j1", []*sched.Task{task})
	if _, err := e.ScheduleJobs(0, []*sched.Job{job}); err != nil {
		t.Fatalf("ScheduleJobs: %v", err)
	}

	if err := e.NotifyCompletion(10, task); err != nil {
		t.Fatalf("NotifyCompletion: %v", err)
	}
	r, _ := topo.Get("A-pu0")
	if r.State != topology.Idle {
		t.Errorf("PU state = %v, want Idle after completion", r.State)
	}
	if task.ScheduledTo != "" {
		t.Errorf("ScheduledTo = %s, want cleared after completion", task.ScheduledTo)
	}
}

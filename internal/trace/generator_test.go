package trace

import (
	"math/rand"
	"testing"
)

func TestGenJob_ProducesRequestedTaskCount(t *testing.T) {
	g := New(rand.New(rand.NewSource(42)))
	job := g.GenJob(JobSpec{NumTasks: 5, AvgRuntimeUs: 1000}, 0)
	if len(job.Tasks) != 5 {
		t.Fatalf("len(Tasks) = %d, want 5", len(job.Tasks))
	}
	for _, task := range job.Tasks {
		if task.JobID != job.ID {
			t.Errorf("task.JobID = %s, want %s", task.JobID, job.ID)
		}
		if task.AvgRuntimeUs != 1000 {
			t.Errorf("AvgRuntimeUs = %d, want 1000", task.AvgRuntimeUs)
		}
		if task.Request.CPUCores <= 0 {
			t.Errorf("CPUCores = %f, want positive", task.Request.CPUCores)
		}
	}
}

func TestGenJob_UniqueTaskIDs(t *testing.T) {
	g := New(rand.New(rand.NewSource(1)))
	job := g.GenJob(JobSpec{NumTasks: 20, AvgRuntimeUs: 1}, 0)
	seen := map[string]bool{}
	for _, task := range job.Tasks {
		if seen[task.ID] {
			t.Fatalf("duplicate task id %s", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestGenTrace_SpacesJobsByInterval(t *testing.T) {
	g := New(rand.New(rand.NewSource(7)))
	specs := []JobSpec{{NumTasks: 1}, {NumTasks: 1}, {NumTasks: 1}}
	jobs := g.GenTrace(specs, 100)
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
	for i, job := range jobs {
		want := uint64(i) * 100
		if job.Tasks[0].SubmitUs != want {
			t.Errorf("job %d SubmitUs = %d, want %d", i, job.Tasks[0].SubmitUs, want)
		}
	}
}

func TestGenJob_ServiceFlagPropagates(t *testing.T) {
	g := New(rand.New(rand.NewSource(3)))
	job := g.GenJob(JobSpec{NumTasks: 2, IsService: true}, 0)
	for _, task := range job.Tasks {
		if !task.IsService {
			t.Errorf("expected IsService true on every task")
		}
	}
}

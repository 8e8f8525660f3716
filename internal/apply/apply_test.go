package apply_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/model"
)

func intPtr(i int) *int { return &i }

func testCurriculum() model.Curriculum {
	return model.Curriculum{Phases: []model.Phase{
		{ID: "p1", Title: "Foundations", Weeks: []model.Week{
			{ID: 1, Title: "Intro", Tasks: []model.Task{
				{ID: "w1t1", Text: "Set up MCP dev environment (Python SDK, Docs)", Time: "2 hr"},
				{ID: "w1t2", Text: "Read the protocol overview", Time: "1 hr"},
			}},
			{ID: 2, Title: "Tools", Tasks: []model.Task{
				{ID: "w2t1", Text: "Build a tool server", Time: "3 hr"},
			}},
		}},
		{ID: "p2", Title: "Agents", Weeks: []model.Week{
			{ID: 3, Title: "Agents", Tasks: []model.Task{}},
		}},
	}}
}

func seqIDs() apply.IDGenerator {
	i := 0
	return apply.IDGeneratorFunc(func() string {
		i++
		return fmt.Sprintf("gen-%d", i)
	})
}

func TestApplierApply(t *testing.T) {
	tests := map[string]struct {
		ops           []model.Operation
		progress      model.ProgressMap
		expCurriculum func() model.Curriculum
		expProgress   model.ProgressMap
		expApplied    int
		expSkipped    []apply.SkipReason
	}{
		"Update status should upsert and keep other progress fields.": {
			ops: []model.Operation{
				model.UpdateStatus("w1t1", model.TaskStatusDone),
				model.UpdateStatus("orphan", model.TaskStatusSkipped),
			},
			progress:      model.ProgressMap{"w1t1": {Status: model.TaskStatusInProgress, Notes: "half way"}},
			expCurriculum: testCurriculum,
			expProgress: model.ProgressMap{
				"w1t1":   {Status: model.TaskStatusDone, Notes: "half way"},
				"orphan": {Status: model.TaskStatusSkipped},
			},
			expApplied: 2,
			expSkipped: []apply.SkipReason{},
		},
		"Reschedule should move the task to the end of the target week.": {
			ops: []model.Operation{model.Reschedule("w1t1", 2)},
			expCurriculum: func() model.Curriculum {
				c := testCurriculum()
				moved := c.Phases[0].Weeks[0].Tasks[0]
				c.Phases[0].Weeks[0].Tasks = c.Phases[0].Weeks[0].Tasks[1:]
				c.Phases[0].Weeks[1].Tasks = append(c.Phases[0].Weeks[1].Tasks, moved)
				return c
			},
			expProgress: model.ProgressMap{},
			expApplied:  1,
			expSkipped:  []apply.SkipReason{},
		},
		"Reschedule across phases should find the first matching week.": {
			ops: []model.Operation{model.Reschedule("w2t1", 3)},
			expCurriculum: func() model.Curriculum {
				c := testCurriculum()
				moved := c.Phases[0].Weeks[1].Tasks[0]
				c.Phases[0].Weeks[1].Tasks = []model.Task{}
				c.Phases[1].Weeks[0].Tasks = []model.Task{moved}
				return c
			},
			expProgress: model.ProgressMap{},
			expApplied:  1,
			expSkipped:  []apply.SkipReason{},
		},
		"Reschedule to a missing week or of a missing task should be a no-op.": {
			ops: []model.Operation{
				model.Reschedule("w1t1", 42),
				model.Reschedule("missing", 2),
			},
			expCurriculum: testCurriculum,
			expProgress:   model.ProgressMap{},
			expSkipped:    []apply.SkipReason{apply.SkipReasonWeekNotFound, apply.SkipReasonTaskNotFound},
		},
		"Add task should append with a generated ID and display time.": {
			ops: []model.Operation{
				model.AddTask(3, model.NewTask{Text: "Write an agent loop", EstimatedMinutes: intPtr(150), Category: "build"}),
				model.AddTask(3, model.NewTask{ID: "custom", Text: "Review agent evals"}),
				model.AddTask(3, model.NewTask{Text: "Short reading", EstimatedMinutes: intPtr(10), Time: "10 min"}),
			},
			expCurriculum: func() model.Curriculum {
				c := testCurriculum()
				c.Phases[1].Weeks[0].Tasks = []model.Task{
					{ID: "gen-1", Text: "Write an agent loop", Time: "3 hr", EstimatedMinutes: intPtr(150), Category: "build"},
					{ID: "custom", Text: "Review agent evals", Time: "1 hr"},
					{ID: "gen-2", Text: "Short reading", Time: "10 min", EstimatedMinutes: intPtr(10)},
				}
				return c
			},
			expProgress: model.ProgressMap{},
			expApplied:  3,
			expSkipped:  []apply.SkipReason{},
		},
		"Add task with near duplicate text should be skipped.": {
			ops: []model.Operation{
				model.AddTask(1, model.NewTask{Text: "Set up MCP dev environment"}),
				model.AddTask(1, model.NewTask{Text: "READ THE PROTOCOL OVERVIEW"}),
				model.AddTask(1, model.NewTask{Text: "Read the protocol overview and write a summary"}),
			},
			expCurriculum: testCurriculum,
			expProgress:   model.ProgressMap{},
			expSkipped: []apply.SkipReason{
				apply.SkipReasonDuplicateTask,
				apply.SkipReasonDuplicateTask,
				apply.SkipReasonDuplicateTask,
			},
		},
		"Add task to a missing week should be a no-op.": {
			ops:           []model.Operation{model.AddTask(12, model.NewTask{Text: "Capstone"})},
			expCurriculum: testCurriculum,
			expProgress:   model.ProgressMap{},
			expSkipped:    []apply.SkipReason{apply.SkipReasonWeekNotFound},
		},
		"Delete task should remove it and ignore missing ones.": {
			ops: []model.Operation{
				model.DeleteTask("w1t2"),
				model.DeleteTask("w1t2"),
			},
			expCurriculum: func() model.Curriculum {
				c := testCurriculum()
				c.Phases[0].Weeks[0].Tasks = c.Phases[0].Weeks[0].Tasks[:1]
				return c
			},
			expProgress: model.ProgressMap{},
			expApplied:  1,
			expSkipped:  []apply.SkipReason{apply.SkipReasonTaskNotFound},
		},
		"Invalid and unrecognized operations should be skipped.": {
			ops: []model.Operation{
				model.UpdateStatus("w1t1", model.TaskStatus("finished")),
				model.AddTask(1, model.NewTask{Text: "  "}),
				model.OperationFromMap(map[string]any{"type": "rename_week", "week": 1}),
			},
			expCurriculum: testCurriculum,
			expProgress:   model.ProgressMap{},
			expSkipped:    []apply.SkipReason{apply.SkipReasonInvalid, apply.SkipReasonInvalid, apply.SkipReasonInvalid},
		},
		"Statuses outside the known set should be skipped and not written.": {
			ops: []model.Operation{
				model.UpdateStatus("w1t1", model.TaskStatus("completed")),
				model.UpdateStatus("w1t2", model.TaskStatusDone),
			},
			expCurriculum: testCurriculum,
			expProgress:   model.ProgressMap{"w1t2": {Status: model.TaskStatusDone}},
			expApplied:    1,
			expSkipped:    []apply.SkipReason{apply.SkipReasonInvalid},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			a, err := apply.NewApplier(apply.ApplierConfig{IDGenerator: seqIDs()})
			require.NoError(err)

			res := a.Apply(test.ops, testCurriculum(), test.progress)

			assert.Equal(test.expCurriculum(), res.Curriculum)
			assert.Equal(test.expProgress, res.Progress)
			assert.Len(res.Applied, test.expApplied)

			gotSkipped := []apply.SkipReason{}
			for _, s := range res.Skipped {
				gotSkipped = append(gotSkipped, s.Reason)
			}
			assert.Equal(test.expSkipped, gotSkipped)
		})
	}
}

func TestApplierRescheduleRoundTrip(t *testing.T) {
	a, err := apply.NewApplier(apply.ApplierConfig{})
	require.NoError(t, err)

	res := a.Apply([]model.Operation{
		model.Reschedule("w1t1", 2),
		model.Reschedule("w1t1", 1),
	}, testCurriculum(), nil)

	loc, ok := res.Curriculum.FindTask("w1t1")
	require.True(t, ok)
	assert.Equal(t, 1, res.Curriculum.Phases[loc.Phase].Weeks[loc.Week].ID)
	assert.Equal(t, "w1t2", res.Curriculum.Phases[0].Weeks[0].Tasks[0].ID)
	assert.Equal(t, testCurriculum().TotalTasks(), res.Curriculum.TotalTasks())
}

func TestApplierLegacyOperationAppliesLikeTagged(t *testing.T) {
	var legacy, tagged model.Operation
	require.NoError(t, json.Unmarshal([]byte(`{"operation":"update_status","taskId":"w1t1","status":"done"}`), &legacy))
	require.NoError(t, json.Unmarshal([]byte(`{"type":"update_status","taskId":"w1t1","status":"done"}`), &tagged))

	a, err := apply.NewApplier(apply.ApplierConfig{})
	require.NoError(t, err)

	gotLegacy := a.Apply([]model.Operation{legacy}, testCurriculum(), model.ProgressMap{})
	gotTagged := a.Apply([]model.Operation{tagged}, testCurriculum(), model.ProgressMap{})

	assert.Equal(t, gotTagged.Curriculum, gotLegacy.Curriculum)
	assert.Equal(t, gotTagged.Progress, gotLegacy.Progress)
	assert.Equal(t, model.TaskStatusDone, gotLegacy.Progress["w1t1"].Status)
}

func TestApplierPurityAndDeterminism(t *testing.T) {
	ops := []model.Operation{
		model.UpdateStatus("w1t1", model.TaskStatusDone),
		model.Reschedule("w1t2", 3),
		model.AddTask(2, model.NewTask{Text: "Write tests for the tool server", EstimatedMinutes: intPtr(90)}),
		model.DeleteTask("w2t1"),
	}
	confidence := 0.5
	curriculum := testCurriculum()
	progress := model.ProgressMap{"w1t1": {Status: model.TaskStatusTodo, UserConfidence: &confidence}}

	curriculumBefore := curriculum.Clone()
	progressBefore := progress.Clone()

	a1, err := apply.NewApplier(apply.ApplierConfig{IDGenerator: seqIDs()})
	require.NoError(t, err)
	a2, err := apply.NewApplier(apply.ApplierConfig{IDGenerator: seqIDs()})
	require.NoError(t, err)

	res1 := a1.Apply(ops, curriculum, progress)
	res2 := a2.Apply(ops, curriculum.Clone(), progress.Clone())

	// Same input, same output.
	if diff := cmp.Diff(res1.Curriculum, res2.Curriculum); diff != "" {
		t.Errorf("curriculum mismatch (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(res1.Progress, res2.Progress); diff != "" {
		t.Errorf("progress mismatch (-first +second):\n%s", diff)
	}

	// Inputs untouched.
	if diff := cmp.Diff(curriculumBefore, curriculum); diff != "" {
		t.Errorf("curriculum input was mutated (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(progressBefore, progress); diff != "" {
		t.Errorf("progress input was mutated (-before +after):\n%s", diff)
	}

	// Results don't share memory with the inputs.
	*res1.Progress["w1t1"].UserConfidence = 1
	assert.Equal(t, 0.5, *progress["w1t1"].UserConfidence)
}

func TestIsDuplicateText(t *testing.T) {
	tests := map[string]struct {
		existing  string
		candidate string
		exp       bool
	}{
		"Exact match ignoring case.":    {existing: "Read docs", candidate: "read DOCS", exp: true},
		"New text contains existing.":   {existing: "Set up database", candidate: "Set up database backups", exp: true},
		"Existing contains new text.":   {existing: "Set up MCP dev environment (Python SDK, Docs)", candidate: "Set up MCP dev environment", exp: true},
		"Different texts.":              {existing: "Read docs", candidate: "Write code", exp: false},
		"Empty existing text is not.":   {existing: "", candidate: "Write code", exp: false},
		"Surrounding spaces are eaten.": {existing: " Read docs ", candidate: "read docs", exp: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, apply.IsDuplicateText(test.existing, test.candidate))
		})
	}
}

func TestDisplayTime(t *testing.T) {
	tests := map[string]struct {
		minutes *int
		exp     string
	}{
		"Missing minutes should be one hour.":  {minutes: nil, exp: "1 hr"},
		"Few minutes should be one hour.":      {minutes: intPtr(10), exp: "1 hr"},
		"Minutes should round to whole hours.": {minutes: intPtr(150), exp: "3 hr"},
		"Round down.":                          {minutes: intPtr(80), exp: "1 hr"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, apply.DisplayTime(test.minutes))
		})
	}
}

func TestAutoIDGeneratorUnique(t *testing.T) {
	g := apply.NewAutoIDGenerator()

	const workers, perWorker = 8, 200
	var mu sync.Mutex
	seen := map[string]bool{}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				id := g.NewTaskID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	for id := range seen {
		assert.Regexp(t, `^auto-\d+-\d+-[0-9a-z]{16}$`, id)
	}
}

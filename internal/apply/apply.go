package apply

import (
	"fmt"
	"math"
	"strings"

	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
)

// SkipReason is why an operation had no effect.
type SkipReason string

const (
	SkipReasonInvalid       SkipReason = "invalid"
	SkipReasonTaskNotFound  SkipReason = "task_not_found"
	SkipReasonWeekNotFound  SkipReason = "week_not_found"
	SkipReasonDuplicateTask SkipReason = "duplicate_task"
)

// Skipped is an operation that had no effect.
type Skipped struct {
	Operation model.Operation
	Reason    SkipReason
}

// Result is the outcome of applying a batch of operations.
type Result struct {
	Curriculum model.Curriculum
	Progress   model.ProgressMap
	// Applied are the operations that changed something, in order.
	Applied []model.Operation
	// Skipped are the operations that were silently ignored.
	Skipped []Skipped
}

// ApplierConfig is the configuration of the Applier.
type ApplierConfig struct {
	IDGenerator IDGenerator
	Logger      log.Logger
}

func (c *ApplierConfig) defaults() error {
	if c.IDGenerator == nil {
		c.IDGenerator = NewAutoIDGenerator()
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "apply.Applier"})

	return nil
}

// Applier applies operations to a curriculum and a progress map.
type Applier struct {
	ids    IDGenerator
	logger log.Logger
}

// NewApplier returns a new Applier.
func NewApplier(cfg ApplierConfig) (*Applier, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Applier{
		ids:    cfg.IDGenerator,
		logger: cfg.Logger,
	}, nil
}

// Apply applies the operations in order over copies of the curriculum and the
// progress, the inputs are never mutated. Operations that can't be applied
// (invalid, unknown targets, duplicated tasks) are skipped without error.
func (a *Applier) Apply(ops []model.Operation, curriculum model.Curriculum, progress model.ProgressMap) Result {
	res := Result{
		Curriculum: curriculum.Clone(),
		Progress:   progress.Clone(),
		Applied:    []model.Operation{},
		Skipped:    []Skipped{},
	}

	for _, op := range ops {
		reason, ok := a.apply(op, &res)
		if !ok {
			a.logger.Debugf("operation skipped (%s): %s", reason, op.Describe())
			res.Skipped = append(res.Skipped, Skipped{Operation: op, Reason: reason})
			continue
		}
		res.Applied = append(res.Applied, op)
	}

	return res
}

func (a *Applier) apply(op model.Operation, res *Result) (SkipReason, bool) {
	if err := op.Validate(); err != nil {
		return SkipReasonInvalid, false
	}

	switch op.Type {
	case model.OperationUpdateStatus:
		tp := res.Progress[op.TaskID]
		tp.Status = op.Status
		res.Progress[op.TaskID] = tp
		return "", true
	case model.OperationReschedule:
		return reschedule(&res.Curriculum, op.TaskID, op.NewWeek)
	case model.OperationAddTask:
		return a.addTask(&res.Curriculum, op.Week, *op.Task)
	case model.OperationDeleteTask:
		return deleteTask(&res.Curriculum, op.TaskID)
	}

	return SkipReasonInvalid, false
}

func reschedule(c *model.Curriculum, taskID string, newWeek int) (SkipReason, bool) {
	loc, ok := c.FindTask(taskID)
	if !ok {
		return SkipReasonTaskNotFound, false
	}
	pi, wi, ok := c.FindWeek(newWeek)
	if !ok {
		return SkipReasonWeekNotFound, false
	}

	src := &c.Phases[loc.Phase].Weeks[loc.Week]
	task := src.Tasks[loc.Task]
	src.Tasks = append(src.Tasks[:loc.Task:loc.Task], src.Tasks[loc.Task+1:]...)

	dst := &c.Phases[pi].Weeks[wi]
	dst.Tasks = append(dst.Tasks, task)

	return "", true
}

func deleteTask(c *model.Curriculum, taskID string) (SkipReason, bool) {
	loc, ok := c.FindTask(taskID)
	if !ok {
		return SkipReasonTaskNotFound, false
	}

	w := &c.Phases[loc.Phase].Weeks[loc.Week]
	w.Tasks = append(w.Tasks[:loc.Task:loc.Task], w.Tasks[loc.Task+1:]...)

	return "", true
}

func (a *Applier) addTask(c *model.Curriculum, week int, nt model.NewTask) (SkipReason, bool) {
	pi, wi, ok := c.FindWeek(week)
	if !ok {
		return SkipReasonWeekNotFound, false
	}

	w := &c.Phases[pi].Weeks[wi]
	text := strings.TrimSpace(nt.Text)
	for _, t := range w.Tasks {
		if IsDuplicateText(t.Text, text) {
			return SkipReasonDuplicateTask, false
		}
	}

	id := nt.ID
	if id == "" {
		id = a.ids.NewTaskID()
	}

	task := model.Task{
		ID:       id,
		Text:     text,
		Time:     nt.Time,
		Category: nt.Category,
	}
	if nt.EstimatedMinutes != nil {
		v := *nt.EstimatedMinutes
		task.EstimatedMinutes = &v
	}
	if task.Time == "" {
		task.Time = DisplayTime(task.EstimatedMinutes)
	}

	w.Tasks = append(w.Tasks, task)

	return "", true
}

// IsDuplicateText returns true when one task text contains the other, ignoring
// case. It also rejects distinct tasks that share a phrase, like
// "Set up database" and "Set up database backups".
func IsDuplicateText(existing, candidate string) bool {
	e := strings.ToLower(strings.TrimSpace(existing))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if e == "" || c == "" {
		return e == c
	}

	return strings.Contains(e, c) || strings.Contains(c, e)
}

// DisplayTime returns the time label of a task, in whole hours with a minimum of 1.
func DisplayTime(estimatedMinutes *int) string {
	if estimatedMinutes == nil || *estimatedMinutes <= 0 {
		return "1 hr"
	}

	hours := max(1, int(math.Round(float64(*estimatedMinutes)/60)))
	return fmt.Sprintf("%d hr", hours)
}

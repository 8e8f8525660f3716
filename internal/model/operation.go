package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// OperationType is the tag of an agent operation.
type OperationType string

const (
	OperationUpdateStatus OperationType = "update_status"
	OperationReschedule   OperationType = "reschedule"
	OperationAddTask      OperationType = "add_task"
	OperationDeleteTask   OperationType = "delete_task"
)

// Known returns true if the operation type is one of the supported ones.
func (t OperationType) Known() bool {
	switch t {
	case OperationUpdateStatus, OperationReschedule, OperationAddTask, OperationDeleteTask:
		return true
	}
	return false
}

// NewTask is the payload of an add_task operation.
type NewTask struct {
	ID               string `json:"id,omitempty"`
	Text             string `json:"text"`
	EstimatedMinutes *int   `json:"estimatedMinutes,omitempty"`
	Category         string `json:"category,omitempty"`
	Time             string `json:"time,omitempty"`
}

// Operation is one atomic, typed mutation request against the curriculum or the
// progress. Only the fields of its Type are meaningful:
//
//   - update_status: TaskID, Status.
//   - reschedule: TaskID, NewWeek.
//   - add_task: Week, Task.
//   - delete_task: TaskID.
//
// Operations are normalized when decoded from JSON: the legacy `operation` tag is
// accepted in place of `type` and loosely typed values are coerced. Shapes that
// can't be recognized are kept verbatim and encode back unchanged.
type Operation struct {
	Type    OperationType
	TaskID  string
	Status  TaskStatus
	NewWeek int
	Week    int
	Task    *NewTask

	raw json.RawMessage
}

// UpdateStatus returns an update_status operation.
func UpdateStatus(taskID string, status TaskStatus) Operation {
	return Operation{Type: OperationUpdateStatus, TaskID: taskID, Status: status}
}

// Reschedule returns a reschedule operation.
func Reschedule(taskID string, newWeek int) Operation {
	return Operation{Type: OperationReschedule, TaskID: taskID, NewWeek: newWeek}
}

// AddTask returns an add_task operation.
func AddTask(week int, task NewTask) Operation {
	return Operation{Type: OperationAddTask, Week: week, Task: &task}
}

// DeleteTask returns a delete_task operation.
func DeleteTask(taskID string) Operation {
	return Operation{Type: OperationDeleteTask, TaskID: taskID}
}

// Recognized returns false when the operation shape could not be normalized and
// is carried verbatim.
func (o Operation) Recognized() bool { return o.raw == nil && o.Type.Known() }

// Validate checks the operation has everything its type requires.
func (o Operation) Validate() error {
	if !o.Recognized() {
		return fmt.Errorf("unrecognized operation %q: %w", o.Type, ErrNotValid)
	}

	switch o.Type {
	case OperationUpdateStatus:
		if o.TaskID == "" {
			return fmt.Errorf("task id is required: %w", ErrNotValid)
		}
		return o.Status.Validate()
	case OperationReschedule:
		if o.TaskID == "" {
			return fmt.Errorf("task id is required: %w", ErrNotValid)
		}
		if o.NewWeek <= 0 {
			return fmt.Errorf("new week must be positive: %w", ErrNotValid)
		}
	case OperationAddTask:
		if o.Week <= 0 {
			return fmt.Errorf("week must be positive: %w", ErrNotValid)
		}
		if o.Task == nil || strings.TrimSpace(o.Task.Text) == "" {
			return fmt.Errorf("task text is required: %w", ErrNotValid)
		}
	case OperationDeleteTask:
		if o.TaskID == "" {
			return fmt.Errorf("task id is required: %w", ErrNotValid)
		}
	}

	return nil
}

// Describe returns a short human readable description of the operation.
func (o Operation) Describe() string {
	switch {
	case !o.Recognized():
		return fmt.Sprintf("Unsupported operation: %s", o.Type)
	case o.Type == OperationUpdateStatus:
		return fmt.Sprintf("Update %s → %s", o.TaskID, o.Status)
	case o.Type == OperationReschedule:
		return fmt.Sprintf("Move %s → Week %d", o.TaskID, o.NewWeek)
	case o.Type == OperationDeleteTask:
		return fmt.Sprintf("Remove task: %s", o.TaskID)
	}

	text := "New task"
	if o.Task != nil && o.Task.Text != "" {
		text = o.Task.Text
	}
	return fmt.Sprintf("Add task to Week %d: %s", o.Week, text)
}

// MarshalJSON satisfies json.Marshaler.
func (o Operation) MarshalJSON() ([]byte, error) {
	if o.raw != nil {
		return o.raw, nil
	}

	switch o.Type {
	case OperationUpdateStatus:
		return json.Marshal(struct {
			Type   OperationType `json:"type"`
			TaskID string        `json:"taskId"`
			Status TaskStatus    `json:"status"`
		}{o.Type, o.TaskID, o.Status})
	case OperationReschedule:
		return json.Marshal(struct {
			Type    OperationType `json:"type"`
			TaskID  string        `json:"taskId"`
			NewWeek int           `json:"newWeek"`
		}{o.Type, o.TaskID, o.NewWeek})
	case OperationAddTask:
		task := NewTask{}
		if o.Task != nil {
			task = *o.Task
		}
		return json.Marshal(struct {
			Type OperationType `json:"type"`
			Week int           `json:"week"`
			Task NewTask       `json:"task"`
		}{o.Type, o.Week, task})
	case OperationDeleteTask:
		return json.Marshal(struct {
			Type   OperationType `json:"type"`
			TaskID string        `json:"taskId"`
		}{o.Type, o.TaskID})
	}

	return json.Marshal(struct {
		Type OperationType `json:"type"`
	}{o.Type})
}

// UnmarshalJSON satisfies json.Unmarshaler. It never fails on well formed JSON,
// unrecognized shapes are kept verbatim.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		// Valid JSON that is not an object (string, number...).
		if !json.Valid(data) {
			return err
		}
		*o = Operation{raw: append(json.RawMessage(nil), data...)}
		return nil
	}

	op, ok := operationFromObject(obj)
	if !ok {
		op.raw = append(json.RawMessage(nil), data...)
	}
	*o = op
	return nil
}

// OperationFromMap normalizes a loosely typed operation object, as decoded from
// model output, into an Operation.
func OperationFromMap(obj map[string]any) Operation {
	op, ok := operationFromObject(obj)
	if !ok {
		raw, err := json.Marshal(obj)
		if err != nil {
			raw = []byte("null")
		}
		op.raw = raw
	}
	return op
}

func operationFromObject(obj map[string]any) (Operation, bool) {
	tag, _ := obj["type"].(string)
	if tag == "" {
		// Legacy shape.
		tag, _ = obj["operation"].(string)
	}
	op := Operation{Type: OperationType(strings.ToLower(strings.TrimSpace(tag)))}

	var err error
	switch op.Type {
	case OperationUpdateStatus:
		if op.TaskID, err = taskIDFrom(obj); err != nil {
			return op, false
		}
		status, err := cast.ToStringE(obj["status"])
		if err != nil {
			return op, false
		}
		op.Status = normalizeStatus(status)
	case OperationReschedule:
		if op.TaskID, err = taskIDFrom(obj); err != nil {
			return op, false
		}
		if op.NewWeek, err = intFrom(obj, "newWeek", "week"); err != nil {
			return op, false
		}
	case OperationAddTask:
		if op.Week, err = intFrom(obj, "week"); err != nil {
			return op, false
		}
		taskObj, isObj := obj["task"].(map[string]any)
		if !isObj {
			// Legacy flattened task fields.
			taskObj = obj
		}
		task, ok := newTaskFrom(taskObj)
		if !ok {
			return op, false
		}
		op.Task = &task
	case OperationDeleteTask:
		if op.TaskID, err = taskIDFrom(obj); err != nil {
			return op, false
		}
	default:
		return op, false
	}

	return op, true
}

func taskIDFrom(obj map[string]any) (string, error) {
	v, ok := obj["taskId"]
	if !ok {
		return "", fmt.Errorf("missing task id")
	}
	id, err := cast.ToStringE(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}

func intFrom(obj map[string]any, keys ...string) (int, error) {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		return cast.ToIntE(v)
	}
	return 0, fmt.Errorf("missing %s", keys[0])
}

func newTaskFrom(obj map[string]any) (NewTask, bool) {
	text, err := cast.ToStringE(obj["text"])
	if err != nil {
		return NewTask{}, false
	}

	task := NewTask{Text: strings.TrimSpace(text)}
	if id, ok := obj["id"]; ok {
		task.ID, _ = cast.ToStringE(id)
	}
	if cat, ok := obj["category"]; ok {
		task.Category, _ = cast.ToStringE(cat)
	}
	if tm, ok := obj["time"]; ok {
		task.Time, _ = cast.ToStringE(tm)
	}
	if em, ok := obj["estimatedMinutes"]; ok && em != nil {
		if minutes, err := cast.ToIntE(em); err == nil && minutes > 0 {
			task.EstimatedMinutes = &minutes
		}
	}

	return task, true
}

func normalizeStatus(s string) TaskStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return TaskStatus(s)
}

package model

import (
	"fmt"
	"slices"
)

// Curriculum is the full ordered program content. It is persisted, loaded and
// mutated as a single document.
type Curriculum struct {
	Phases []Phase `json:"phases"`
}

// Phase groups an ordered sequence of weeks.
type Phase struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Weeks []Week `json:"weeks"`
}

// Week is a single curriculum week. Task order is insertion order.
type Week struct {
	ID        int        `json:"id"`
	Title     string     `json:"title,omitempty"`
	Goal      string     `json:"goal,omitempty"`
	Resources []Resource `json:"resources,omitempty"`
	Tasks     []Task     `json:"tasks"`
}

// Resource is a reference link attached to a week.
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Task is a single curriculum task, identified by its ID across the whole curriculum.
type Task struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Time             string   `json:"time,omitempty"`
	EstimatedMinutes *int     `json:"estimatedMinutes,omitempty"`
	Category         string   `json:"category,omitempty"`
	Importance       *int     `json:"importance,omitempty"`
	SkillLevel       string   `json:"skillLevel,omitempty"`
	Prerequisites    []string `json:"prerequisites,omitempty"`
	Subtasks         []string `json:"subtasks,omitempty"`
}

// TaskLocation points to a task inside a curriculum.
type TaskLocation struct {
	Phase int
	Week  int
	Task  int
}

// FindTask returns the location of the first task with the given ID.
func (c Curriculum) FindTask(id string) (TaskLocation, bool) {
	for pi, p := range c.Phases {
		for wi, w := range p.Weeks {
			for ti, t := range w.Tasks {
				if t.ID == id {
					return TaskLocation{Phase: pi, Week: wi, Task: ti}, true
				}
			}
		}
	}
	return TaskLocation{}, false
}

// FindWeek returns the phase and week indexes of the first week with the given ID.
func (c Curriculum) FindWeek(id int) (phase, week int, ok bool) {
	for pi, p := range c.Phases {
		for wi, w := range p.Weeks {
			if w.ID == id {
				return pi, wi, true
			}
		}
	}
	return 0, 0, false
}

// Weeks returns all the weeks in phase order.
func (c Curriculum) Weeks() []Week {
	var weeks []Week
	for _, p := range c.Phases {
		weeks = append(weeks, p.Weeks...)
	}
	return weeks
}

// TotalTasks returns the number of tasks in the curriculum.
func (c Curriculum) TotalTasks() int {
	total := 0
	for _, w := range c.Weeks() {
		total += len(w.Tasks)
	}
	return total
}

// CurrentWeek returns the first week that has a task not present in completed.
// When every task is completed the last week is returned, and 1 when the
// curriculum has no weeks.
func (c Curriculum) CurrentWeek(completed map[string]bool) int {
	weeks := c.Weeks()
	for _, w := range weeks {
		for _, t := range w.Tasks {
			if !completed[t.ID] {
				return w.ID
			}
		}
	}
	if len(weeks) == 0 {
		return 1
	}
	return weeks[len(weeks)-1].ID
}

// Validate checks the curriculum structure: task IDs must be unique.
func (c Curriculum) Validate() error {
	seen := map[string]bool{}
	for _, w := range c.Weeks() {
		for _, t := range w.Tasks {
			if t.ID == "" {
				return fmt.Errorf("task in week %d without id: %w", w.ID, ErrNotValid)
			}
			if seen[t.ID] {
				return fmt.Errorf("duplicated task id %q: %w", t.ID, ErrNotValid)
			}
			seen[t.ID] = true
		}
	}
	return nil
}

// Clone returns a deep copy of the curriculum.
func (c Curriculum) Clone() Curriculum {
	if c.Phases == nil {
		return Curriculum{}
	}

	phases := make([]Phase, len(c.Phases))
	for i, p := range c.Phases {
		phases[i] = p.clone()
	}
	return Curriculum{Phases: phases}
}

func (p Phase) clone() Phase {
	cp := p
	if p.Weeks != nil {
		cp.Weeks = make([]Week, len(p.Weeks))
		for i, w := range p.Weeks {
			cp.Weeks[i] = w.clone()
		}
	}
	return cp
}

func (w Week) clone() Week {
	cp := w
	cp.Resources = slices.Clone(w.Resources)
	if w.Tasks != nil {
		cp.Tasks = make([]Task, len(w.Tasks))
		for i, t := range w.Tasks {
			cp.Tasks[i] = t.Clone()
		}
	}
	return cp
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	cp := t
	if t.EstimatedMinutes != nil {
		v := *t.EstimatedMinutes
		cp.EstimatedMinutes = &v
	}
	if t.Importance != nil {
		v := *t.Importance
		cp.Importance = &v
	}
	cp.Prerequisites = slices.Clone(t.Prerequisites)
	cp.Subtasks = slices.Clone(t.Subtasks)
	return cp
}

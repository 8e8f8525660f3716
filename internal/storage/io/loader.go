package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/plancoach/internal/model"
)

// CurriculumFileRepository loads curricula from YAML or JSON files.
type CurriculumFileRepository struct {
	fs fs.FS
}

// NewCurriculumFileRepository creates a new curriculum file repository.
func NewCurriculumFileRepository(filesystem fs.FS) *CurriculumFileRepository {
	return &CurriculumFileRepository{fs: filesystem}
}

// GetCurriculum loads a curriculum file and returns a validated domain model. JSON
// files are accepted as YAML.
func (r *CurriculumFileRepository) GetCurriculum(ctx context.Context, path string) (model.Curriculum, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Curriculum{}, fmt.Errorf("reading curriculum file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Curriculum{}, ctx.Err()
	}

	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return model.Curriculum{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := c.validate(); err != nil {
		return model.Curriculum{}, fmt.Errorf("invalid curriculum: %w", err)
	}

	mc := c.toModel()
	if err := mc.Validate(); err != nil {
		return model.Curriculum{}, fmt.Errorf("invalid curriculum: %w", err)
	}

	return mc, nil
}

// Curriculum represents the file structure of a curriculum.
type Curriculum struct {
	Phases []Phase `yaml:"phases"`
}

// Phase represents the file structure of a phase.
type Phase struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Weeks []Week `yaml:"weeks"`
}

// Week represents the file structure of a week.
type Week struct {
	ID        int        `yaml:"id"`
	Title     string     `yaml:"title"`
	Goal      string     `yaml:"goal"`
	Resources []Resource `yaml:"resources"`
	Tasks     []Task     `yaml:"tasks"`
}

// Resource represents the file structure of a week resource.
type Resource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Task represents the file structure of a task.
type Task struct {
	ID               string   `yaml:"id"`
	Text             string   `yaml:"text"`
	Time             string   `yaml:"time"`
	EstimatedMinutes *int     `yaml:"estimatedMinutes"`
	Category         string   `yaml:"category"`
	Importance       *int     `yaml:"importance"`
	SkillLevel       string   `yaml:"skillLevel"`
	Prerequisites    []string `yaml:"prerequisites"`
	Subtasks         []string `yaml:"subtasks"`
}

func (c Curriculum) validate() error {
	if len(c.Phases) == 0 {
		return fmt.Errorf("at least one phase is required")
	}

	weeks := map[int]bool{}
	for _, p := range c.Phases {
		if p.ID == "" {
			return fmt.Errorf("phase id is required")
		}
		for _, w := range p.Weeks {
			if w.ID <= 0 {
				return fmt.Errorf("phase %s: week id must be positive, got: %d", p.ID, w.ID)
			}
			if weeks[w.ID] {
				return fmt.Errorf("phase %s: duplicated week %d", p.ID, w.ID)
			}
			weeks[w.ID] = true

			for _, t := range w.Tasks {
				if t.Text == "" {
					return fmt.Errorf("week %d: task %q text is required", w.ID, t.ID)
				}
			}
		}
	}

	return nil
}

func (c Curriculum) toModel() model.Curriculum {
	mc := model.Curriculum{Phases: make([]model.Phase, 0, len(c.Phases))}
	for _, p := range c.Phases {
		mp := model.Phase{ID: p.ID, Title: p.Title, Weeks: make([]model.Week, 0, len(p.Weeks))}
		for _, w := range p.Weeks {
			mw := model.Week{ID: w.ID, Title: w.Title, Goal: w.Goal, Tasks: make([]model.Task, 0, len(w.Tasks))}
			for _, r := range w.Resources {
				mw.Resources = append(mw.Resources, model.Resource{Name: r.Name, URL: r.URL})
			}
			for _, t := range w.Tasks {
				mw.Tasks = append(mw.Tasks, model.Task{
					ID:               t.ID,
					Text:             t.Text,
					Time:             t.Time,
					EstimatedMinutes: t.EstimatedMinutes,
					Category:         t.Category,
					Importance:       t.Importance,
					SkillLevel:       t.SkillLevel,
					Prerequisites:    t.Prerequisites,
					Subtasks:         t.Subtasks,
				})
			}
			mp.Weeks = append(mp.Weeks, mw)
		}
		mc.Phases = append(mc.Phases, mp)
	}

	return mc
}

package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/plancoach/internal/model"
)

func TestCurriculumFileRepository_GetCurriculum(t *testing.T) {
	minutes := 120

	tests := map[string]struct {
		fs            fstest.MapFS
		path          string
		expCurriculum model.Curriculum
		expErr        bool
		errMsg        string
	}{
		"Valid YAML curriculum should load successfully": {
			fs: fstest.MapFS{
				"curriculum.yaml": &fstest.MapFile{
					Data: []byte(`phases:
  - id: p1
    title: Foundations
    weeks:
      - id: 1
        title: MCP basics
        goal: Understand the protocol
        resources:
          - name: Docs
            url: https://example.com/docs
        tasks:
          - id: w1t1
            text: Read the protocol overview
            time: 2 hr
            estimatedMinutes: 120
            category: reading
`),
				},
			},
			path: "curriculum.yaml",
			expCurriculum: model.Curriculum{Phases: []model.Phase{{
				ID:    "p1",
				Title: "Foundations",
				Weeks: []model.Week{{
					ID:        1,
					Title:     "MCP basics",
					Goal:      "Understand the protocol",
					Resources: []model.Resource{{Name: "Docs", URL: "https://example.com/docs"}},
					Tasks: []model.Task{{
						ID:               "w1t1",
						Text:             "Read the protocol overview",
						Time:             "2 hr",
						EstimatedMinutes: &minutes,
						Category:         "reading",
					}},
				}},
			}}},
		},
		"Valid JSON curriculum should load successfully": {
			fs: fstest.MapFS{
				"curriculum.json": &fstest.MapFile{
					Data: []byte(`{"phases":[{"id":"p1","title":"F","weeks":[{"id":2,"tasks":[{"id":"w2t1","text":"Build"}]}]}]}`),
				},
			},
			path: "curriculum.json",
			expCurriculum: model.Curriculum{Phases: []model.Phase{{
				ID:    "p1",
				Title: "F",
				Weeks: []model.Week{{ID: 2, Tasks: []model.Task{{ID: "w2t1", Text: "Build"}}}},
			}}},
		},
		"Missing file should return error": {
			fs:     fstest.MapFS{},
			path:   "nonexistent.yaml",
			expErr: true,
			errMsg: "reading curriculum file",
		},
		"Invalid YAML should return error": {
			fs: fstest.MapFS{
				"invalid.yaml": &fstest.MapFile{Data: []byte(`invalid: yaml: content: {}`)},
			},
			path:   "invalid.yaml",
			expErr: true,
			errMsg: "parsing YAML",
		},
		"Empty curriculum should return error": {
			fs: fstest.MapFS{
				"empty.yaml": &fstest.MapFile{Data: []byte("---\n")},
			},
			path:   "empty.yaml",
			expErr: true,
			errMsg: "at least one phase is required",
		},
		"Duplicated task IDs should return error": {
			fs: fstest.MapFS{
				"dup.yaml": &fstest.MapFile{Data: []byte(`phases:
  - id: p1
    weeks:
      - id: 1
        tasks: [{id: a, text: A}]
      - id: 2
        tasks: [{id: a, text: B}]
`)},
			},
			path:   "dup.yaml",
			expErr: true,
			errMsg: "duplicated task id",
		},
		"Non positive week IDs should return error": {
			fs: fstest.MapFS{
				"week.yaml": &fstest.MapFile{Data: []byte(`phases: [{id: p1, weeks: [{id: 0}]}]`)},
			},
			path:   "week.yaml",
			expErr: true,
			errMsg: "week id must be positive",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewCurriculumFileRepository(tc.fs)
			c, err := repo.GetCurriculum(context.Background(), tc.path)

			if tc.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expCurriculum, c)
		})
	}
}

func TestCurriculumFileRepository_GetCurriculum_ContextCancellation(t *testing.T) {
	fs := fstest.MapFS{
		"c.yaml": &fstest.MapFile{Data: []byte("phases: [{id: p1}]\n")},
	}

	repo := NewCurriculumFileRepository(fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetCurriculum(ctx, "c.yaml")
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

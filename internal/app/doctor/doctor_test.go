package doctor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/plancoach/internal/app/doctor"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage"
	"github.com/slok/plancoach/internal/storage/storagemock"
)

func TestServiceRun(t *testing.T) {
	curriculum := map[string]any{"phases": []any{
		map[string]any{"id": "p1", "weeks": []any{
			map[string]any{"id": float64(1), "tasks": []any{map[string]any{"id": "w1t1", "text": "Read"}}},
		}},
	}}

	tests := map[string]struct {
		credentials bool
		mock        func(m *storagemock.DocumentStore)
		expStatus   map[string]model.CheckStatus
	}{
		"Everything in place should pass.": {
			credentials: true,
			mock: func(m *storagemock.DocumentStore) {
				m.On("GetDocument", mock.Anything, storage.CurriculumPath).Once().Return(curriculum, nil)
			},
			expStatus: map[string]model.CheckStatus{
				"model_credentials":  model.CheckStatusOK,
				"store_reachable":    model.CheckStatusOK,
				"curriculum_present": model.CheckStatusOK,
			},
		},

		"Missing credentials and curriculum should only warn.": {
			mock: func(m *storagemock.DocumentStore) {
				m.On("GetDocument", mock.Anything, storage.CurriculumPath).Once().Return(nil, model.ErrNotFound)
			},
			expStatus: map[string]model.CheckStatus{
				"model_credentials":  model.CheckStatusWarning,
				"store_reachable":    model.CheckStatusOK,
				"curriculum_present": model.CheckStatusWarning,
			},
		},

		"An unreachable store should be an error.": {
			credentials: true,
			mock: func(m *storagemock.DocumentStore) {
				m.On("GetDocument", mock.Anything, storage.CurriculumPath).Once().Return(nil, errors.New("connection refused"))
			},
			expStatus: map[string]model.CheckStatus{
				"model_credentials": model.CheckStatusOK,
				"store_reachable":   model.CheckStatusError,
			},
		},

		"A curriculum with duplicated task ids should be an error.": {
			credentials: true,
			mock: func(m *storagemock.DocumentStore) {
				m.On("GetDocument", mock.Anything, storage.CurriculumPath).Once().Return(map[string]any{"phases": []any{
					map[string]any{"id": "p1", "weeks": []any{
						map[string]any{"id": float64(1), "tasks": []any{
							map[string]any{"id": "t", "text": "a"},
							map[string]any{"id": "t", "text": "b"},
						}},
					}},
				}}, nil)
			},
			expStatus: map[string]model.CheckStatus{
				"model_credentials":  model.CheckStatusOK,
				"store_reachable":    model.CheckStatusOK,
				"curriculum_present": model.CheckStatusError,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := &storagemock.DocumentStore{}
			test.mock(m)

			svc, err := doctor.NewService(doctor.ServiceConfig{
				Store:            m,
				ModelProvider:    "anthropic",
				ModelCredentials: test.credentials,
			})
			require.NoError(t, err)

			results := svc.Run(context.Background())
			m.AssertExpectations(t)

			got := map[string]model.CheckStatus{}
			for _, r := range results {
				got[r.ID] = r.Status
			}
			assert.Equal(t, test.expStatus, got)
		})
	}
}

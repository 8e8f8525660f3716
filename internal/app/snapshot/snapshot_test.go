package snapshot_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/storage/storagemock"
)

func testCurriculum() model.Curriculum {
	return model.Curriculum{Phases: []model.Phase{
		{ID: "p1", Weeks: []model.Week{
			{ID: 1, Tasks: []model.Task{{ID: "w1t1", Text: "a"}, {ID: "w1t2", Text: "b"}}},
			{ID: 2, Tasks: []model.Task{{ID: "w2t1", Text: "c"}}},
		}},
		{ID: "p2", Weeks: []model.Week{
			{ID: 3, Tasks: []model.Task{{ID: "w3t1", Text: "d"}}},
		}},
	}}
}

func TestNew(t *testing.T) {
	hours := 6.0
	m90, m200 := 90, 200

	tests := map[string]struct {
		curriculum model.Curriculum
		progress   model.UserProgress
		msgs       []model.Message
		exp        *snapshot.Snapshot
	}{
		"An empty curriculum should start at week 1.": {
			exp: &snapshot.Snapshot{CurrentWeek: 1},
		},

		"Progress should be counted on the curriculum tasks.": {
			curriculum: testCurriculum(),
			progress: model.UserProgress{
				TaskProgress: model.ProgressMap{
					"w1t1":    {Status: model.TaskStatusDone},
					"w1t2":    {Status: model.TaskStatusDone},
					"w2t1":    {Status: model.TaskStatusInProgress},
					"deleted": {Status: model.TaskStatusDone},
				},
				HoursPerWeekTarget: &hours,
			},
			exp: &snapshot.Snapshot{CurrentWeek: 2, TotalWeeks: 3, CompletedTasks: 2, TotalTasks: 4, HoursPerWeekTarget: &hours},
		},

		"The latest plan with an estimate should be used.": {
			curriculum: testCurriculum(),
			msgs: []model.Message{
				{Role: model.RoleAssistant, WeeklyPlan: &model.WeeklyPlan{Week: 1, EstimatedMinutes: &m200}},
				{Role: model.RoleAssistant, WeeklyPlan: &model.WeeklyPlan{Week: 2, EstimatedMinutes: &m90}},
				{Role: model.RoleAssistant, WeeklyPlan: &model.WeeklyPlan{Week: 3}},
				{Role: model.RoleUser, Content: "yes"},
			},
			exp: &snapshot.Snapshot{CurrentWeek: 1, TotalWeeks: 3, TotalTasks: 4, WeeklyPlanMinutes: &m90},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, snapshot.New(test.curriculum, test.progress, test.msgs))
		})
	}
}

func TestServiceRun(t *testing.T) {
	errTest := errors.New("whatever")

	tests := map[string]struct {
		mock   func(mc *storagemock.CurriculumRepository, mp *storagemock.ProgressRepository, mconv *storagemock.ConversationRepository)
		exp    *snapshot.Snapshot
		expErr bool
	}{
		"A snapshot should be computed from the stored documents.": {
			mock: func(mc *storagemock.CurriculumRepository, mp *storagemock.ProgressRepository, mconv *storagemock.ConversationRepository) {
				c := testCurriculum()
				mc.On("GetCurriculum", mock.Anything).Once().Return(&c, nil)
				mp.On("GetProgress", mock.Anything, model.DefaultUserID).Once().Return(&model.UserProgress{
					TaskProgress: model.ProgressMap{"w1t1": {Status: model.TaskStatusDone}},
				}, nil)
				mconv.On("LoadConversation", mock.Anything, model.DefaultUserID).Once().Return([]model.Message{}, nil)
			},
			exp: &snapshot.Snapshot{CurrentWeek: 1, TotalWeeks: 3, CompletedTasks: 1, TotalTasks: 4},
		},

		"A failure getting the progress should fail.": {
			mock: func(mc *storagemock.CurriculumRepository, mp *storagemock.ProgressRepository, mconv *storagemock.ConversationRepository) {
				c := testCurriculum()
				mc.On("GetCurriculum", mock.Anything).Maybe().Return(&c, nil)
				mp.On("GetProgress", mock.Anything, model.DefaultUserID).Once().Return(nil, errTest)
				mconv.On("LoadConversation", mock.Anything, model.DefaultUserID).Maybe().Return([]model.Message{}, nil)
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			mc := &storagemock.CurriculumRepository{}
			mp := &storagemock.ProgressRepository{}
			mconv := &storagemock.ConversationRepository{}
			test.mock(mc, mp, mconv)

			svc, err := snapshot.NewService(snapshot.ServiceConfig{Curriculum: mc, Progress: mp, Conversation: mconv})
			require.NoError(err)

			got, err := svc.Run(context.Background(), snapshot.Request{})
			mc.AssertExpectations(t)
			mp.AssertExpectations(t)
			mconv.AssertExpectations(t)
			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(err)
			assert.Equal(test.exp, got)
		})
	}
}

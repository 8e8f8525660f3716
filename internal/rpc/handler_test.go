package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/slok/plancoach/internal/app/applyops"
	"github.com/slok/plancoach/internal/app/coach"
	"github.com/slok/plancoach/internal/app/conversationclear"
	"github.com/slok/plancoach/internal/app/history"
	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/conversation"
	"github.com/slok/plancoach/internal/llm"
	"github.com/slok/plancoach/internal/llm/fake"
	"github.com/slok/plancoach/internal/model"
	"github.com/slok/plancoach/internal/rpc"
	"github.com/slok/plancoach/internal/storage"
	"github.com/slok/plancoach/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const proposal = `{"message":"Shall I add these to week 2?","operations":[],"weeklyPlan":{"week":2,"tasks":["Build an MCP server (2 hrs)"],"estimatedMinutes":120}}`

func newHandler(t *testing.T, m llm.Client) http.Handler {
	t.Helper()
	require := require.New(t)

	store, err := memory.NewDocumentStore(memory.DocumentStoreConfig{})
	require.NoError(err)
	repo, err := storage.NewDocumentRepository(storage.DocumentRepositoryConfig{Store: store})
	require.NoError(err)
	convs, err := conversation.NewStore(conversation.StoreConfig{Documents: store})
	require.NoError(err)

	err = repo.SaveCurriculum(context.Background(), model.Curriculum{Phases: []model.Phase{{ID: "p1", Weeks: []model.Week{
		{ID: 1, Tasks: []model.Task{{ID: "w1t1", Text: "Read the MCP docs"}}},
		{ID: 2, Tasks: []model.Task{}},
	}}}})
	require.NoError(err)

	applySvc, err := applyops.NewService(applyops.ServiceConfig{Curriculum: repo, Progress: repo})
	require.NoError(err)
	coachSvc, err := coach.NewService(coach.ServiceConfig{Curriculum: repo, Progress: repo, Conversation: convs, Model: m})
	require.NoError(err)
	historySvc, err := history.NewService(history.ServiceConfig{Conversation: convs})
	require.NoError(err)
	clearSvc, err := conversationclear.NewService(conversationclear.ServiceConfig{Conversation: convs})
	require.NoError(err)
	snapshotSvc, err := snapshot.NewService(snapshot.ServiceConfig{Curriculum: repo, Progress: repo, Conversation: convs})
	require.NoError(err)

	h, err := rpc.NewHandler(rpc.HandlerConfig{
		Coach:    coachSvc,
		History:  historySvc,
		Clear:    clearSvc,
		Apply:    applySvc,
		Snapshot: snapshotSvc,
	})
	require.NoError(err)

	return h
}

type call struct {
	method string
	path   string
	body   string
	user   string
}

func do(t *testing.T, h http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body *strings.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.user != "" {
		req.Header.Set(rpc.UserIDHeader, c.user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler(t *testing.T) {
	tests := map[string]struct {
		replies   []string
		calls     []call
		expStatus int
		expBody   func(t *testing.T, body []byte)
	}{
		"An empty message should be an invalid argument.": {
			calls:     []call{{method: http.MethodPost, path: "/v1/coach", body: `{"message":""}`}},
			expStatus: http.StatusBadRequest,
			expBody: func(t *testing.T, body []byte) {
				var resp rpc.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, rpc.CodeInvalidArgument, resp.Error.Code)
			},
		},

		"A blank message should be an invalid argument.": {
			calls:     []call{{method: http.MethodPost, path: "/v1/coach", body: `{"message":"   "}`}},
			expStatus: http.StatusBadRequest,
		},

		"A malformed body should be an invalid argument.": {
			calls:     []call{{method: http.MethodPost, path: "/v1/coach", body: `{"message":`}},
			expStatus: http.StatusBadRequest,
		},

		"A model failure should be an internal error.": {
			calls:     []call{{method: http.MethodPost, path: "/v1/coach", body: `{"message":"hi"}`}},
			expStatus: http.StatusInternalServerError,
			expBody: func(t *testing.T, body []byte) {
				var resp rpc.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, rpc.CodeInternal, resp.Error.Code)
				assert.Contains(t, resp.Error.Message, "model")
			},
		},

		"A coach call should return the agent response.": {
			replies:   []string{proposal},
			calls:     []call{{method: http.MethodPost, path: "/v1/coach", body: `{"message":"plan week 2"}`}},
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{
					"message": "Shall I add these to week 2?",
					"operations": [],
					"weeklyPlan": {"week": 2, "tasks": ["Build an MCP server (2 hrs)"], "estimatedMinutes": 120},
					"kind": "proposal",
					"source": "none"
				}`, string(body))
			},
		},

		"A confirmed proposal should return add task operations.": {
			replies: []string{proposal, "Added."},
			calls: []call{
				{method: http.MethodPost, path: "/v1/coach", body: `{"message":"plan week 2"}`},
				{method: http.MethodPost, path: "/v1/coach", body: `{"message":"yes"}`},
			},
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{
					"message": "Added.",
					"operations": [{"type": "add_task", "week": 2, "task": {"text": "Build an MCP server", "estimatedMinutes": 120}}],
					"kind": "confirmed",
					"source": "previous_plan"
				}`, string(body))
			},
		},

		"The conversation should be returned with the pending confirmation state.": {
			replies: []string{proposal},
			calls: []call{
				{method: http.MethodPost, path: "/v1/coach", body: `{"message":"plan week 2"}`, user: "u1"},
				{method: http.MethodGet, path: "/v1/conversation", user: "u1"},
			},
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body []byte) {
				var resp rpc.ConversationResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, resp.AwaitingConfirmation)
				require.Len(t, resp.Messages, 2)
				assert.Equal(t, "plan week 2", resp.Messages[0].Content)
				assert.Equal(t, model.TurnKindProposal, resp.Messages[1].Kind)
			},
		},

		"Conversations should be isolated per user.": {
			replies: []string{"hello"},
			calls: []call{
				{method: http.MethodPost, path: "/v1/coach", body: `{"message":"hi"}`, user: "u1"},
				{method: http.MethodGet, path: "/v1/conversation", user: "u2"},
			},
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"messages":[],"awaitingConfirmation":false}`, string(body))
			},
		},

		"Clearing the conversation should delete it.": {
			replies: []string{"hello"},
			calls: []call{
				{method: http.MethodPost, path: "/v1/coach", body: `{"message":"hi"}`},
				{method: http.MethodDelete, path: "/v1/conversation"},
				{method: http.MethodGet, path: "/v1/conversation"},
			},
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"messages":[],"awaitingConfirmation":false}`, string(body))
			},
		},

		"Applying operations should report the applied and skipped ones.": {
			calls: []call{{method: http.MethodPost, path: "/v1/operations/apply", body: `{"operations":[
				{"type":"update_status","taskId":"w1t1","status":"done"},
				{"operation":"delete_task","taskId":"missing"}
			]}`}},
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{
					"applied": [{"type":"update_status","taskId":"w1t1","status":"done"}],
					"skipped": [{"operation":{"type":"delete_task","taskId":"missing"},"description":"Remove task: missing","reason":"task_not_found"}]
				}`, string(body))
			},
		},

		"Applying without operations should be an invalid argument.": {
			calls:     []call{{method: http.MethodPost, path: "/v1/operations/apply", body: `{"operations":[]}`}},
			expStatus: http.StatusBadRequest,
		},

		"The snapshot should reflect applied progress.": {
			calls: []call{
				{method: http.MethodPost, path: "/v1/operations/apply", body: `{"operations":[{"type":"update_status","taskId":"w1t1","status":"done"}]}`},
				{method: http.MethodGet, path: "/v1/snapshot"},
			},
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"currentWeek":2,"totalWeeks":2,"completedTasks":1,"totalTasks":1}`, string(body))
			},
		},

		"Unknown routes should not be found.": {
			calls:     []call{{method: http.MethodGet, path: "/v1/missing"}},
			expStatus: http.StatusNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHandler(t, fake.NewClient(test.replies...))

			var w *httptest.ResponseRecorder
			for _, c := range test.calls {
				w = do(t, h, c)
			}

			assert.Equal(t, test.expStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(rpc.RequestIDHeader))
			if test.expBody != nil {
				test.expBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestHandlerKeepsRequestID(t *testing.T) {
	h := newHandler(t, fake.NewClient())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(rpc.RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(rpc.RequestIDHeader))
}

func TestNewHandlerInvalid(t *testing.T) {
	_, err := rpc.NewHandler(rpc.HandlerConfig{})
	assert.Error(t, err)
}

func TestServerRun(t *testing.T) {
	srv, err := rpc.NewServer(rpc.ServerConfig{
		ListenAddr: "127.0.0.1:0",
		Handler:    http.NotFoundHandler(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()
	cancel()

	err = <-errCh
	assert.False(t, errors.Is(err, http.ErrServerClosed))
	assert.NoError(t, err)
}

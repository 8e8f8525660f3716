package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/slok/plancoach/internal/app/applyops"
	"github.com/slok/plancoach/internal/app/coach"
	"github.com/slok/plancoach/internal/app/conversationclear"
	"github.com/slok/plancoach/internal/app/history"
	"github.com/slok/plancoach/internal/app/snapshot"
	"github.com/slok/plancoach/internal/apply"
	"github.com/slok/plancoach/internal/log"
	"github.com/slok/plancoach/internal/model"
)

const (
	// UserIDHeader carries the caller identity.
	UserIDHeader = "X-User-ID"
	// RequestIDHeader carries the request id, generated when missing.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 1 << 20
)

// Error codes.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInternal        = "INTERNAL"
)

// CoachService answers a coach turn.
type CoachService interface {
	Run(ctx context.Context, req coach.Request) (*coach.Response, error)
}

// HistoryService returns a conversation.
type HistoryService interface {
	Run(ctx context.Context, req history.Request) (*history.History, error)
}

// ClearService deletes a conversation.
type ClearService interface {
	Run(ctx context.Context, req conversationclear.Request) error
}

// ApplyService applies operations.
type ApplyService interface {
	Run(ctx context.Context, req applyops.Request) (*apply.Result, error)
}

// SnapshotService returns a progress snapshot.
type SnapshotService interface {
	Run(ctx context.Context, req snapshot.Request) (*snapshot.Snapshot, error)
}

// HandlerConfig is the configuration of the HTTP handler.
type HandlerConfig struct {
	Coach    CoachService
	History  HistoryService
	Clear    ClearService
	Apply    ApplyService
	Snapshot SnapshotService
	Logger   log.Logger
}

func (c *HandlerConfig) defaults() error {
	if c.Coach == nil {
		return fmt.Errorf("coach service is required")
	}
	if c.History == nil {
		return fmt.Errorf("history service is required")
	}
	if c.Clear == nil {
		return fmt.Errorf("clear service is required")
	}
	if c.Apply == nil {
		return fmt.Errorf("apply service is required")
	}
	if c.Snapshot == nil {
		return fmt.Errorf("snapshot service is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "rpc.Handler"})

	return nil
}

type handler struct {
	coach    CoachService
	history  HistoryService
	clear    ClearService
	apply    ApplyService
	snapshot SnapshotService
	validate *validator.Validate
	logger   log.Logger
}

// NewHandler returns the HTTP JSON API handler:
//
//   - POST /v1/coach
//   - GET /v1/conversation
//   - DELETE /v1/conversation
//   - POST /v1/operations/apply
//   - GET /v1/snapshot
//   - GET /healthz
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	h := handler{
		coach:    cfg.Coach,
		history:  cfg.History,
		clear:    cfg.Clear,
		apply:    cfg.Apply,
		snapshot: cfg.Snapshot,
		validate: validator.New(),
		logger:   cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/coach", h.handleCoach)
	mux.HandleFunc("GET /v1/conversation", h.handleGetConversation)
	mux.HandleFunc("DELETE /v1/conversation", h.handleClearConversation)
	mux.HandleFunc("POST /v1/operations/apply", h.handleApply)
	mux.HandleFunc("GET /v1/snapshot", h.handleSnapshot)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	return h.requestMiddleware(mux), nil
}

// requestMiddleware sets the request id and the caller on the context logger.
func (h handler) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := h.logger.SetValuesOnCtx(r.Context(), log.Kv{
			"request-id": id,
			"user":       userID(r),
		})
		h.logger.WithCtxValues(ctx).Debugf("%s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h handler) handleCoach(w http.ResponseWriter, r *http.Request) {
	var req CoachRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.coach.Run(r.Context(), coach.Request{UserID: userID(r), Message: req.Message})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, mapCoachResponse(*resp))
}

func (h handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	hist, err := h.history.Run(r.Context(), history.Request{UserID: userID(r)})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, mapHistory(*hist))
}

func (h handler) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.clear.Run(r.Context(), conversationclear.Request{UserID: userID(r)}); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h handler) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.apply.Run(r.Context(), applyops.Request{UserID: userID(r), Operations: req.Operations})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, mapApplyResult(*res))
}

func (h handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot.Run(r.Context(), snapshot.Request{UserID: userID(r)})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, mapSnapshot(*snap))
}

// decode reads and validates a JSON body, on failure the error is written and
// false returned.
func (h handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, fmt.Errorf("invalid JSON body: %s: %w", err, model.ErrNotValid))
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		h.writeError(w, r, fmt.Errorf("%s: %w", validationMessage(err), model.ErrNotValid))
		return false
	}

	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("field %q failed rule %q", e.Field(), e.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func (h handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	if errors.Is(err, model.ErrNotValid) {
		status, code = http.StatusBadRequest, CodeInvalidArgument
	}

	logger := h.logger.WithCtxValues(r.Context())
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %s", err)
	} else {
		logger.Debugf("invalid request: %s", err)
	}

	h.writeJSON(w, r, status, ErrorResponse{Error: ErrorJSON{Code: code, Message: err.Error()}})
}

func (h handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithCtxValues(r.Context()).Warningf("could not write response: %s", err)
	}
}

func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return id
	}
	return model.DefaultUserID
}

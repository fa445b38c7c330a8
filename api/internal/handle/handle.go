package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"ai-grader/api/internal/evaluation"
)

const Version = "1.0.0"

// Service is the grading core the HTTP layer drives.
type Service interface {
	EvaluateSingle(ctx context.Context, answerKey, student evaluation.Upload, studentName, assignmentID string) (evaluation.Record, error)
	EvaluateBatch(ctx context.Context, answerKey evaluation.Upload, students []evaluation.Upload, assignmentID string) (evaluation.BatchResult, error)
	Get(ctx context.Context, id string) (evaluation.Record, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]evaluation.Record, error)
	Statistics(ctx context.Context, assignmentID string) (evaluation.Summary, int, error)
	GetBatch(ctx context.Context, id string) (evaluation.Batch, error)
}

type Options struct {
	// RequestTimeout bounds evaluation requests that carry no
	// X-Request-Timeout header; zero leaves them unbounded.
	RequestTimeout time.Duration
	MaxUploadBytes int64
	// Ping checks the database for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

type Handle struct {
	svc  Service
	opts Options
	log  *zerolog.Logger
	now  func() time.Time
}

func New(svc Service, opts Options, log *zerolog.Logger) *Handle {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Handle{svc: svc, opts: opts, log: log, now: time.Now}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the grading error kinds onto HTTP statuses.
func (h *Handle) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		inErr   *evaluation.InvalidInputError
		noneErr *evaluation.NoValidEvaluationsError
		orErr   *evaluation.OracleError
		dbErr   *evaluation.PersistenceError
		tooBig  *http.MaxBytesError
	)
	code, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.As(err, &inErr):
		code, msg = http.StatusBadRequest, "invalid input"
	case errors.As(err, &tooBig):
		code, msg = http.StatusRequestEntityTooLarge, "upload too large"
	case errors.Is(err, evaluation.ErrNotFound):
		code, msg = http.StatusNotFound, "not found"
	case errors.As(err, &noneErr):
		code, msg = http.StatusUnprocessableEntity, "no valid evaluations could be completed"
	case errors.Is(err, evaluation.ErrOracleTimeout):
		code, msg = http.StatusGatewayTimeout, "evaluation timed out"
	case errors.As(err, &orErr):
		code, msg = http.StatusBadGateway, "evaluation failed"
	case errors.As(err, &dbErr):
		code, msg = http.StatusInternalServerError, "failed to store evaluation"
	}

	ev := h.log.Warn()
	if code >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", code).Msg("request failed")

	resp := errorResponse{Success: false, Message: msg}
	// upstream and driver errors stay in the log
	if code < http.StatusInternalServerError {
		resp.Error = err.Error()
	}
	writeJSON(w, code, resp)
}

// requestContext applies the caller's X-Request-Timeout header or timeoutSec
// query (seconds), falling back to the configured default.
func (h *Handle) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := h.opts.RequestTimeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	if deadline <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), deadline)
}

func (h *Handle) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}

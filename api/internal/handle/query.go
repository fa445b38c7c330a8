package handle

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ai-grader/api/internal/evaluation"
)

type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type statisticsResponse struct {
	Success              bool               `json:"success"`
	Message              string             `json:"message"`
	AssignmentID         string             `json:"assignment_id"`
	EvaluatedSubmissions int                `json:"evaluated_submissions"`
	Summary              evaluation.Summary `json:"summary"`
}

// ByAssignment handles GET /evaluations/assignment/{assignmentId}.
func (h *Handle) ByAssignment(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListByAssignment(r.Context(), chi.URLParam(r, "assignmentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Message: "Evaluations retrieved", Data: recs})
}

// ByID handles GET /evaluations/{evaluationId}.
func (h *Handle) ByID(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "evaluationId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Message: "Evaluation retrieved", Data: rec})
}

func (h *Handle) Statistics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assignmentId")
	sum, n, err := h.svc.Statistics(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statisticsResponse{
		Success:              true,
		Message:              "Statistics computed",
		AssignmentID:         id,
		EvaluatedSubmissions: n,
		Summary:              sum,
	})
}

func (h *Handle) Batch(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBatch(r.Context(), chi.URLParam(r, "batchId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Message: "Batch retrieved", Data: b})
}

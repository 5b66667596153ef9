package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

func (rt *Router) sectionQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}
	sectionID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "section id is required")
		return
	}

	questions, err := rt.questionnaire.SectionQuestions(r.Context(), userID, sectionID)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"section_id": sectionID,
		"questions":  questions,
	})
}

func (rt *Router) submitResponses(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}
	sectionID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "section id is required")
		return
	}

	var req struct {
		Answers []domain.Answer `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := rt.intake.SubmitResponses(r.Context(), userID, sectionID, req.Answers); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeData(w, http.StatusAccepted, map[string]any{
		"staged": len(req.Answers),
	})
}

func (rt *Router) commitSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}
	sectionID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "section id is required")
		return
	}

	if err := rt.intake.CommitSection(r.Context(), userID, sectionID); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (rt *Router) totalCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	report, err := rt.completion.TotalCompletion(r.Context(), userID)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeData(w, http.StatusOK, report)
}

package httpadapter

import (
	"encoding/json"
	"net/http"
)

func (rt *Router) rebuildOptions(w http.ResponseWriter, r *http.Request) {
	if err := rt.maintenance.RebuildOptions(r.Context()); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (rt *Router) rebuildVectors(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Schemes []string `json:"schemes"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	if err := rt.maintenance.RebuildVectors(r.Context(), req.Schemes); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeData(w, http.StatusAccepted, map[string]any{
		"queued": len(req.Schemes),
	})
}

func (rt *Router) embeddingReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="embedding-report.xlsx"`)

	if err := rt.report.Write(r.Context(), w); err != nil {
		// Headers are already out; the truncated stream is the signal.
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
	}
}

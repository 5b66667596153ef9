package httpadapter

import (
	"net/http"
	"strconv"

	"github.com/finvetra/fund-recommender/internal/core/domain"
)

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	query := r.URL.Query()
	filter := domain.RecommendFilter{
		AssetType:   query.Get("asset_type"),
		SubCategory: query.Get("sub_category"),
		RiskColour:  query.Get("risk_colour"),
	}
	if raw := query.Get("sip"); raw != "" {
		sip, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "sip must be a boolean")
			return
		}
		filter.SIPEnabled = &sip
	}

	page := queryInt(query.Get("page"), 1)
	pageSize := queryInt(query.Get("page_size"), 10)
	sortBy := domain.SortBy(query.Get("sort_by"))

	ranked, err := rt.recommender.Recommend(r.Context(), userID, filter, sortBy, page, pageSize)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if rt.metrics != nil {
		rt.metrics.ObserveRecommendation(rt.cfg.Service, string(ranked.Status), ranked.TotalMatched)
	}
	writeData(w, http.StatusOK, ranked)
}

func (rt *Router) filterOptions(w http.ResponseWriter, r *http.Request) {
	options, err := rt.filters.Get(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeData(w, http.StatusOK, options)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

package domain

type SortBy string

const (
	SortNone     SortBy = ""
	SortReturn1Y SortBy = "return_1y"
	SortReturn3Y SortBy = "return_3y"
)

func (s SortBy) Valid() bool {
	switch s {
	case SortNone, SortReturn1Y, SortReturn3Y:
		return true
	}
	return false
}

// RecommendFilter is a conjunction of categorical predicates; zero values
// mean "no constraint".
type RecommendFilter struct {
	AssetType   string `json:"asset_type,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
	RiskColour  string `json:"risk_colour,omitempty"`
	SIPEnabled  *bool  `json:"sip_enabled,omitempty"`
}

type RecommendationStatus string

const (
	RecommendationOK        RecommendationStatus = "ok"
	RecommendationColdStart RecommendationStatus = "cold_start"
	RecommendationTimeout   RecommendationStatus = "timeout"
)

type RankedScheme struct {
	Scheme
	Distance float64 `json:"distance"`
}

type RankedList struct {
	Status       RecommendationStatus `json:"status"`
	Items        []RankedScheme       `json:"items"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	TotalMatched int                  `json:"total_matched"`
	TotalPages   int                  `json:"total_pages"`
}

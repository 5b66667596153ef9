package domain

import "time"

type SchemeStatus string

const (
	SchemeActive   SchemeStatus = "Active"
	SchemeInactive SchemeStatus = "Inactive"
)

// Scheme is the read model of a mutual-fund scheme used by filtering and
// ranking. Raw attribute tables feeding the markers stay behind the
// Reference Registry bindings.
type Scheme struct {
	Code        string       `json:"scheme_code"`
	Name        string       `json:"name"`
	AssetType   string       `json:"asset_type"`
	SubCategory string       `json:"sub_category"`
	RiskColour  string       `json:"risk_colour"`
	SIPEnabled  bool         `json:"sip_enabled"`
	Return1Y    float64      `json:"return_1y"`
	Return3Y    float64      `json:"return_3y"`
	LaunchDate  time.Time    `json:"launch_date"`
	Status      SchemeStatus `json:"status"`
	Deleted     bool         `json:"-"`
}

func (s Scheme) Active() bool {
	return s.Status == SchemeActive && !s.Deleted
}

// FilterOptions are the distinct categorical values available for
// recommendation filters.
type FilterOptions struct {
	AssetTypes    []string `json:"asset_types"`
	SubCategories []string `json:"sub_categories"`
	RiskColours   []string `json:"risk_colours"`
}

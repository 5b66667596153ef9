package domain

import "time"

type ValueKind string

const (
	KindNumeric  ValueKind = "numeric"
	KindTemporal ValueKind = "temporal"
	KindText     ValueKind = "text"
)

// Marker is a single fund-side feature; the fund analogue of a Question.
// SourceTable/SourceColumn bind it to the raw attribute it reads.
type Marker struct {
	ID            int64     `json:"id"`
	SectionID     int64     `json:"section_id"`
	Name          string    `json:"name"`
	SourceTable   string    `json:"source_table"`
	SourceColumn  string    `json:"source_column"`
	Kind          ValueKind `json:"kind"`
	InitialWeight float64   `json:"initial_weight"`
	Deleted       bool      `json:"-"`
}

// Bound reports whether the marker has a usable source binding.
func (m Marker) Bound() bool {
	return m.SourceTable != "" && m.SourceColumn != ""
}

// MarkerOption is one discretization token of a marker: either a numeric
// interval [Lo,Hi] or a categorical literal in Label. Positions are dense
// 1..N within the marker; interval options are ordered by lower bound,
// literal options lexicographically.
type MarkerOption struct {
	ID        int64   `json:"id"`
	MarkerID  int64   `json:"marker_id"`
	SectionID int64   `json:"section_id"`
	Position  int     `json:"position"`
	Label     string  `json:"label,omitempty"`
	Lo        float64 `json:"lo,omitempty"`
	Hi        float64 `json:"hi,omitempty"`
	Weight    float64 `json:"weight"`
}

// Covers reports whether a numeric value falls inside the interval.
// Bounds are inclusive on both ends; callers probing options in ascending
// position order resolve shared edges to the lower bin.
func (o MarkerOption) Covers(v float64) bool {
	return o.Lo <= v && v <= o.Hi
}

// SchemeResponse records which option of a marker applies to a scheme.
// At most one row exists per (scheme, marker).
type SchemeResponse struct {
	SchemeCode string `json:"scheme_code"`
	MarkerID   int64  `json:"marker_id"`
	OptionID   int64  `json:"option_id"`
	SectionID  int64  `json:"section_id"`
}

// MarkerWeight is the scored contribution of one marker for one scheme:
// option position times option weight times the marker's initial weight.
type MarkerWeight struct {
	SchemeCode string  `json:"scheme_code"`
	MarkerID   int64   `json:"marker_id"`
	SectionID  int64   `json:"section_id"`
	Weight     float64 `json:"weight"`
}

// RawValue is a marker's raw attribute value for one scheme. Valid is
// false when the source column is NULL.
type RawValue struct {
	Kind   ValueKind
	Number float64
	Text   string
	Time   time.Time
	Valid  bool
}

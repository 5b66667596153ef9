package domain

// Section is one coordinate of the embedding space. The cardinality of
// non-deleted sections is the dimensionality of every SectionVector.
type Section struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"-"`
}

type Question struct {
	ID        int64  `json:"id"`
	SectionID int64  `json:"section_id"`
	Prompt    string `json:"prompt"`
	Visible   bool   `json:"-"`
	Deleted   bool   `json:"-"`
}

// AllowedResponse positions are dense 1..N within their question.
type AllowedResponse struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	Position   int    `json:"position"`
}

type RuleVerdict string

const (
	VerdictShow RuleVerdict = "show"
	VerdictHide RuleVerdict = "hide"
)

// ConditionalRule makes a dependent question visible or hidden when the
// user selected the base response on the base question. Multiple rules
// for the same dependent question are conjunctive; hide wins over show.
type ConditionalRule struct {
	DependentQuestionID int64       `json:"dependent_question_id"`
	BaseQuestionID      int64       `json:"base_question_id"`
	BaseResponseID      int64       `json:"base_response_id"`
	Verdict             RuleVerdict `json:"verdict"`
}

type UserResponse struct {
	UserID     int64 `json:"user_id"`
	QuestionID int64 `json:"question_id"`
	ResponseID int64 `json:"response_id"`
	SectionID  int64 `json:"section_id"`
}

// Answer is one submitted (question, response) pair.
type Answer struct {
	QuestionID int64 `json:"question_id"`
	ResponseID int64 `json:"response_id"`
}

// VisibleQuestion is a question emitted to the presentation layer with its
// position-ordered options.
type VisibleQuestion struct {
	Question
	Options []AllowedResponse `json:"options"`
}

type SectionCompletion struct {
	SectionID int64   `json:"section_id"`
	Name      string  `json:"name"`
	Visible   int     `json:"visible_questions"`
	Answered  int     `json:"answered_questions"`
	Rate      float64 `json:"completion_rate"`
}

type CompletionReport struct {
	Sections   []SectionCompletion `json:"sections"`
	TotalRate  float64             `json:"total_rate"`
	ShowBanner bool                `json:"show_banner"`
}

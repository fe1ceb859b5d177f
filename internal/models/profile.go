package models

// TaskKind selects the remote inference model's behavior. It is an input to
// the inference client, not a hardcoded endpoint choice.
type TaskKind string

const (
	TaskSkillExtraction    TaskKind = "skill_extraction"
	TaskRoleClassification TaskKind = "role_classification"
)

// RawDocument is the uploaded resume payload. It is request-scoped and
// discarded after text extraction.
type RawDocument struct {
	Data      []byte
	MediaType string
}

// InferencePrediction is one labeled prediction from the remote model.
// The label vocabulary is open; it originates from an external model.
type InferencePrediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// CandidateProfile is the structured signal derived from a resume.
// Immutable after construction. Skills is a sorted set; RoleKeywords is
// ordered by confidence (highest first).
type CandidateProfile struct {
	Skills       []string `json:"skills"`
	RoleKeywords []string `json:"role_keywords"`
	RawText      string   `json:"-"`
}

package models

// ProfileResponse is returned by the profile endpoint. The request id is
// generated per upload for log correlation; nothing is persisted.
type ProfileResponse struct {
	RequestID string           `json:"request_id"`
	Profile   CandidateProfile `json:"profile"`
}

type SuggestionsResponse struct {
	RequestID   string             `json:"request_id"`
	Suggestions []ScoredSuggestion `json:"suggestions"`
}

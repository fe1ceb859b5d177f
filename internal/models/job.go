package models

import "time"

// JobPosting is a single result from the job search service, kept verbatim.
// Source-assigned IDs may collide across sources, so identity is always
// Source + ID.
type JobPosting struct {
	Source      string     `json:"source"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
}

// SearchFilters narrows a job search query. Zero values mean "not set".
type SearchFilters struct {
	Location string `json:"location"`
	RadiusKM int    `json:"radius_km"`
	Category string `json:"category"`
}

// ScoredSuggestion pairs a posting with its computed relevance against a
// candidate profile. MatchedSkills is the exact intersection used in scoring
// so the caller can explain the match.
type ScoredSuggestion struct {
	Posting       JobPosting `json:"posting"`
	Score         float64    `json:"score"`
	MatchedSkills []string   `json:"matched_skills"`
}

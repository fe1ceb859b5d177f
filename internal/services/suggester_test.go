package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobscout/internal/models"
)

type stubPager struct {
	pages [][]models.JobPosting
	err   error
	i     int
}

func (p *stubPager) Next(context.Context) ([]models.JobPosting, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.i >= len(p.pages) {
		return nil, nil
	}
	page := p.pages[p.i]
	p.i++
	return page, nil
}

type stubSearch struct {
	mu sync.Mutex
	// keyed by the joined keyword string of each derived query
	pages   map[string][][]models.JobPosting
	errs    map[string]error
	queries []string
}

func (s *stubSearch) Search(keywords []string, _ models.SearchFilters) JobPager {
	key := strings.Join(keywords, " ")
	s.mu.Lock()
	s.queries = append(s.queries, key)
	s.mu.Unlock()

	if err, ok := s.errs[key]; ok {
		return &stubPager{err: err}
	}
	return &stubPager{pages: s.pages[key]}
}

func ts(day int) *time.Time {
	t := time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func posting(id, title, description string, postedAt *time.Time) models.JobPosting {
	return models.JobPosting{
		Source:      "adzuna",
		ID:          id,
		Title:       title,
		Company:     "Acme",
		Description: description,
		Location:    "London",
		URL:         "https://example.org/" + id,
		PostedAt:    postedAt,
	}
}

func analystProfile() *models.CandidateProfile {
	return &models.CandidateProfile{
		Skills:       []string{"python", "sql"},
		RoleKeywords: []string{"data analyst"},
	}
}

func newSuggester(search JobSearchService) SuggestionService {
	return NewSuggestionService(search, SuggestConfig{
		RoleQueryTerms:  3,
		SkillQueryTerms: 4,
		MaxPerQuery:     50,
	}, zap.NewNop())
}

func TestSuggestRanksTitleMatchFirstAndDropsZeroScores(t *testing.T) {
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {{
				posting("1", "Data Analyst", "reporting with sql dashboards", ts(10)),
				posting("2", "Warehouse Clerk", "forklift certification required", ts(12)),
			}},
			"python sql": {{}},
		},
	}

	suggestions, err := newSuggester(search).Suggest(context.Background(), analystProfile(), 5)

	require.NoError(t, err)
	require.Len(t, suggestions, 1, "postings with no overlap at all are excluded")
	top := suggestions[0]
	assert.Equal(t, "Data Analyst", top.Posting.Title)
	assert.Equal(t, []string{"sql"}, top.MatchedSkills)
	assert.InDelta(t, skillMatchWeight+phraseTitleBoost, top.Score, 1e-9,
		"one matched skill plus the whole-phrase title boost")
}

func TestSuggestMatchesThroughPunctuation(t *testing.T) {
	profile := &models.CandidateProfile{
		Skills:       []string{"machine learning", "sql"},
		RoleKeywords: []string{"data analyst"},
	}
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {{
				posting("1", "Senior Data Analyst, Acme Corp", "reporting with sql.", ts(10)),
				posting("2", "Research Scientist", "experience with machine learning, and statistics", ts(11)),
			}},
			"machine learning sql": {{}},
		},
	}

	suggestions, err := newSuggester(search).Suggest(context.Background(), profile, 5)

	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "1", suggestions[0].Posting.ID)
	assert.Equal(t, []string{"sql"}, suggestions[0].MatchedSkills)
	assert.InDelta(t, skillMatchWeight+phraseTitleBoost, suggestions[0].Score, 1e-9,
		"a comma after the role phrase does not demote the whole-phrase boost")
	assert.Equal(t, []string{"machine learning"}, suggestions[1].MatchedSkills,
		"punctuation inside the description does not break phrase skills")
}

func TestSuggestMatchesShortSkills(t *testing.T) {
	profile := &models.CandidateProfile{
		Skills:       []string{"go", "r"},
		RoleKeywords: []string{"backend developer"},
	}
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"backend developer": {{
				posting("1", "Backend Developer", "services written in Go, deployed on k8s", ts(10)),
				posting("2", "Quant Researcher", "statistical modelling in R", ts(11)),
				posting("3", "Gopher Fanclub Organizer", "regular meetups", ts(12)),
			}},
			"go r": {{}},
		},
	}

	suggestions, err := newSuggester(search).Suggest(context.Background(), profile, 5)

	require.NoError(t, err)
	require.Len(t, suggestions, 2, "short skills match whole words only, never substrings")
	assert.Equal(t, "1", suggestions[0].Posting.ID)
	assert.Equal(t, []string{"go"}, suggestions[0].MatchedSkills)
	assert.Equal(t, []string{"r"}, suggestions[1].MatchedSkills)
}

func TestSuggestDeduplicatesAcrossQueries(t *testing.T) {
	shared := posting("1", "Data Analyst", "sql reporting", ts(10))
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {{shared}},
			"python sql":   {{shared, posting("2", "Python Developer", "python services", ts(11))}},
		},
	}

	suggestions, err := newSuggester(search).Suggest(context.Background(), analystProfile(), 10)

	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	ids := []string{suggestions[0].Posting.ID, suggestions[1].Posting.ID}
	assert.ElementsMatch(t, []string{"1", "2"}, ids, "the shared posting appears exactly once")
}

func TestSuggestDeterministicOrderWithTieBreaks(t *testing.T) {
	// Same score for all three: one matched skill, no title boost. Recency
	// decides, then fetch order for the pair sharing a timestamp.
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {{
				posting("old", "Reporting Specialist", "sql reports", ts(1)),
				posting("tied-a", "Insights Associate", "sql insights", ts(20)),
				posting("tied-b", "Metrics Associate", "sql metrics", ts(20)),
				posting("undated", "Dashboard Builder", "sql dashboards", nil),
			}},
			"python sql": {{}},
		},
	}
	suggester := newSuggester(search)

	var previous []models.ScoredSuggestion
	for run := 0; run < 5; run++ {
		suggestions, err := suggester.Suggest(context.Background(), analystProfile(), 10)
		require.NoError(t, err)

		require.Len(t, suggestions, 4)
		assert.Equal(t, "tied-a", suggestions[0].Posting.ID)
		assert.Equal(t, "tied-b", suggestions[1].Posting.ID)
		assert.Equal(t, "old", suggestions[2].Posting.ID)
		assert.Equal(t, "undated", suggestions[3].Posting.ID, "missing dates sort last")

		if previous != nil {
			assert.Equal(t, previous, suggestions, "identical inputs rank identically")
		}
		previous = suggestions
	}
}

func TestSuggestCapsAtLimit(t *testing.T) {
	var page []models.JobPosting
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		page = append(page, posting(id, "Analyst "+id, "sql", ts(10)))
	}
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {page},
			"python sql":   {{}},
		},
	}
	suggester := newSuggester(search)

	for _, limit := range []int{0, 1, 3, 5, 100} {
		suggestions, err := suggester.Suggest(context.Background(), analystProfile(), limit)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(suggestions), limit)
	}

	suggestions, err := suggester.Suggest(context.Background(), analystProfile(), -1)
	require.NoError(t, err)
	assert.Empty(t, suggestions, "negative limits are clamped to zero")
}

func TestSuggestEmptyResultsAreValid(t *testing.T) {
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {},
			"python sql":   {},
		},
	}

	suggestions, err := newSuggester(search).Suggest(context.Background(), analystProfile(), 5)

	require.NoError(t, err, "no matches found is not an error")
	assert.Empty(t, suggestions)
}

func TestSuggestInsufficientProfile(t *testing.T) {
	search := &stubSearch{}

	_, err := newSuggester(search).Suggest(context.Background(), &models.CandidateProfile{}, 5)

	assert.ErrorIs(t, err, ErrInsufficientProfile)
	assert.Empty(t, search.queries, "no unconstrained search is issued")
}

func TestSuggestAbsorbsSingleQueryFailure(t *testing.T) {
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {{posting("1", "Data Analyst", "sql", ts(10))}},
		},
		errs: map[string]error{
			"python sql": ErrSearchUnavailable,
		},
	}

	suggestions, err := newSuggester(search).Suggest(context.Background(), analystProfile(), 5)

	require.NoError(t, err, "partial signal survives a failed derived query")
	require.Len(t, suggestions, 1)
	assert.Equal(t, "1", suggestions[0].Posting.ID)
}

func TestSuggestPropagatesWhenAllQueriesFail(t *testing.T) {
	search := &stubSearch{
		errs: map[string]error{
			"data analyst": ErrSearchUnavailable,
			"python sql":   ErrSearchRejected,
		},
	}

	_, err := newSuggester(search).Suggest(context.Background(), analystProfile(), 5)

	assert.Error(t, err)
}

func TestSuggestBoundsFetchPerQuery(t *testing.T) {
	// An endless pager; the engine must stop at MaxPerQuery.
	var page []models.JobPosting
	for _, id := range []string{"a", "b", "c", "d"} {
		page = append(page, posting(id, "Analyst", "sql", ts(10)))
	}
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"data analyst": {page, page, page, page, page},
			"python sql":   {},
		},
	}
	suggester := NewSuggestionService(search, SuggestConfig{
		RoleQueryTerms:  3,
		SkillQueryTerms: 4,
		MaxPerQuery:     6,
	}, zap.NewNop())

	suggestions, err := suggester.Suggest(context.Background(), analystProfile(), 100)

	require.NoError(t, err)
	// 8 postings pulled (two pages), capped to 6, all sharing the same ids
	// across pages so dedup collapses them to the four distinct postings.
	assert.LessOrEqual(t, len(suggestions), 6)
	assert.NotEmpty(t, suggestions)
}

func TestSuggestFromQuerySharesEngine(t *testing.T) {
	search := &stubSearch{
		pages: map[string][][]models.JobPosting{
			"backend developer in go": {{
				posting("1", "Backend Developer", "go services", ts(10)),
			}},
			"backend developer": {{}},
		},
	}

	suggestions, err := newSuggester(search).SuggestFromQuery(
		context.Background(), "Backend Developer in Go", models.SearchFilters{Location: "London"}, 5)

	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Backend Developer", suggestions[0].Posting.Title)
	assert.InDelta(t, 2*skillMatchWeight+partialTitleBoost, suggestions[0].Score, 1e-9,
		"query words match as skills, role phrase matches the title partially")
}

func TestSuggestFromQueryEmptyQuery(t *testing.T) {
	_, err := newSuggester(&stubSearch{}).SuggestFromQuery(
		context.Background(), "   ", models.SearchFilters{}, 5)

	assert.ErrorIs(t, err, ErrInsufficientProfile)
}

package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"jobscout/internal/models"
)

const (
	defaultRoleQueryTerms  = 3
	defaultSkillQueryTerms = 4
	defaultMaxPerQuery     = 50

	skillMatchWeight = 1.0
	// Title boosts for role keywords: a whole-phrase occurrence in the title
	// outweighs any skill overlap; a partial word match is worth one skill.
	phraseTitleBoost  = 2.5
	partialTitleBoost = 1.0
)

// SuggestConfig bounds the engine's fetch cost: external APIs are never
// paged exhaustively.
type SuggestConfig struct {
	RoleQueryTerms  int
	SkillQueryTerms int
	MaxPerQuery     int
}

type SuggestionService interface {
	// Suggest returns at most limit suggestions for the profile, scored and
	// sorted descending with deterministic tie-breaks.
	Suggest(ctx context.Context, profile *models.CandidateProfile, limit int) ([]models.ScoredSuggestion, error)

	// SuggestFromQuery is the ad-hoc free-text path. It builds a synthetic
	// profile from the query terms and reuses the same engine, so both paths
	// rank with identical weighting.
	SuggestFromQuery(ctx context.Context, query string, filters models.SearchFilters, limit int) ([]models.ScoredSuggestion, error)
}

type suggestionService struct {
	search JobSearchService
	cfg    SuggestConfig
	logger *zap.Logger
}

func NewSuggestionService(search JobSearchService, cfg SuggestConfig, logger *zap.Logger) SuggestionService {
	if cfg.RoleQueryTerms <= 0 {
		cfg.RoleQueryTerms = defaultRoleQueryTerms
	}
	if cfg.SkillQueryTerms <= 0 {
		cfg.SkillQueryTerms = defaultSkillQueryTerms
	}
	if cfg.MaxPerQuery <= 0 {
		cfg.MaxPerQuery = defaultMaxPerQuery
	}

	return &suggestionService{
		search: search,
		cfg:    cfg,
		logger: logger,
	}
}

// Suggest implements SuggestionService.
func (s *suggestionService) Suggest(ctx context.Context, profile *models.CandidateProfile, limit int) ([]models.ScoredSuggestion, error) {
	return s.suggest(ctx, profile, models.SearchFilters{}, limit)
}

// SuggestFromQuery implements SuggestionService.
func (s *suggestionService) SuggestFromQuery(ctx context.Context, query string, filters models.SearchFilters, limit int) ([]models.ScoredSuggestion, error) {
	normalized := normalizeKey(query)
	if normalized == "" {
		return nil, ErrInsufficientProfile
	}

	skills := significantWords(query)
	sort.Strings(skills)

	profile := &models.CandidateProfile{
		RoleKeywords: []string{normalized},
		Skills:       dedupeSorted(skills),
	}

	return s.suggest(ctx, profile, filters, limit)
}

func (s *suggestionService) suggest(ctx context.Context, profile *models.CandidateProfile, filters models.SearchFilters, limit int) ([]models.ScoredSuggestion, error) {
	queries := s.deriveQueries(profile)
	if len(queries) == 0 {
		return nil, ErrInsufficientProfile
	}

	postings, err := s.fetchAll(ctx, queries, filters)
	if err != nil {
		return nil, err
	}

	deduped := dedupePostings(postings)

	suggestions := make([]models.ScoredSuggestion, 0, len(deduped))
	for _, posting := range deduped {
		score, matched := scorePosting(posting, profile)
		if score <= 0 {
			continue
		}
		suggestions = append(suggestions, models.ScoredSuggestion{
			Posting:       posting,
			Score:         score,
			MatchedSkills: matched,
		})
	}

	// Total order: score desc, then recency desc (unknown dates last), then
	// fetch order. Identical inputs always rank identically.
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		ti, tj := suggestions[i].Posting.PostedAt, suggestions[j].Posting.PostedAt
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		return false
	})

	if limit < 0 {
		limit = 0
	}
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	s.logger.Info("suggestions ranked",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(deduped)),
		zap.Int("returned", len(suggestions)),
	)

	return suggestions, nil
}

// deriveQueries builds the primary query from the top role keywords and the
// secondary query from the top skills. Querying on both catches postings
// that match on title as well as those that match on body skills.
func (s *suggestionService) deriveQueries(profile *models.CandidateProfile) [][]string {
	var queries [][]string

	if len(profile.RoleKeywords) > 0 {
		n := s.cfg.RoleQueryTerms
		if n > len(profile.RoleKeywords) {
			n = len(profile.RoleKeywords)
		}
		queries = append(queries, profile.RoleKeywords[:n])
	}

	if len(profile.Skills) > 0 {
		m := s.cfg.SkillQueryTerms
		if m > len(profile.Skills) {
			m = len(profile.Skills)
		}
		queries = append(queries, profile.Skills[:m])
	}

	return queries
}

// fetchAll pulls candidate postings for every derived query concurrently,
// each bounded by MaxPerQuery. Results land in per-query slots and are
// merged in query order so goroutine scheduling never changes the output.
// A failed query is absorbed as long as another one succeeded; when every
// query fails the first error propagates.
func (s *suggestionService) fetchAll(ctx context.Context, queries [][]string, filters models.SearchFilters) ([]models.JobPosting, error) {
	results := make([][]models.JobPosting, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, keywords := range queries {
		wg.Add(1)
		go func(i int, keywords []string) {
			defer wg.Done()
			results[i], errs[i] = s.fetchQuery(ctx, keywords, filters)
		}(i, keywords)
	}
	wg.Wait()

	var merged []models.JobPosting
	succeeded := false
	for i := range queries {
		if errs[i] != nil {
			continue
		}
		succeeded = true
		merged = append(merged, results[i]...)
	}

	if !succeeded {
		return nil, errs[0]
	}

	for i, err := range errs {
		if err != nil {
			s.logger.Warn("derived query failed, continuing with remaining results",
				zap.Strings("keywords", queries[i]),
				zap.Error(err),
			)
		}
	}

	return merged, nil
}

func (s *suggestionService) fetchQuery(ctx context.Context, keywords []string, filters models.SearchFilters) ([]models.JobPosting, error) {
	pager := s.search.Search(keywords, filters)

	var postings []models.JobPosting
	for len(postings) < s.cfg.MaxPerQuery {
		page, err := pager.Next(ctx)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}
		postings = append(postings, page...)
	}

	if len(postings) > s.cfg.MaxPerQuery {
		postings = postings[:s.cfg.MaxPerQuery]
	}

	return postings, nil
}

// dedupePostings keeps the first occurrence of each posting across queries.
// Identity is the source-namespaced id, falling back to normalized
// title+company+location when the source assigned no id.
func dedupePostings(postings []models.JobPosting) []models.JobPosting {
	seen := make(map[string]bool, len(postings))
	deduped := make([]models.JobPosting, 0, len(postings))
	for _, p := range postings {
		key := p.Source + "/" + p.ID
		if p.ID == "" {
			key = normalizeKey(p.Title) + "|" + normalizeKey(p.Company) + "|" + normalizeKey(p.Location)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// scorePosting computes the weighted overlap between the profile's skills
// and the posting's text, plus a title boost for role keywords. The matched
// skill set is returned so the caller can explain the score.
func scorePosting(posting models.JobPosting, profile *models.CandidateProfile) (float64, []string) {
	text := posting.Title + " " + posting.Description
	tokens := tokenize(text)
	normText := normalizePhrase(text)

	var matched []string
	for _, skill := range profile.Skills {
		if matchesSkill(skill, tokens, normText) {
			matched = append(matched, skill)
		}
	}
	sort.Strings(matched)

	score := float64(len(matched)) * skillMatchWeight
	score += titleBoost(posting.Title, profile.RoleKeywords)

	return score, matched
}

func matchesSkill(skill string, tokens map[string]bool, normText string) bool {
	skill = normalizePhrase(skill)
	if skill == "" {
		return false
	}
	if !strings.Contains(skill, " ") {
		if tokens[skill] {
			return true
		}
		// Terms like "go" or "r" fall below the tokenizer's length cutoff;
		// match them as exact words in the normalized text instead.
		return len([]rune(skill)) < 3 && strings.Contains(" "+normText+" ", " "+skill+" ")
	}
	// Multi-word skills match as whole phrases in the normalized word stream.
	return strings.Contains(" "+normText+" ", " "+skill+" ")
}

// titleBoost returns the largest applicable boost: a role keyword occurring
// in the title as a whole phrase beats any partial word overlap.
func titleBoost(title string, roleKeywords []string) float64 {
	normTitle := normalizePhrase(title)
	if normTitle == "" {
		return 0
	}
	titleTokens := tokenize(title)

	best := 0.0
	for _, keyword := range roleKeywords {
		kw := normalizePhrase(keyword)
		if kw == "" {
			continue
		}
		if strings.Contains(" "+normTitle+" ", " "+kw+" ") {
			return phraseTitleBoost
		}
		if best < partialTitleBoost {
			for _, word := range significantWords(kw) {
				if titleTokens[word] {
					best = partialTitleBoost
					break
				}
			}
		}
	}
	return best
}

func dedupeSorted(sorted []string) []string {
	var out []string
	for i, s := range sorted {
		if i > 0 && sorted[i-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}

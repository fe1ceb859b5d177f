package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobscout/internal/models"
)

const (
	defaultSearchPageSize = 20
	defaultSearchCountry  = "gb"
	defaultSearchSource   = "adzuna"
)

// JobSearchConfig configures the Adzuna-style job search API. Credentials
// are an app-id/app-key pair sent as query parameters.
type JobSearchConfig struct {
	Endpoint string
	AppID    string
	AppKey   string
	Country  string
	PageSize int
	// Source namespaces posting IDs; IDs are only unique per source.
	Source string
}

type JobSearchService interface {
	// Search prepares a lazily-paginated query. No request is issued until
	// the caller pulls the first page.
	Search(keywords []string, filters models.SearchFilters) JobPager
}

// JobPager yields one page of postings per call. It returns a nil slice with
// a nil error when the source is exhausted; callers stop pulling once they
// have enough results.
type JobPager interface {
	Next(ctx context.Context) ([]models.JobPosting, error)
}

type jobSearchService struct {
	cfg        JobSearchConfig
	retry      RetryPolicy
	httpClient *http.Client
	logger     *zap.Logger
}

func NewJobSearchService(cfg JobSearchConfig, retry RetryPolicy, logger *zap.Logger) JobSearchService {
	if cfg.Country == "" {
		cfg.Country = defaultSearchCountry
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultSearchPageSize
	}
	if cfg.Source == "" {
		cfg.Source = defaultSearchSource
	}

	return &jobSearchService{
		cfg:        cfg,
		retry:      retry,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Search implements JobSearchService. Keywords are ordered most-relevant
// first; the API weights earlier terms, so order is preserved in the query.
func (s *jobSearchService) Search(keywords []string, filters models.SearchFilters) JobPager {
	return &jobPager{
		svc:      s,
		what:     strings.Join(keywords, " "),
		filters:  filters,
		nextPage: 1,
	}
}

type jobPager struct {
	svc      *jobSearchService
	what     string
	filters  models.SearchFilters
	nextPage int
	fetched  int
	total    int
	done     bool
}

func (p *jobPager) Next(ctx context.Context) ([]models.JobPosting, error) {
	if p.done {
		return nil, nil
	}

	var page []models.JobPosting
	err := p.svc.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		page, callErr = p.svc.fetchPage(ctx, p)
		return callErr
	}, func(err error) bool {
		return errors.Is(err, ErrSearchUnavailable)
	})
	if err != nil {
		return nil, err
	}

	p.nextPage++
	p.fetched += len(page)
	if len(page) == 0 || (p.total > 0 && p.fetched >= p.total) {
		p.done = true
	}

	if len(page) == 0 {
		return nil, nil
	}

	return page, nil
}

type adzunaResponse struct {
	Count   int            `json:"count"`
	Results []adzunaResult `json:"results"`
}

type adzunaResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	Created     string `json:"created"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

func (s *jobSearchService) fetchPage(ctx context.Context, p *jobPager) ([]models.JobPosting, error) {
	q := url.Values{}
	q.Set("app_id", s.cfg.AppID)
	q.Set("app_key", s.cfg.AppKey)
	q.Set("results_per_page", strconv.Itoa(s.cfg.PageSize))
	q.Set("content-type", "application/json")
	q.Set("what", p.what)
	if p.filters.Location != "" {
		q.Set("where", p.filters.Location)
	}
	if p.filters.RadiusKM > 0 {
		q.Set("distance", strconv.Itoa(p.filters.RadiusKM))
	}
	if p.filters.Category != "" {
		q.Set("category", p.filters.Category)
	}

	pageURL := fmt.Sprintf("%s/jobs/%s/search/%d", s.cfg.Endpoint, s.cfg.Country, p.nextPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.URL.RawQuery = q.Encode()

	s.logger.Debug("job search request",
		zap.String("what", p.what),
		zap.Int("page", p.nextPage),
	)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %s", ErrSearchUnavailable, resp.Status)
	default:
		// 4xx means the query itself was rejected; retrying cannot help.
		return nil, fmt.Errorf("%w: status %s", ErrSearchRejected, resp.Status)
	}

	var decoded adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchUnavailable, err)
	}

	p.total = decoded.Count

	postings := make([]models.JobPosting, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		postings = append(postings, models.JobPosting{
			Source:      s.cfg.Source,
			ID:          r.ID,
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Description: r.Description,
			Location:    r.Location.DisplayName,
			URL:         r.RedirectURL,
			PostedAt:    parsePostedAt(r.Created),
		})
	}

	return postings, nil
}

func parsePostedAt(created string) *time.Time {
	if created == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil
	}
	return &t
}

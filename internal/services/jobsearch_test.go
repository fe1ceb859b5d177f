package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobscout/internal/models"
)

func newTestSearch(serverURL string, pageSize int) JobSearchService {
	return NewJobSearchService(JobSearchConfig{
		Endpoint: serverURL,
		AppID:    "app-id",
		AppKey:   "app-key",
		Country:  "gb",
		PageSize: pageSize,
	}, RetryPolicy{MaxAttempts: 3}, zap.NewNop())
}

func searchPage(count int, ids ...string) string {
	results := make([]string, 0, len(ids))
	for _, id := range ids {
		results = append(results, fmt.Sprintf(`{
			"id": %q,
			"title": "Data Analyst",
			"description": "sql and dashboards",
			"redirect_url": "https://example.org/%s",
			"created": "2026-08-01T09:00:00Z",
			"company": {"display_name": "Acme"},
			"location": {"display_name": "London"}
		}`, id, id))
	}
	return fmt.Sprintf(`{"count": %d, "results": [%s]}`, count, strings.Join(results, ","))
}

func TestSearchParsesPostings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/gb/search/1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "app-id", q.Get("app_id"))
		assert.Equal(t, "app-key", q.Get("app_key"))
		assert.Equal(t, "data analyst sql", q.Get("what"))
		assert.Equal(t, "London", q.Get("where"))
		assert.Equal(t, "25", q.Get("distance"))
		w.Write([]byte(searchPage(1, "123")))
	}))
	defer server.Close()

	svc := newTestSearch(server.URL, 20)
	pager := svc.Search([]string{"data analyst", "sql"}, models.SearchFilters{Location: "London", RadiusKM: 25})

	page, err := pager.Next(context.Background())

	require.NoError(t, err)
	require.Len(t, page, 1)
	posting := page[0]
	assert.Equal(t, "adzuna", posting.Source)
	assert.Equal(t, "123", posting.ID)
	assert.Equal(t, "Data Analyst", posting.Title)
	assert.Equal(t, "Acme", posting.Company)
	assert.Equal(t, "London", posting.Location)
	assert.Equal(t, "https://example.org/123", posting.URL)
	require.NotNil(t, posting.PostedAt)
	assert.Equal(t, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), posting.PostedAt.UTC())
}

func TestSearchPaginatesLazily(t *testing.T) {
	var pagesServed int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pagesServed, 1)
		switch r.URL.Path {
		case "/jobs/gb/search/1":
			w.Write([]byte(searchPage(3, "a", "b")))
		case "/jobs/gb/search/2":
			w.Write([]byte(searchPage(3, "c")))
		default:
			t.Errorf("unexpected page request: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	svc := newTestSearch(server.URL, 2)
	pager := svc.Search([]string{"sql"}, models.SearchFilters{})

	assert.Equal(t, int32(0), atomic.LoadInt32(&pagesServed), "no request before the first pull")

	page1, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	// All results delivered; the pager reports exhaustion without another call.
	page3, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, page3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&pagesServed))
}

func TestSearchRejectedNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	svc := newTestSearch(server.URL, 20)
	pager := svc.Search([]string{"%%%"}, models.SearchFilters{})

	_, err := pager.Next(context.Background())

	assert.ErrorIs(t, err, ErrSearchRejected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx is surfaced immediately")
}

func TestSearchUnavailableRetriedWithBound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := newTestSearch(server.URL, 20)
	pager := svc.Search([]string{"sql"}, models.SearchFilters{})

	_, err := pager.Next(context.Background())

	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchEmptyFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 0, "results": []}`))
	}))
	defer server.Close()

	svc := newTestSearch(server.URL, 20)
	pager := svc.Search([]string{"underwater basket weaving"}, models.SearchFilters{})

	page, err := pager.Next(context.Background())

	require.NoError(t, err)
	assert.Empty(t, page, "no matches is a valid, non-exceptional result")
}

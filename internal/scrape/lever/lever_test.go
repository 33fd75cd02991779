package lever

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-ingest/internal/registry"
	"jobhunt-ingest/internal/scrape/types"
)

func TestEndpoint(t *testing.T) {
	t.Parallel()

	s := New(Config{}, nil)
	assert.Equal(t, "https://api.lever.co/v0/postings/netflix?mode=json", s.Endpoint(registry.NewEntry("netflix", "")))
	assert.Equal(t, "https://x.example/p", s.Endpoint(registry.NewEntry("netflix", "https://x.example/p")))
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/postings/netflix", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("mode"))
		assert.Equal(t, "JobHunt/1.0 (+local)", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[
  {"id": "a1", "text": "Platform Engineer", "hostedUrl": "https://jobs.lever.co/netflix/a1",
   "createdAt": 1735689600000, "categories": {"location": "Los Gatos - California"}},
  {"id": "a2", "text": "Security Engineer", "hostedUrl": "https://jobs.lever.co/netflix/a2",
   "categories": {"allLocations": ["Berlin", "Amsterdam"]}},
  {"id": "a3", "text": "SRE", "hostedUrl": "https://jobs.lever.co/netflix/a3", "workplaceType": "remote"},
  ["not", "an", "object"]
]`))
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL}, nil)
	res, err := s.Fetch(context.Background(), registry.NewEntry("netflix", ""))
	require.NoError(t, err)

	require.Len(t, res.Postings, 3)
	require.Len(t, res.Skipped, 1)

	p := res.Postings[0]
	assert.Equal(t, "a1", p.ExternalID)
	assert.Equal(t, "Platform Engineer", p.Title)
	assert.Equal(t, "netflix", p.Company)
	assert.Equal(t, "Los Gatos, California", p.Location)
	assert.Equal(t, "2025-01-01T00:00:00Z", p.DatePosted)
	assert.Equal(t, "lever", p.Source)

	assert.Equal(t, "Berlin, Amsterdam", res.Postings[1].Location)
	assert.Equal(t, "Remote", res.Postings[2].Location)
}

func TestFetchNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL}, nil)
	_, err := s.Fetch(context.Background(), registry.NewEntry("gone", ""))
	require.Error(t, err)
	assert.True(t, types.IsPermanent(err))
}

func TestMapRawSnapshot(t *testing.T) {
	t.Parallel()

	s := New(Config{}, nil)
	p, err := s.MapRaw(json.RawMessage(`{"title": "Designer", "url": "https://jobs.lever.co/acme/x", "date_posted": "2025-03-04"}`), "acme-export")
	require.NoError(t, err)
	assert.Equal(t, "Designer", p.Title)
	assert.Equal(t, "acme-export", p.Company)
	assert.Equal(t, "Unknown", p.Location)
	assert.Equal(t, "2025-03-04", p.DatePosted)

	_, err = s.MapRaw(json.RawMessage(`{"categories": {"location": "Paris"}}`), "x")
	assert.ErrorIs(t, err, types.ErrEmptyPosting)
}

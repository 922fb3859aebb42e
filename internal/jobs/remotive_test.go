package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobscout/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemotiveSourceQuery(t *testing.T) {
	var searches []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searches = append(searches, r.URL.Query().Get("search"))
		assert.Equal(t, "software-dev", r.URL.Query().Get("category"))

		jobs := []remotiveJob{
			{ID: 1, Title: "Go Engineer", CompanyName: "Acme", Location: "Worldwide", URL: "https://r/1", Description: "golang aws"},
			{ID: 2, Title: "Frontend Engineer", CompanyName: "Initech", Location: "EU", URL: "https://r/2", Description: "react"},
		}
		if r.URL.Query().Get("search") == "aws" {
			jobs = []remotiveJob{
				{ID: 1, Title: "Go Engineer", CompanyName: "Acme", Location: "Worldwide", URL: "https://r/1", Description: "golang aws"},
				{ID: 3, Title: "Cloud Engineer", CompanyName: "Globex", URL: "https://r/3", Description: "AWS and Terraform"},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"job-count": len(jobs), "jobs": jobs})
	}))
	defer srv.Close()

	src := NewRemotiveSource("Remotive API", RemotiveOptions{BaseURL: srv.URL, Category: "software-dev"}, testClient())
	recs, err := src.Query(context.Background(), []string{"golang", "aws"}, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"golang", "aws"}, searches)
	require.Len(t, recs, 2)
	assert.Equal(t, Record{
		"title": "Go Engineer", "companyName": "Acme", "location": "Worldwide", "url": "https://r/1", "source": "Remotive API",
	}, recs[0])
	assert.Equal(t, "Cloud Engineer", recs[1]["title"])
	assert.Equal(t, "", recs[1]["location"])
}

func TestRemotiveSourceStopsAtLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"jobs":[{"id":7,"title":"Go dev","company_name":"Acme","url":"https://r/7","description":""}]}`))
	}))
	defer srv.Close()

	src := NewRemotiveSource("Remotive API", RemotiveOptions{BaseURL: srv.URL}, testClient())
	recs, err := src.Query(context.Background(), []string{"go", "rust"}, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, 1, calls)
}

func TestRemotiveSourceBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	src := NewRemotiveSource("Remotive API", RemotiveOptions{BaseURL: srv.URL}, testClient())
	_, err := src.Query(context.Background(), []string{"go"}, 5)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSourceBadPayload, appErr.Code)
	assert.Equal(t, "Remotive API", appErr.Context["source"])
}

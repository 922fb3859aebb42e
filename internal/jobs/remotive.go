package jobs

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"jobscout/internal/errors"
)

const DefaultRemotiveURL = "https://remotive.com/api/remote-jobs"

// RemotiveOptions configures the Remotive JSON API source.
type RemotiveOptions struct {
	BaseURL  string `mapstructure:"baseURL"`
	Category string `mapstructure:"category"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"candidate_required_location"`
	Description string `json:"description"`
}

// RemotiveSource searches the Remotive API once per term.
type RemotiveSource struct {
	name   string
	opts   RemotiveOptions
	client *Client
}

func NewRemotiveSource(name string, opts RemotiveOptions, client *Client) *RemotiveSource {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultRemotiveURL
	}
	return &RemotiveSource{name: name, opts: opts, client: client}
}

func (s *RemotiveSource) Name() string { return s.name }

func (s *RemotiveSource) Query(ctx context.Context, terms []string, rowLimit int) ([]Record, error) {
	if rowLimit <= 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{})
	var records []Record
	for _, term := range terms {
		if term == "" {
			continue
		}
		jobs, err := s.search(ctx, term, rowLimit)
		if err != nil {
			return nil, wrapSourceError(s.name, err)
		}
		for _, j := range jobs {
			if _, dup := seen[j.ID]; dup {
				continue
			}
			if !MatchesAny(j.Title+" "+j.Description, terms) {
				continue
			}
			seen[j.ID] = struct{}{}
			records = append(records, Record{
				"title":       j.Title,
				"companyName": j.CompanyName,
				"location":    j.Location,
				"url":         j.URL,
				"source":      s.name,
			})
			if len(records) >= rowLimit {
				return records, nil
			}
		}
	}
	return records, nil
}

func (s *RemotiveSource) Probe(ctx context.Context) error {
	_, err := s.search(ctx, "", 1)
	return wrapSourceError(s.name, err)
}

func (s *RemotiveSource) search(ctx context.Context, term string, limit int) ([]remotiveJob, error) {
	u, err := url.Parse(s.opts.BaseURL)
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceUnavailable, "invalid base URL", err)
	}
	q := u.Query()
	if term != "" {
		q.Set("search", term)
	}
	if s.opts.Category != "" {
		q.Set("category", s.opts.Category)
	}
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	body, err := s.client.Get(ctx, u.String(), "application/json")
	if err != nil {
		return nil, err
	}

	var resp remotiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceBadPayload, "remotive response is not valid JSON", err)
	}
	return resp.Jobs, nil
}

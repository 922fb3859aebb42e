package jobs

import (
	"bytes"
	"context"
	"strings"

	"jobscout/internal/errors"

	"github.com/mmcdole/gofeed"
)

// FeedEntry is the part of an RSS/Atom item the feed adapter reads.
type FeedEntry struct {
	Title   string
	Summary string
	Link    string
	Author  string
}

// FeedFetcher downloads and parses a syndication feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedEntry, error)
}

// GofeedFetcher fetches feeds through the shared Client and parses them with gofeed,
// which accepts RSS 0.9x/1.0/2.0, Atom and JSON Feed.
type GofeedFetcher struct {
	client *Client
}

func NewGofeedFetcher(client *Client) *GofeedFetcher {
	return &GofeedFetcher{client: client}
}

func (f *GofeedFetcher) Fetch(ctx context.Context, url string) ([]FeedEntry, error) {
	body, err := f.client.Get(ctx, url, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceBadPayload, "feed could not be parsed", err).
			WithContext("url", url)
	}

	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, FeedEntry{
			Title:   item.Title,
			Summary: item.Description,
			Link:    item.Link,
			Author:  itemAuthor(item),
		})
	}
	return entries, nil
}

func itemAuthor(item *gofeed.Item) string {
	for _, p := range item.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return p.Name
		}
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}

// FeedOptions configures a feed source.
type FeedOptions struct {
	URL string `mapstructure:"url"`
}

// FeedSource keeps the feed entries whose title or summary mention a search term.
type FeedSource struct {
	name    string
	url     string
	fetcher FeedFetcher
}

func NewFeedSource(name string, opts FeedOptions, fetcher FeedFetcher) *FeedSource {
	return &FeedSource{name: name, url: opts.URL, fetcher: fetcher}
}

func (s *FeedSource) Name() string { return s.name }

func (s *FeedSource) Query(ctx context.Context, terms []string, rowLimit int) ([]Record, error) {
	if rowLimit <= 0 {
		return nil, nil
	}

	entries, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, wrapSourceError(s.name, err)
	}

	var records []Record
	for _, e := range entries {
		if !MatchesAny(e.Title+" "+e.Summary, terms) {
			continue
		}
		records = append(records, Record{
			"title":       e.Title,
			"companyName": InferCompany(e.Author, e.Title, s.name),
			"url":         e.Link,
			"source":      s.name,
		})
		if len(records) >= rowLimit {
			break
		}
	}
	return records, nil
}

func (s *FeedSource) Probe(ctx context.Context) error {
	_, err := s.fetcher.Fetch(ctx, s.url)
	return wrapSourceError(s.name, err)
}

// wrapSourceError tags err with the source name, keeping fetch errors typed.
func wrapSourceError(source string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.As(err); ok && appErr.Type == errors.ErrorTypeFetch {
		return appErr.WithContext("source", source)
	}
	return errors.NewFetchError(errors.ErrCodeSourceUnavailable, "source query failed", err).
		WithContext("source", source)
}

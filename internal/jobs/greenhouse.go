package jobs

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"

	"jobscout/internal/errors"

	"github.com/PuerkitoBio/goquery"
)

const DefaultGreenhouseURL = "https://boards.greenhouse.io"

// GreenhouseBoard is one company board, served at <baseURL>/<slug>.
type GreenhouseBoard struct {
	Slug string `mapstructure:"slug"`
	Name string `mapstructure:"name"`
}

// GreenhouseOptions configures the Greenhouse board scraper.
type GreenhouseOptions struct {
	BaseURL string            `mapstructure:"baseURL"`
	Boards  []GreenhouseBoard `mapstructure:"boards"`
}

// GreenhouseSource scrapes public Greenhouse job boards.
type GreenhouseSource struct {
	name   string
	opts   GreenhouseOptions
	client *Client
}

func NewGreenhouseSource(name string, opts GreenhouseOptions, client *Client) *GreenhouseSource {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGreenhouseURL
	}
	return &GreenhouseSource{name: name, opts: opts, client: client}
}

func (s *GreenhouseSource) Name() string { return s.name }

// Query scans boards in order. A board that cannot be read is skipped; the
// query fails only when every board failed.
func (s *GreenhouseSource) Query(ctx context.Context, terms []string, rowLimit int) ([]Record, error) {
	if rowLimit <= 0 || len(s.opts.Boards) == 0 {
		return nil, nil
	}

	var (
		records []Record
		errs    []error
	)
	for _, board := range s.opts.Boards {
		openings, err := s.fetchBoard(ctx, board)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, o := range openings {
			if !MatchesAny(o.title+" "+o.location, terms) {
				continue
			}
			records = append(records, Record{
				"title":       o.title,
				"companyName": boardName(board),
				"city":        o.location,
				"link":        o.link,
				"source":      s.name,
			})
			if len(records) >= rowLimit {
				return records, nil
			}
		}
	}

	if len(errs) == len(s.opts.Boards) {
		return nil, wrapSourceError(s.name, stderrors.Join(errs...))
	}
	return records, nil
}

func (s *GreenhouseSource) Probe(ctx context.Context) error {
	if len(s.opts.Boards) == 0 {
		return nil
	}
	_, err := s.fetchBoard(ctx, s.opts.Boards[0])
	return wrapSourceError(s.name, err)
}

type opening struct {
	title    string
	location string
	link     string
}

func (s *GreenhouseSource) fetchBoard(ctx context.Context, board GreenhouseBoard) ([]opening, error) {
	body, err := s.client.Get(ctx, s.opts.BaseURL+"/"+board.Slug, "text/html")
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewFetchError(errors.ErrCodeSourceBadPayload, "board HTML could not be parsed", err).
			WithContext("board", board.Slug)
	}

	var out []opening
	seen := map[string]bool{}
	add := func(title, location, href string) {
		link := s.absolute(href)
		if title == "" || link == "" || seen[link] {
			return
		}
		seen[link] = true
		out = append(out, opening{title: title, location: location, link: link})
	}

	// Classic boards wrap each posting in div.opening with a span.location.
	doc.Find("div.opening").Each(func(_ int, sel *goquery.Selection) {
		a := sel.Find("a[href]").First()
		href, _ := a.Attr("href")
		add(cleanText(a.Text()), cleanText(sel.Find(".location").First().Text()), href)
	})
	if len(out) > 0 {
		return out, nil
	}

	// Newer layouts only guarantee anchors to /jobs/<id>.
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(strings.ToLower(href), "/jobs/") {
			return
		}
		add(cleanText(a.Text()), "", href)
	})
	return out, nil
}

func (s *GreenhouseSource) absolute(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "/"):
		return s.opts.BaseURL + href
	default:
		return s.opts.BaseURL + "/" + href
	}
}

func boardName(b GreenhouseBoard) string {
	if b.Name != "" {
		return b.Name
	}
	return b.Slug
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

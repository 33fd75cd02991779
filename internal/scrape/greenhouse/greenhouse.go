package greenhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/registry"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/internal/scrape/util"
	"jobhunt-ingest/pkg/logging"
)

const DefaultBaseURL = "https://boards-api.greenhouse.io"

type Config struct {
	BaseURL string // defaults to DefaultBaseURL
	Hydrate bool   // fetch the posting page when the API has no location
	Log     *logging.Logger
}

type Scraper struct {
	cfg    Config
	client *util.Client
}

var _ types.Adapter = (*Scraper)(nil)

func New(cfg Config, client *util.Client) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if client == nil {
		client = util.NewClient(nil, nil, "")
	}
	if cfg.Log == nil {
		cfg.Log = logging.NewNop()
	}
	return &Scraper{cfg: cfg, client: client}
}

func (s *Scraper) Name() string { return "greenhouse" }

func (s *Scraper) Endpoint(e registry.Entry) string {
	if e.API != "" {
		return e.API
	}
	return fmt.Sprintf("%s/v1/boards/%s/jobs", s.cfg.BaseURL, url.PathEscape(e.Handle))
}

type boardResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
}

// ghJob covers both the live boards API and per-company export files, which
// sometimes carry "url", "company" and "date_posted" instead.
type ghJob struct {
	ID          util.FlexString `json:"id"`
	Title       string          `json:"title"`
	AbsoluteURL string          `json:"absolute_url"`
	URL         string          `json:"url"`
	Company     string          `json:"company"`
	CompanyName string          `json:"company_name"`
	Location    json.RawMessage `json:"location"`
	UpdatedAt   string          `json:"updated_at"`
	CreatedAt   string          `json:"created_at"`
	DatePosted  string          `json:"date_posted"`
}

type namedLocation struct {
	Name string `json:"name"`
}

func (s *Scraper) Fetch(ctx context.Context, e registry.Entry) (types.ScrapeResult, error) {
	endpoint := s.Endpoint(e)

	var body boardResponse
	if err := s.client.GetJSON(ctx, endpoint, &body); err != nil {
		return types.ScrapeResult{}, fmt.Errorf("greenhouse %s: %w", e.Handle, err)
	}

	postings, skipped := types.MapAll(liveMapper{s}, body.Jobs, e.Handle)
	if s.cfg.Hydrate {
		for i := range postings {
			if postings[i].Location == util.UnknownLocation {
				// keep the API entry as-is when the page is unavailable
				if err := s.hydrateLocation(ctx, &postings[i]); err != nil {
					s.cfg.Log.Debug("hydrate location failed", "handle", e.Handle, "url", postings[i].URL, "err", err)
				}
			}
		}
	}

	return types.ScrapeResult{
		Source:   s.Name(),
		Handle:   e.Handle,
		Postings: postings,
		Skipped:  skipped,
	}, nil
}

// MapRaw maps an export-file entry. Without an explicit company the board
// slug is read from the posting URL before falling back.
func (s *Scraper) MapRaw(raw json.RawMessage, fallbackCompany string) (domain.Posting, error) {
	return s.mapRaw(raw, fallbackCompany, true)
}

// liveMapper labels API postings with the board handle, as the URL of a
// custom careers domain says nothing reliable about the company.
type liveMapper struct{ *Scraper }

func (m liveMapper) MapRaw(raw json.RawMessage, handle string) (domain.Posting, error) {
	return m.mapRaw(raw, handle, false)
}

func (s *Scraper) mapRaw(raw json.RawMessage, fallbackCompany string, inferFromURL bool) (domain.Posting, error) {
	var j ghJob
	if err := json.Unmarshal(raw, &j); err != nil {
		return domain.Posting{}, err
	}

	id := j.ID.String()
	link := util.FirstNonEmpty(j.AbsoluteURL, j.URL)
	title := util.CleanText(j.Title)
	if id == "" && link == "" && title == "" {
		return domain.Posting{}, types.ErrEmptyPosting
	}

	loc, err := parseLocation(j.Location)
	if err != nil {
		return domain.Posting{}, fmt.Errorf("location: %w", err)
	}

	company := util.FirstNonEmpty(j.Company, j.CompanyName, fallbackCompany)
	if inferFromURL {
		company = util.InferCompany(s.Name(), util.FirstNonEmpty(j.Company, j.CompanyName), link, fallbackCompany)
	}

	return domain.Posting{
		ExternalID: id,
		Title:      title,
		Company:    company,
		Location:   util.NormalizeLocation(loc),
		URL:        link,
		DatePosted: util.FirstNonEmpty(j.UpdatedAt, j.CreatedAt, j.DatePosted),
		Source:     s.Name(),
	}, nil
}

// parseLocation accepts a list of {name} objects, a single {name} object or a
// plain string.
func parseLocation(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '[':
		var locs []namedLocation
		if err := json.Unmarshal(raw, &locs); err != nil {
			return "", err
		}
		names := make([]string, 0, len(locs))
		for _, l := range locs {
			names = append(names, l.Name)
		}
		return util.JoinNonEmpty(", ", names...), nil
	case '{':
		var l namedLocation
		if err := json.Unmarshal(raw, &l); err != nil {
			return "", err
		}
		return util.CleanText(l.Name), nil
	case '"':
		var sv string
		if err := json.Unmarshal(raw, &sv); err != nil {
			return "", err
		}
		return util.CleanText(sv), nil
	}
	return "", fmt.Errorf("unsupported shape %.20s", raw)
}

func (s *Scraper) hydrateLocation(ctx context.Context, p *domain.Posting) error {
	if p.URL == "" {
		return nil
	}
	doc, err := s.client.GetDocument(ctx, p.URL)
	if err != nil {
		return err
	}
	if loc := util.FindLocation(doc); loc != "" {
		p.Location = util.NormalizeLocation(loc)
	}
	return nil
}

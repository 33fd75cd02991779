package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/registry"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/internal/scrape/util"
	"jobhunt-ingest/pkg/logging"
)

const DefaultBaseURL = "https://api.lever.co"

type Config struct {
	BaseURL string
	Hydrate bool
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

func (s *Scraper) Name() string { return "lever" }

func (s *Scraper) Endpoint(e registry.Entry) string {
	if e.API != "" {
		return e.API
	}
	return fmt.Sprintf("%s/v0/postings/%s?mode=json", s.cfg.BaseURL, url.PathEscape(e.Handle))
}

type leverPosting struct {
	ID         util.FlexString `json:"id"`
	Text       string          `json:"text"` // title
	Title      string          `json:"title"`
	HostedURL  string          `json:"hostedUrl"`
	URL        string          `json:"url"`
	Company    string          `json:"company"`
	CreatedAt  int64           `json:"createdAt"` // ms epoch
	DatePosted string          `json:"date_posted"`
	Workplace  string          `json:"workplaceType"`
	Categories struct {
		Location     string   `json:"location"`
		AllLocations []string `json:"allLocations"`
		Team         string   `json:"team"`
	} `json:"categories"`
}

func (s *Scraper) Fetch(ctx context.Context, e registry.Entry) (types.ScrapeResult, error) {
	var raws []json.RawMessage
	if err := s.client.GetJSON(ctx, s.Endpoint(e), &raws); err != nil {
		return types.ScrapeResult{}, fmt.Errorf("lever %s: %w", e.Handle, err)
	}

	postings, skipped := types.MapAll(s, raws, e.Handle)
	if s.cfg.Hydrate {
		for i := range postings {
			if postings[i].Location == util.UnknownLocation {
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

func (s *Scraper) MapRaw(raw json.RawMessage, fallbackCompany string) (domain.Posting, error) {
	var p leverPosting
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Posting{}, err
	}

	id := p.ID.String()
	title := util.CleanText(util.FirstNonEmpty(p.Text, p.Title))
	link := util.FirstNonEmpty(p.HostedURL, p.URL)
	if id == "" && link == "" && title == "" {
		return domain.Posting{}, types.ErrEmptyPosting
	}

	loc := util.CleanText(p.Categories.Location)
	if loc == "" {
		loc = util.JoinNonEmpty(", ", p.Categories.AllLocations...)
	}
	if loc == "" && strings.EqualFold(p.Workplace, "remote") {
		loc = "Remote"
	}

	posted := strings.TrimSpace(p.DatePosted)
	if p.CreatedAt > 0 {
		posted = time.UnixMilli(p.CreatedAt).UTC().Format(time.RFC3339)
	}

	return domain.Posting{
		ExternalID: id,
		Title:      title,
		Company:    util.InferCompany(s.Name(), p.Company, link, fallbackCompany),
		Location:   util.NormalizeLocation(loc),
		URL:        link,
		DatePosted: posted,
		Source:     s.Name(),
	}, nil
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

package smartrecruiters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/registry"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/internal/scrape/util"
)

const (
	DefaultBaseURL = "https://api.smartrecruiters.com"

	pageLimit = 100
	maxOffset = 5000
)

type Config struct {
	BaseURL string
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
	return &Scraper{cfg: cfg, client: client}
}

func (s *Scraper) Name() string { return "smartrecruiters" }

func (s *Scraper) Endpoint(e registry.Entry) string {
	if e.API != "" {
		return e.API
	}
	return fmt.Sprintf("%s/v1/companies/%s/postings", s.cfg.BaseURL, url.PathEscape(e.Handle))
}

// { "content": [...], "totalFound": N, "offset": O, "limit": L }
type postingsResponse struct {
	Content    []json.RawMessage `json:"content"`
	TotalFound int               `json:"totalFound"`
}

type posting struct {
	ID           util.FlexString `json:"id"`
	UUID         string          `json:"uuid"`
	Ref          string          `json:"ref"`
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	URL          string          `json:"url"`
	ReleasedDate string          `json:"releasedDate"`
	DatePosted   string          `json:"date_posted"`
	Company      struct {
		Identifier string `json:"identifier"`
		Name       string `json:"name"`
	} `json:"company"`
	Location json.RawMessage `json:"location"`
}

type srLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Remote  bool   `json:"remote"`
}

func (s *Scraper) Fetch(ctx context.Context, e registry.Entry) (types.ScrapeResult, error) {
	base := s.Endpoint(e)
	res := types.ScrapeResult{Source: s.Name(), Handle: e.Handle}

	for offset := 0; offset <= maxOffset; offset += pageLimit {
		u, err := pageURL(base, offset)
		if err != nil {
			return types.ScrapeResult{}, fmt.Errorf("smartrecruiters %s: %w", e.Handle, err)
		}

		var pr postingsResponse
		if err := s.client.GetJSON(ctx, u, &pr); err != nil {
			return types.ScrapeResult{}, fmt.Errorf("smartrecruiters %s: %w", e.Handle, err)
		}
		if len(pr.Content) == 0 {
			break
		}

		postings, skipped := types.MapAll(s, pr.Content, e.Handle)
		for _, sk := range skipped {
			if me, ok := sk.(*types.MalformedError); ok {
				me.Index += offset
			}
		}
		res.Postings = append(res.Postings, postings...)
		res.Skipped = append(res.Skipped, skipped...)

		if pr.TotalFound <= 0 || offset+pageLimit >= pr.TotalFound {
			break
		}
	}

	return res, nil
}

func pageURL(base string, offset int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(pageLimit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Scraper) MapRaw(raw json.RawMessage, fallbackCompany string) (domain.Posting, error) {
	var p posting
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Posting{}, err
	}

	id := util.FirstNonEmpty(p.ID.String(), p.UUID, p.Ref)
	title := util.CleanText(util.FirstNonEmpty(p.Name, p.Title))
	slug := util.FirstNonEmpty(p.Company.Identifier, fallbackCompany)

	link := strings.TrimSpace(p.URL)
	if link == "" && id != "" && slug != "" {
		link = fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", url.PathEscape(slug), url.PathEscape(id))
	}
	if id == "" && link == "" && title == "" {
		return domain.Posting{}, types.ErrEmptyPosting
	}

	loc, err := parseLocation(p.Location)
	if err != nil {
		return domain.Posting{}, err
	}

	return domain.Posting{
		ExternalID: id,
		Title:      title,
		Company:    util.FirstNonEmpty(p.Company.Name, p.Company.Identifier, fallbackCompany),
		Location:   util.NormalizeLocation(loc),
		URL:        link,
		DatePosted: util.FirstNonEmpty(p.ReleasedDate, p.DatePosted),
		Source:     s.Name(),
	}, nil
}

// parseLocation accepts the structured API object or a plain string from snapshots.
func parseLocation(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{':
		var l srLocation
		if err := json.Unmarshal(raw, &l); err != nil {
			return "", err
		}
		if loc := util.JoinNonEmpty(", ", l.City, l.Region, l.Country); loc != "" {
			return loc, nil
		}
		if l.Remote {
			return "Remote", nil
		}
		return "", nil
	default:
		return "", fmt.Errorf("unsupported location %s", string(raw))
	}
}

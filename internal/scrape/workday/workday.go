// Package workday reads the public "cxs" jobs endpoint behind Workday career
// sites. A registry handle is the career site URL, for example
// https://acme.wd5.myworkdayjobs.com/en-US/External.
package workday

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

	"jobhunt-ingest/internal/domain"
	"jobhunt-ingest/internal/registry"
	"jobhunt-ingest/internal/scrape/types"
	"jobhunt-ingest/internal/scrape/util"
)

const (
	pageLimit = 20
	maxOffset = 5000
)

type Scraper struct {
	client *util.Client
}

var _ types.Adapter = (*Scraper)(nil)

func New(client *util.Client) *Scraper {
	if client == nil {
		client = util.NewClient(nil, nil, "")
	}
	return &Scraper{client: client}
}

func (s *Scraper) Name() string { return "workday" }

type board struct {
	Scheme string
	Host   string
	Tenant string
	Site   string
	Locale string
}

type wdRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type wdResponse struct {
	Total       int               `json:"total"`
	JobPostings []json.RawMessage `json:"jobPostings"`
}

type wdPosting struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ExternalPath     string `json:"externalPath"`
	ExternalURL      string `json:"externalUrl"`
	URL              string `json:"url"`
	Company          string `json:"company"`
	LocationsText    string `json:"locationsText"`
	Location         string `json:"location"`
	PostedOnDate     string `json:"postedOnDate"`
	DatePosted       string `json:"date_posted"`
	JobReqID         string `json:"jobRequisitionId"`
	JobRequisitionID string `json:"jobRequisitionID"`
}

func parseBoardURL(raw string) (board, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return board{}, errors.New("empty board url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return board{}, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Host == "" {
		return board{}, fmt.Errorf("missing host in %q", raw)
	}

	parts := strings.Split(u.Hostname(), ".")
	if len(parts) < 2 {
		return board{}, fmt.Errorf("unexpected host %q", u.Host)
	}
	tenant := parts[0]

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return board{}, fmt.Errorf("unexpected path %q", u.Path)
	}

	locale := ""
	if len(segs) >= 2 && looksLikeLocale(segs[0]) {
		locale = normalizeLocale(segs[0])
		segs = segs[1:]
	}

	return board{
		Scheme: u.Scheme,
		Host:   u.Host,
		Tenant: tenant,
		Site:   segs[len(segs)-1],
		Locale: locale,
	}, nil
}

// looksLikeLocale accepts en-US, en-us and the like.
func looksLikeLocale(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	return isAlpha(s[0:2]) && isAlpha(s[3:5])
}

func normalizeLocale(s string) string {
	return strings.ToLower(s[0:2]) + "-" + strings.ToUpper(s[3:5])
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

func (b board) jobsEndpoint() string {
	base := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", b.Scheme, b.Host, b.Tenant, b.Site)
	if b.Locale == "" {
		return base
	}
	return base + "?locale=" + url.QueryEscape(b.Locale)
}

func (b board) absoluteJobURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if b.Locale != "" {
		path = "/" + b.Locale + "/" + b.Site + path
	} else {
		path = "/" + b.Site + path
	}
	return fmt.Sprintf("%s://%s%s", b.Scheme, b.Host, path)
}

// Endpoint returns the api override, the derived cxs endpoint, or "" when the
// handle is not a Workday career site URL.
func (s *Scraper) Endpoint(e registry.Entry) string {
	if e.API != "" {
		return e.API
	}
	b, err := parseBoardURL(e.Handle)
	if err != nil {
		return ""
	}
	return b.jobsEndpoint()
}

func (s *Scraper) Fetch(ctx context.Context, e registry.Entry) (types.ScrapeResult, error) {
	b, err := parseBoardURL(e.Handle)
	if err != nil {
		return types.ScrapeResult{}, fmt.Errorf("workday %s: %w", e.Handle, err)
	}
	endpoint := s.Endpoint(e)

	header := http.Header{}
	header.Set("Origin", fmt.Sprintf("%s://%s", b.Scheme, b.Host))
	header.Set("Referer", strings.TrimRight(e.Handle, "/"))
	header.Set("Accept-Language", util.FirstNonEmpty(b.Locale, "en-US"))

	res := types.ScrapeResult{Source: s.Name(), Handle: e.Handle}
	m := boardMapper{b: b}

	for offset := 0; offset <= maxOffset; offset += pageLimit {
		var jr wdResponse
		req := wdRequest{AppliedFacets: map[string]any{}, Limit: pageLimit, Offset: offset}
		if err := s.client.PostJSON(ctx, endpoint, req, &jr, header); err != nil {
			return types.ScrapeResult{}, fmt.Errorf("workday %s: %w", b.Tenant, err)
		}
		if len(jr.JobPostings) == 0 {
			break
		}

		postings, skipped := types.MapAll(m, jr.JobPostings, b.Tenant)
		for _, sk := range skipped {
			if me, ok := sk.(*types.MalformedError); ok {
				me.Index += offset
			}
		}
		res.Postings = append(res.Postings, postings...)
		res.Skipped = append(res.Skipped, skipped...)

		if jr.Total <= 0 || offset+pageLimit >= jr.Total {
			break
		}
	}
	return res, nil
}

// MapRaw maps an export-file entry; relative job paths cannot be resolved
// without the board and are kept as given.
func (s *Scraper) MapRaw(raw json.RawMessage, fallbackCompany string) (domain.Posting, error) {
	return boardMapper{}.MapRaw(raw, fallbackCompany)
}

type boardMapper struct{ b board }

func (boardMapper) Name() string { return "workday" }

func (m boardMapper) MapRaw(raw json.RawMessage, fallbackCompany string) (domain.Posting, error) {
	var p wdPosting
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Posting{}, err
	}

	title := util.CleanText(p.Title)
	link := util.FirstNonEmpty(p.ExternalURL, p.URL)
	if link == "" {
		if m.b.Host != "" {
			link = m.b.absoluteJobURL(p.ExternalPath)
		} else {
			link = strings.TrimSpace(p.ExternalPath)
		}
	}
	id := util.FirstNonEmpty(p.JobReqID, p.JobRequisitionID, p.ID)
	if id == "" && link == "" && title == "" {
		return domain.Posting{}, types.ErrEmptyPosting
	}
	// requisition ids are only unique within a tenant
	if id != "" && m.b.Tenant != "" {
		id = fmt.Sprintf("workday:%s:%s:%s", m.b.Tenant, m.b.Site, id)
	}

	return domain.Posting{
		ExternalID: id,
		Title:      title,
		Company:    util.FirstNonEmpty(p.Company, fallbackCompany),
		Location:   util.NormalizeLocation(util.FirstNonEmpty(p.LocationsText, p.Location)),
		URL:        link,
		DatePosted: postedAt(util.FirstNonEmpty(p.PostedOnDate, p.DatePosted)),
		Source:     "workday",
	}, nil
}

// postedAt normalizes the date shapes seen on Workday tenants to RFC3339 or
// a plain date. Anything else is kept verbatim.
func postedAt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// >= 1e12 is epoch ms, else seconds.
		var t time.Time
		if n >= 1_000_000_000_000 {
			t = time.UnixMilli(n)
		} else {
			t = time.Unix(n, 0)
		}
		return t.UTC().Format(time.RFC3339)
	}
	return s
}

package util

import (
	"net/url"
	"regexp"
	"strings"
)

const UnknownLocation = "Unknown"

var (
	hyphenRe    = regexp.MustCompile(`\s*-\s*`)
	commaRunRe  = regexp.MustCompile(`,(?:\s*,)+`)
	edgeTrimSet = ", \t\r\n"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizeLocation maps vendor-shaped location strings onto one vocabulary:
// "Remote" for anything mentioning remote work, "City, State" lists otherwise,
// and "Unknown" when nothing was given.
func NormalizeLocation(raw string) string {
	loc := strings.TrimSpace(raw)
	if loc == "" {
		return UnknownLocation
	}
	if strings.Contains(strings.ToLower(loc), "remote") {
		return "Remote"
	}
	loc = hyphenRe.ReplaceAllString(loc, ", ")
	loc = commaRunRe.ReplaceAllString(loc, ",")
	loc = strings.Trim(loc, edgeTrimSet)
	if loc == "" {
		return UnknownLocation
	}
	return loc
}

// InferCompany picks the company label for a posting. An explicit value wins;
// greenhouse URLs carry the board slug right before the "jobs" segment;
// everything else falls back to the caller's default.
func InferCompany(vendor, explicit, rawURL, fallback string) string {
	if c := strings.TrimSpace(explicit); c != "" {
		return c
	}
	if vendor == "greenhouse" {
		if slug := slugBeforeJobs(rawURL); slug != "" {
			return slug
		}
	}
	return fallback
}

func slugBeforeJobs(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	for i := 1; i < len(segs); i++ {
		if segs[i] == "jobs" {
			return segs[i-1]
		}
	}
	return ""
}

// JoinNonEmpty trims parts and joins the non-empty ones with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = CleanText(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

package util

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var locationSelectors = []string{
	".location",
	".opening .location",
	".job__location",
	".posting-categories .location",
	"[itemprop='jobLocation']",
	"[data-qa='location']",
	"[data-testid='job-location']",
	"[data-testid='location']",
}

// FindLocation scrapes a raw location string out of a posting page. It returns
// "" when nothing plausible is found; callers normalize the result.
func FindLocation(doc *goquery.Document) string {
	for _, sel := range locationSelectors {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}

	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if loc := ExtractLocationFromLabeledText(v); loc != "" {
			return loc
		}
	}

	return ExtractLocationFromLabeledText(doc.Find("body").Text())
}

// locationLabels are tried in order; matching runs on the original text so
// offsets stay valid when case folding changes byte lengths.
var locationLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)job location:`),
	regexp.MustCompile(`(?i)locations:`),
	regexp.MustCompile(`(?i)location:`),
}

// ExtractLocationFromLabeledText returns the text after a "Location:" style label.
func ExtractLocationFromLabeledText(s string) string {
	for _, lab := range locationLabels {
		loc := lab.FindStringIndex(s)
		if loc == nil {
			continue
		}
		rest := strings.TrimSpace(s[loc[1]:])

		// stop at line or separator boundaries
		for _, cut := range []string{"\n", "\r", " | ", " · "} {
			if j := strings.Index(rest, cut); j >= 0 {
				rest = rest[:j]
			}
		}

		rest = CleanText(rest)
		if rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}

// Package affiliate builds Amazon affiliate links for movies.
package affiliate

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

const videoSearchURL = "https://www.amazon.com/gp/video/search"

var (
	whitespace = regexp.MustCompile(`\s+`)
	asinPath   = regexp.MustCompile(`(?i)/(?:dp|gp/product)/([A-Z0-9]{10})`)
)

// Linker adds an affiliate tag to Amazon links. A Linker with no affiliate
// ID produces no links and leaves URLs untouched.
type Linker struct {
	affiliateID string
}

// New creates a Linker for affiliateID.
func New(affiliateID string) *Linker {
	return &Linker{affiliateID: strings.TrimSpace(affiliateID)}
}

// Enabled reports whether an affiliate ID is configured.
func (l *Linker) Enabled() bool {
	return l != nil && l.affiliateID != ""
}

// MovieLink returns a Prime Video search link for the movie, or "" when no
// affiliate ID is configured.
func (l *Linker) MovieLink(title, releaseDate string) string {
	if !l.Enabled() {
		return ""
	}

	term := strings.TrimSpace(title)
	if len(releaseDate) >= 4 {
		term += " " + releaseDate[:4]
	}
	phrase := strings.ToLower(whitespace.ReplaceAllString(term, "+"))

	return videoSearchURL + "?phrase=" + url.PathEscape(phrase) + "&tag=" + url.QueryEscape(l.affiliateID)
}

// Tag sets the affiliate tag on an Amazon URL, replacing any existing tag.
// Non-video URLs without a tag also get the tracking parameters. Anything
// that is not an Amazon URL is returned unchanged.
func (l *Linker) Tag(rawURL string) string {
	if !l.Enabled() || rawURL == "" {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || !IsAmazonURL(rawURL) {
		if err != nil {
			slog.Warn("Invalid Amazon URL", "url", rawURL, "error", err)
		}
		return rawURL
	}

	q := u.Query()
	hadTag := q.Has("tag")
	q.Set("tag", l.affiliateID)
	if !hadTag && !strings.Contains(u.Path, "/gp/video/") {
		q.Set("linkCode", "ur2")
		q.Set("camp", "1789")
		q.Set("creative", "9325")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// IsAmazonURL reports whether rawURL points at an Amazon storefront.
func IsAmazonURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.Hostname(), "amazon.")
}

// ProductID extracts the ASIN from an Amazon product URL.
func ProductID(rawURL string) string {
	if !IsAmazonURL(rawURL) {
		return ""
	}
	u, _ := url.Parse(rawURL)
	if m := asinPath.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

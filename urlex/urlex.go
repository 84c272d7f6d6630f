// Package urlex finds URL-shaped literals in extracted deck content,
// validates them, and deduplicates across pages and sources.
package urlex

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"decklens/deck"
)

var (
	urlPattern   = regexp.MustCompile(`https?://[^\s<>"']+`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	hostPattern  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)+$`)
)

// mentionPatterns catch bare platform handles written without a scheme,
// the way decks usually print them ("linkedin.com/company/acme").
var mentionPatterns = []struct {
	re     *regexp.Regexp
	expand func(match string) string
}{
	{
		re:     regexp.MustCompile(`(?i)\b(?:www\.)?linkedin\.com/(?:in|company)/[A-Za-z0-9-]+`),
		expand: func(m string) string { return "https://" + strings.TrimPrefix(m, "www.") },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:www\.)?(?:twitter|x)\.com/[A-Za-z0-9_]+`),
		expand: func(m string) string { return "https://" + strings.TrimPrefix(m, "www.") },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:www\.)?github\.com/[A-Za-z0-9-]+`),
		expand: func(m string) string { return "https://" + strings.TrimPrefix(m, "www.") },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:www\.)?crunchbase\.com/organization/[A-Za-z0-9-]+`),
		expand: func(m string) string { return "https://" + strings.TrimPrefix(m, "www.") },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:www\.)?facebook\.com/[A-Za-z0-9.]+`),
		expand: func(m string) string { return "https://" + strings.TrimPrefix(m, "www.") },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:www\.)?instagram\.com/[A-Za-z0-9_.]+`),
		expand: func(m string) string { return "https://" + strings.TrimPrefix(m, "www.") },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:www\.)?youtube\.com/(?:c/|channel/|user/|@)?[A-Za-z0-9_-]+`),
		expand: func(m string) string { return "https://" + strings.TrimPrefix(m, "www.") },
	},
}

// websitePattern catches bare domain mentions like "acme.io" printed
// without a scheme. The leading guard keeps it off email hosts and path
// segments of URLs already captured above.
var websitePattern = regexp.MustCompile(`(?i)(?:^|[\s(\[])((?:www\.)?[A-Za-z0-9-]+\.(?:com|org|net|io|co|ai|tech|app))\b`)

// platformHosts are covered by their own mention patterns; the bare
// website recognizer skips them so a handle mention does not also emit a
// bare platform root.
var platformHosts = map[string]bool{
	"linkedin.com":   true,
	"twitter.com":    true,
	"x.com":          true,
	"github.com":     true,
	"crunchbase.com": true,
	"facebook.com":   true,
	"instagram.com":  true,
	"youtube.com":    true,
}

// WellFormed reports whether a candidate parses into a usable scheme and
// host. Candidates are rejected on first parse failure, never repaired:
// `https://@pitchdecks` keeps its userinfo and stays malformed.
func WellFormed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" || u.User != nil {
		return false
	}
	host := u.Hostname()
	return hostPattern.MatchString(host)
}

// Collector accumulates URL literals with first-seen-wins dedup by exact
// string. Feed text in page order so provenance lands on the earliest page.
type Collector struct {
	seen map[string]bool
	urls []deck.ExtractedURL

	emailSeen map[string]bool
	emails    []string
}

func NewCollector() *Collector {
	return &Collector{
		seen:      make(map[string]bool),
		emailSeen: make(map[string]bool),
	}
}

// AddText scans one block of text attributed to a page ordinal and source.
func (c *Collector) AddText(text string, pageOrdinal int, source deck.URLSource) {
	if text == "" {
		return
	}
	for _, raw := range urlPattern.FindAllString(text, -1) {
		c.add(trimTrailing(raw), pageOrdinal, source)
	}
	for _, mp := range mentionPatterns {
		for _, m := range mp.re.FindAllString(text, -1) {
			c.add(trimTrailing(mp.expand(strings.ToLower(m))), pageOrdinal, source)
		}
	}
	for _, m := range websitePattern.FindAllStringSubmatch(text, -1) {
		host := strings.TrimPrefix(strings.ToLower(m[1]), "www.")
		if platformHosts[host] {
			continue
		}
		c.add("https://"+host, pageOrdinal, source)
	}
	for _, m := range emailPattern.FindAllString(text, -1) {
		if !c.emailSeen[m] {
			c.emailSeen[m] = true
			c.emails = append(c.emails, m)
		}
	}
}

// AddCandidate records a literal that is already a URL candidate, e.g.
// one the vision model read off an image. Emails are routed to the email
// list; everything else is kept as a URL with validity judged as usual.
func (c *Collector) AddCandidate(raw string, pageOrdinal int, source deck.URLSource) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	if emailPattern.MatchString(raw) && !strings.Contains(raw, "/") {
		if !c.emailSeen[raw] {
			c.emailSeen[raw] = true
			c.emails = append(c.emails, raw)
		}
		return
	}
	c.add(trimTrailing(raw), pageOrdinal, source)
}

// AddPages scans extracted page texts in order.
func (c *Collector) AddPages(pages []deck.PageText) {
	for _, p := range pages {
		c.AddText(p.Text, p.Ordinal, deck.URLFromText)
	}
}

func (c *Collector) add(raw string, pageOrdinal int, source deck.URLSource) {
	if raw == "" || c.seen[raw] {
		return
	}
	c.seen[raw] = true
	c.urls = append(c.urls, deck.ExtractedURL{
		Raw:         raw,
		Source:      source,
		PageOrdinal: pageOrdinal,
		WellFormed:  WellFormed(raw),
	})
}

// URLs returns the deduplicated list in first-seen order.
func (c *Collector) URLs() []deck.ExtractedURL {
	return c.urls
}

// Emails returns deduplicated email addresses, sorted for stable output.
func (c *Collector) Emails() []string {
	out := append([]string(nil), c.emails...)
	sort.Strings(out)
	return out
}

// trimTrailing strips punctuation that regularly clings to URLs in prose.
func trimTrailing(raw string) string {
	return strings.TrimRight(raw, ".,;:!?)]}\"'")
}
